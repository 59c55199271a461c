package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"yt-ebook-api/internal/domain/repository"
)

var _ repository.AtomicCollectionBackend = (*CollectionBackend)(nil)

// CollectionBackend 单行文档表集合后端：每个集合对应一行 jsonb
type CollectionBackend struct {
	client *Client
	table  string
	name   string
}

// NewCollectionBackend 创建集合后端并确保文档表存在
func NewCollectionBackend(ctx context.Context, client *Client, table, name string) (*CollectionBackend, error) {
	if table == "" {
		table = "collections"
	}
	b := &CollectionBackend{
		client: client,
		table:  pq.QuoteIdentifier(table),
		name:   name,
	}
	if err := b.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *CollectionBackend) ensureSchema(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		name text PRIMARY KEY,
		body jsonb NOT NULL,
		updated_at timestamptz NOT NULL DEFAULT now()
	)`, b.table)
	if err := b.client.db.WithContext(ctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("failed to create collection table: %w", err)
	}
	return nil
}

func (b *CollectionBackend) Name() string { return "postgres" }

// Load 读取集合文档，行不存在视为空集合
func (b *CollectionBackend) Load(ctx context.Context) ([]byte, error) {
	ctx, span := b.start(ctx, "postgres.CollectionLoad")
	defer span.End()

	body, err := b.read(b.client.db.WithContext(ctx), false)
	if err != nil {
		span.RecordError(err)
	}
	return body, err
}

// Save 整体覆盖写入集合文档
func (b *CollectionBackend) Save(ctx context.Context, data []byte) error {
	ctx, span := b.start(ctx, "postgres.CollectionSave")
	defer span.End()

	if err := b.write(b.client.db.WithContext(ctx), data); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Mutate 在事务内以行锁读取集合并写回
func (b *CollectionBackend) Mutate(ctx context.Context, fn func(data []byte) ([]byte, error)) error {
	ctx, span := b.start(ctx, "postgres.CollectionMutate")
	defer span.End()

	err := b.client.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先确保行存在，使 FOR UPDATE 能锁住首次写入
		seed := fmt.Sprintf(`INSERT INTO %s (name, body) VALUES (?, '[]'::jsonb) ON CONFLICT (name) DO NOTHING`, b.table)
		if err := tx.Exec(seed, b.name).Error; err != nil {
			return fmt.Errorf("failed to seed collection row: %w", err)
		}
		data, err := b.read(tx, true)
		if err != nil {
			return err
		}
		next, err := fn(data)
		if err != nil || next == nil {
			return err
		}
		return b.write(tx, next)
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (b *CollectionBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx)
}

func (b *CollectionBackend) read(db *gorm.DB, forUpdate bool) ([]byte, error) {
	query := fmt.Sprintf(`SELECT body::text FROM %s WHERE name = ?`, b.table)
	if forUpdate {
		query += " FOR UPDATE"
	}

	var body string
	err := db.Raw(query, b.name).Row().Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", b.name, err)
	}
	return []byte(body), nil
}

func (b *CollectionBackend) write(db *gorm.DB, data []byte) error {
	stmt := fmt.Sprintf(`INSERT INTO %s (name, body, updated_at) VALUES (?, ?::jsonb, now())
		ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`, b.table)
	if err := db.Exec(stmt, b.name, string(data)).Error; err != nil {
		return fmt.Errorf("failed to write collection %s: %w", b.name, err)
	}
	return nil
}

func (b *CollectionBackend) start(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.table", b.table),
		attribute.String("collection", b.name),
	))
}
