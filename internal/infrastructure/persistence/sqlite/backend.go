// Package sqlite 提供本地 SQLite 集合后端（纯 Go 驱动）
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"

	"yt-ebook-api/internal/domain/repository"
)

var tracer = otel.Tracer("sqlite")

var _ repository.AtomicCollectionBackend = (*Backend)(nil)

// Backend 与 postgres 后端相同的单行文档表，存放在本地 SQLite 文件中
type Backend struct {
	db   *sql.DB
	name string
}

// Open 打开（或创建）数据库并初始化文档表
func Open(path, collection string) (*Backend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite 只允许单写者
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS collections (
		name       TEXT PRIMARY KEY,
		body       TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Backend{db: db, name: collection}, nil
}

func (b *Backend) Name() string { return "sqlite" }

// Close 关闭数据库
func (b *Backend) Close() error {
	return b.db.Close()
}

// Load 读取集合，行不存在视为空集合
func (b *Backend) Load(ctx context.Context) ([]byte, error) {
	ctx, span := b.start(ctx, "sqlite.CollectionLoad")
	defer span.End()

	data, err := read(ctx, b.db, b.name)
	if err != nil {
		span.RecordError(err)
	}
	return data, err
}

// Save 整体覆盖写入集合
func (b *Backend) Save(ctx context.Context, data []byte) error {
	ctx, span := b.start(ctx, "sqlite.CollectionSave")
	defer span.End()

	if err := write(ctx, b.db, b.name, data); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Mutate 在 BEGIN IMMEDIATE 事务内完成读改写，跨进程串行
func (b *Backend) Mutate(ctx context.Context, fn func(data []byte) ([]byte, error)) (err error) {
	ctx, span := b.start(ctx, "sqlite.CollectionMutate")
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	conn, err := b.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	data, err := read(ctx, conn, b.name)
	if err != nil {
		return err
	}
	next, err := fn(data)
	if err != nil {
		return err
	}
	if next != nil {
		if err := write(ctx, conn, b.name, next); err != nil {
			return err
		}
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func read(ctx context.Context, q querier, name string) ([]byte, error) {
	var body string
	err := q.QueryRowContext(ctx, `SELECT body FROM collections WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", name, err)
	}
	return []byte(body), nil
}

func write(ctx context.Context, q querier, name string, data []byte) error {
	_, err := q.ExecContext(ctx, `INSERT INTO collections (name, body, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`, name, string(data))
	if err != nil {
		return fmt.Errorf("failed to write collection %s: %w", name, err)
	}
	return nil
}

func (b *Backend) start(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("collection", b.name)))
}
