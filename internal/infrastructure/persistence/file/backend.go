// Package file 提供本地 JSON 文件集合后端
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("file")

// Backend 单文件集合后端，写入采用临时文件 + rename 保证原子性
type Backend struct {
	path string
}

// NewBackend 创建文件后端，目录不存在时自动创建
func NewBackend(path string) (*Backend, error) {
	if path == "" {
		return nil, errors.New("file backend path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &Backend{path: path}, nil
}

func (b *Backend) Name() string { return "file" }

// Path 返回集合文件路径
func (b *Backend) Path() string { return b.path }

// Load 读取集合文件，文件不存在视为空集合
func (b *Backend) Load(ctx context.Context) ([]byte, error) {
	_, span := tracer.Start(ctx, "file.Load",
		trace.WithAttributes(attribute.String("file.path", b.path)))
	defer span.End()

	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read %s: %w", b.path, err)
	}
	return data, nil
}

// Save 整体写入集合文件
func (b *Backend) Save(ctx context.Context, data []byte) error {
	_, span := tracer.Start(ctx, "file.Save",
		trace.WithAttributes(
			attribute.String("file.path", b.path),
			attribute.Int("file.bytes", len(data)),
		))
	defer span.End()

	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".*.tmp")
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		span.RecordError(err)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		span.RecordError(err)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to replace %s: %w", b.path, err)
	}
	return nil
}

// Ping 检查数据目录可写
func (b *Backend) Ping(_ context.Context) error {
	info, err := os.Stat(filepath.Dir(b.path))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(b.path))
	}
	return nil
}
