// Package repository 定义数据访问层接口
package repository

import (
	"context"
)

// CollectionBackend 项目集合的持久化后端
// 集合以单个 JSON 数组整体读写，不支持部分写入
type CollectionBackend interface {
	// Name 后端名称，用于日志和指标
	Name() string

	// Load 读取整个集合，集合不存在时返回 nil
	Load(ctx context.Context) ([]byte, error)

	// Save 整体覆盖写入集合
	Save(ctx context.Context, data []byte) error

	// Ping 检查后端可用性
	Ping(ctx context.Context) error
}

// AtomicCollectionBackend 支持跨进程原子读改写的集合后端
// api-gateway 与 job-worker 共享同一后端时，写操作通过 Mutate 保证不丢更新
type AtomicCollectionBackend interface {
	CollectionBackend

	// Mutate 在后端事务内读取集合并写回 fn 的结果，fn 返回 nil 表示无需写回
	// fn 可能因冲突重试被多次调用
	Mutate(ctx context.Context, fn func(data []byte) ([]byte, error)) error
}
