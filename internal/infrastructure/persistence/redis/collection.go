package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"yt-ebook-api/internal/domain/repository"
)

var _ repository.AtomicCollectionBackend = (*CollectionBackend)(nil)

// CollectionBackend 将整个项目集合存放在单个 Redis 字符串键中
type CollectionBackend struct {
	client *Client
	key    string
}

// NewCollectionBackend 创建 Redis 集合后端
func NewCollectionBackend(client *Client, keyPrefix, collection string) *CollectionBackend {
	return &CollectionBackend{
		client: client,
		key:    keyPrefix + collection,
	}
}

func (b *CollectionBackend) Name() string { return "redis" }

// Key 返回集合所在的键
func (b *CollectionBackend) Key() string { return b.key }

// Load 读取集合，键不存在视为空集合
func (b *CollectionBackend) Load(ctx context.Context) ([]byte, error) {
	data, err := b.client.GetBytes(ctx, b.key)
	if IsNil(err) {
		return nil, nil
	}
	return data, err
}

// Save 整体覆盖写入集合
func (b *CollectionBackend) Save(ctx context.Context, data []byte) error {
	return b.client.Set(ctx, b.key, data, 0)
}

func (b *CollectionBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx)
}

// maxMutateRetries WATCH 冲突时的最大重试次数
const maxMutateRetries = 10

// Mutate 使用 WATCH/MULTI 乐观事务完成读改写，冲突时重试
func (b *CollectionBackend) Mutate(ctx context.Context, fn func(data []byte) ([]byte, error)) error {
	ctx, span := tracer.Start(ctx, "redis.CollectionMutate")
	defer span.End()

	for attempt := 0; attempt < maxMutateRetries; attempt++ {
		err := b.client.rdb.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, b.key).Bytes()
			if err != nil && !IsNil(err) {
				return err
			}
			next, err := fn(data)
			if err != nil || next == nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, b.key, next, 0)
				return nil
			})
			return err
		}, b.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			span.RecordError(err)
		}
		return err
	}
	return fmt.Errorf("collection %s: too many concurrent writers", b.key)
}
