// Package store 提供基于 JSON 集合的项目仓储实现
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/domain/repository"
	apperrors "yt-ebook-api/pkg/errors"
	"yt-ebook-api/pkg/logger"
	"yt-ebook-api/pkg/metrics"
	"yt-ebook-api/pkg/tracer"
)

// ProjectStore 项目仓储实现
// 所有写操作在同一把锁内完成：读取整个集合 -> 修改 -> 整体写回
// 后端实现 AtomicCollectionBackend 时读改写同时在后端事务内完成
type ProjectStore struct {
	backend repository.CollectionBackend
	mu      sync.Mutex
	now     func() time.Time
}

var _ repository.ProjectRepository = (*ProjectStore)(nil)

// Option 仓储选项
type Option func(*ProjectStore)

// WithClock 替换时间源
func WithClock(now func() time.Time) Option {
	return func(s *ProjectStore) {
		s.now = now
	}
}

// New 创建项目仓储
func New(backend repository.CollectionBackend, opts ...Option) *ProjectStore {
	s := &ProjectStore{
		backend: backend,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend 返回底层集合后端
func (s *ProjectStore) Backend() repository.CollectionBackend {
	return s.backend
}

// List 按创建顺序获取项目列表
func (s *ProjectStore) List(ctx context.Context, filter *repository.ProjectFilter) ([]*entity.Project, error) {
	ctx, span := tracer.Start(ctx, "store.List")
	defer span.End()

	s.mu.Lock()
	projects, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := make([]*entity.Project, 0, len(projects))
	for _, p := range projects {
		if filter.Match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Create 创建项目
func (s *ProjectStore) Create(ctx context.Context, title string, videos []entity.VideoRef, settings entity.Settings) (*entity.Project, error) {
	ctx, span := tracer.Start(ctx, "store.Create")
	defer span.End()

	if strings.TrimSpace(title) == "" {
		return nil, apperrors.Validation("title must not be blank")
	}
	if len(videos) == 0 {
		return nil, apperrors.Validation("at least one video is required")
	}
	for i, v := range videos {
		if strings.TrimSpace(v.ID) == "" {
			return nil, apperrors.Validation("video #%d has no id", i+1)
		}
	}
	if err := settings.Validate(); err != nil {
		return nil, apperrors.Validation("invalid settings: %v", err)
	}

	project := entity.NewProject(title, videos, settings, s.now())
	err := s.mutate(ctx, func(projects []*entity.Project) ([]*entity.Project, error) {
		for indexOf(projects, project.ID) >= 0 {
			project.ID = entity.NewProjectID(project.CreatedAt)
		}
		return append(projects, project), nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("project.id", project.ID))

	logger.Info(ctx, "project created", "project_id", project.ID, "videos", len(project.Videos))
	return project.Clone(), nil
}

// Get 根据 ID 获取项目
func (s *ProjectStore) Get(ctx context.Context, id string) (*entity.Project, error) {
	ctx, span := tracer.Start(ctx, "store.Get",
		trace.WithAttributes(attribute.String("project.id", id)))
	defer span.End()

	s.mu.Lock()
	projects, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	idx := indexOf(projects, id)
	if idx < 0 {
		return nil, apperrors.ErrProjectNotFound.WithDetail(id)
	}
	return projects[idx], nil
}

// Update 按字段合并更新项目
func (s *ProjectStore) Update(ctx context.Context, id string, patch repository.ProjectPatch) (*entity.Project, error) {
	ctx, span := tracer.Start(ctx, "store.Update",
		trace.WithAttributes(attribute.String("project.id", id)))
	defer span.End()

	var updated *entity.Project
	err := s.mutate(ctx, func(projects []*entity.Project) ([]*entity.Project, error) {
		idx := indexOf(projects, id)
		if idx < 0 {
			return nil, apperrors.ErrProjectNotFound.WithDetail(id)
		}
		updated = projects[idx].Clone()
		if err := applyPatch(updated, patch, s.now()); err != nil {
			return nil, err
		}
		projects[idx] = updated
		return projects, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return updated.Clone(), nil
}

// Delete 删除项目，ID 不存在时为空操作
func (s *ProjectStore) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "store.Delete",
		trace.WithAttributes(attribute.String("project.id", id)))
	defer span.End()

	deleted := false
	err := s.mutate(ctx, func(projects []*entity.Project) ([]*entity.Project, error) {
		idx := indexOf(projects, id)
		deleted = idx >= 0
		if !deleted {
			return nil, nil
		}
		return append(projects[:idx], projects[idx+1:]...), nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	if deleted {
		logger.Info(ctx, "project deleted", "project_id", id)
	}
	return nil
}

// Stats 获取项目概览统计
func (s *ProjectStore) Stats(ctx context.Context) (*entity.DashboardStats, error) {
	projects, err := s.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	return entity.ComputeStats(projects), nil
}

// applyPatch 在副本上应用补丁，失败时副本被丢弃
func applyPatch(p *entity.Project, patch repository.ProjectPatch, now time.Time) error {
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return apperrors.Validation("title must not be blank")
		}
		p.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Videos != nil {
		if len(*patch.Videos) == 0 {
			return apperrors.Validation("at least one video is required")
		}
		p.Videos = entity.DedupeVideos(*patch.Videos)
	}
	if patch.Settings != nil {
		if err := patch.Settings.Validate(); err != nil {
			return apperrors.Validation("invalid settings: %v", err)
		}
		p.Settings = patch.Settings.Clone()
	}
	if patch.Status != nil {
		if err := p.Transition(*patch.Status); err != nil {
			return apperrors.ErrInvalidTransition.WithDetail(err.Error()).WithError(err)
		}
	}
	if patch.GeneratedAt != nil {
		t := *patch.GeneratedAt
		p.GeneratedAt = &t
	}
	if patch.AIEnhanced != nil {
		p.AIEnhanced = *patch.AIEnhanced
	}
	if patch.Chapters != nil {
		chapters := make([]entity.Chapter, len(*patch.Chapters))
		for i, ch := range *patch.Chapters {
			chapters[i] = ch.Clone()
			chapters[i].SetContent(chapters[i].Content)
		}
		p.Chapters = chapters
	}
	for _, cp := range patch.ChapterPatches {
		ch, ok := p.Chapter(cp.ID)
		if !ok {
			return apperrors.ErrChapterNotFound.WithDetail(fmt.Sprintf("chapter %d of project %s", cp.ID, p.ID))
		}
		if cp.Title != nil {
			ch.Title = *cp.Title
			ch.Touch(now)
		}
		if cp.Content != nil {
			ch.SetContent(*cp.Content)
			ch.Touch(now)
		}
		if cp.AppliedEnhancements != nil {
			ch.AppliedEnhancements = append([]string(nil), (*cp.AppliedEnhancements)...)
		}
		if cp.LastEnhanced != nil {
			t := *cp.LastEnhanced
			ch.LastEnhanced = &t
		}
	}
	p.RecalculateTotals()
	return nil
}

// mutate 在锁内执行读取 -> 修改 -> 整体写回，fn 返回 nil 切片表示无需写回
func (s *ProjectStore) mutate(ctx context.Context, fn func([]*entity.Project) ([]*entity.Project, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if atomic, ok := s.backend.(repository.AtomicCollectionBackend); ok {
		start := time.Now()
		written := false
		err := atomic.Mutate(ctx, func(data []byte) ([]byte, error) {
			written = false
			projects, err := decode(data)
			if err != nil {
				return nil, err
			}
			next, err := fn(projects)
			if err != nil || next == nil {
				return nil, err
			}
			written = true
			return encode(next)
		})
		if err != nil && !apperrors.IsAppError(err) {
			err = apperrors.Wrap(err, apperrors.CodeStorageError, "failed to persist project collection")
		}
		if written || err != nil {
			s.observe(ctx, start, err)
		}
		return err
	}

	projects, err := s.load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(projects)
	if err != nil || next == nil {
		return err
	}
	return s.save(ctx, next)
}

// load 读取并解析整个集合，调用方必须持有锁
func (s *ProjectStore) load(ctx context.Context) ([]*entity.Project, error) {
	data, err := s.backend.Load(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorageError, "failed to load project collection")
	}
	return decode(data)
}

// save 序列化并整体写回集合，调用方必须持有锁
func (s *ProjectStore) save(ctx context.Context, projects []*entity.Project) error {
	start := time.Now()
	data, err := encode(projects)
	if err == nil {
		if err = s.backend.Save(ctx, data); err != nil {
			err = apperrors.Wrap(err, apperrors.CodeStorageError, "failed to persist project collection")
		}
	}
	s.observe(ctx, start, err)
	return err
}

func (s *ProjectStore) observe(ctx context.Context, start time.Time, err error) {
	backend := s.backend.Name()
	if err != nil {
		metrics.StorePersistTotal.WithLabelValues(backend, "error").Inc()
		if apperrors.IsCode(err, apperrors.CodeStorageError) {
			logger.Error(ctx, "failed to persist project collection", err, "backend", backend)
		}
		return
	}
	metrics.StorePersistTotal.WithLabelValues(backend, "success").Inc()
	metrics.StorePersistDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
}

func decode(data []byte) ([]*entity.Project, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []*entity.Project{}, nil
	}
	var projects []*entity.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorageError, "failed to decode project collection")
	}
	return projects, nil
}

func encode(projects []*entity.Project) ([]byte, error) {
	data, err := json.Marshal(projects)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorageError, "failed to encode project collection")
	}
	return data, nil
}

func indexOf(projects []*entity.Project, id string) int {
	for i, p := range projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}
