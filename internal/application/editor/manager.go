package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/domain/repository"
	apperrors "yt-ebook-api/pkg/errors"
	"yt-ebook-api/pkg/logger"
	"yt-ebook-api/pkg/metrics"
)

// ProjectReader 打开会话时读取章节
type ProjectReader interface {
	ChapterWriter
	Get(ctx context.Context, id string) (*entity.Project, error)
}

var _ ProjectReader = (repository.ProjectRepository)(nil)

type sessionKey struct {
	projectID string
	chapterID int
}

// Manager 按 (项目, 章节) 管理编辑会话
// 同一章节只有一个会话，不同章节的会话各自写入互不相交的章节
type Manager struct {
	store    ProjectReader
	gateway  ContentGateway
	debounce time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[sessionKey]*Session
}

// NewManager 创建会话管理器；debounce<=0 时使用默认值
func NewManager(store ProjectReader, gateway ContentGateway, debounce time.Duration) *Manager {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Manager{
		store:    store,
		gateway:  gateway,
		debounce: debounce,
		now:      time.Now,
		sessions: make(map[sessionKey]*Session),
	}
}

// Debounce 防抖窗口
func (m *Manager) Debounce() time.Duration {
	return m.debounce
}

// Open 获取或创建章节会话
func (m *Manager) Open(ctx context.Context, projectID string, chapterID int) (*Session, error) {
	key := sessionKey{projectID: projectID, chapterID: chapterID}

	m.mu.Lock()
	if s, ok := m.sessions[key]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	project, err := m.store.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	chapter, ok := project.Chapter(chapterID)
	if !ok {
		return nil, apperrors.ErrChapterNotFound.WithDetail(fmt.Sprintf("chapter %d of project %s", chapterID, projectID))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[key]; ok {
		return s, nil
	}
	s := newSession(projectID, *chapter, m.store, m.gateway, m.debounce, m.now)
	m.sessions[key] = s
	metrics.EditorSessionsActive.Inc()
	logger.Debug(ctx, "editor session opened", "project_id", projectID, "chapter_id", chapterID)
	return s, nil
}

// Get 获取已打开的会话
func (m *Manager) Get(projectID string, chapterID int) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionKey{projectID: projectID, chapterID: chapterID}]
	return s, ok
}

// Close 保存待保存字段并关闭会话
func (m *Manager) Close(ctx context.Context, projectID string, chapterID int) error {
	key := sessionKey{projectID: projectID, chapterID: chapterID}
	m.mu.Lock()
	s, ok := m.sessions[key]
	delete(m.sessions, key)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	metrics.EditorSessionsActive.Dec()
	return s.close(ctx)
}

// Discard 丢弃项目的全部会话，不保存（项目已删除或章节被整体替换时使用）
func (m *Manager) Discard(projectID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, s := range m.sessions {
		if key.projectID != projectID {
			continue
		}
		s.discard()
		delete(m.sessions, key)
		metrics.EditorSessionsActive.Dec()
	}
}

// CloseAll 关闭全部会话（进程退出时调用）
func (m *Manager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[sessionKey]*Session)
	m.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		metrics.EditorSessionsActive.Dec()
		if err := s.close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FlushProject 立即保存项目所有会话的待保存字段，会话保持打开（导出前调用）
func (m *Manager) FlushProject(ctx context.Context, projectID string) error {
	m.mu.Lock()
	var sessions []*Session
	for key, s := range m.sessions {
		if key.projectID == projectID {
			sessions = append(sessions, s)
		}
	}
	m.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
