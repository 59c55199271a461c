package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/domain/repository"
	apperrors "yt-ebook-api/pkg/errors"
	"yt-ebook-api/pkg/logger"
	"yt-ebook-api/pkg/metrics"
)

// DefaultDebounce 默认防抖窗口
const DefaultDebounce = time.Second

// ContentGateway 编辑器用到的网关操作
type ContentGateway interface {
	GenerateSegment(ctx context.Context, chapterTitle, existingContent string, targetChars int) (*entity.Segment, error)
	EnhanceChapter(ctx context.Context, chapter entity.Chapter, enhancementIDs []string) (*entity.Chapter, error)
}

// ChapterWriter 章节持久化
type ChapterWriter interface {
	Update(ctx context.Context, id string, patch repository.ProjectPatch) (*entity.Project, error)
}

// Field 防抖保存的字段
type Field string

const (
	FieldContent Field = "content"
	FieldTitle   Field = "title"
)

var fields = []Field{FieldContent, FieldTitle}

type pendingWrite struct {
	gen   uint64
	timer *time.Timer
}

// Session 单个章节的编辑会话
// 每个字段至多一个待执行的保存，新的编辑取消并重新调度；不同字段互不影响
type Session struct {
	projectID string
	chapterID int
	store     ChapterWriter
	gateway   ContentGateway
	debounce  time.Duration
	now       func() time.Time
	baseCtx   context.Context

	// writeMu 按字段串行化写库，较新的写入不会与较旧的并发
	writeMu map[Field]*sync.Mutex

	mu      sync.Mutex
	chapter entity.Chapter
	gens    map[Field]uint64
	pending map[Field]*pendingWrite
	closed  bool
}

func newSession(projectID string, chapter entity.Chapter, store ChapterWriter, gateway ContentGateway, debounce time.Duration, now func() time.Time) *Session {
	ctx := logger.WithContext(context.Background(), logger.ProjectIDKey, projectID)
	ctx = logger.WithContext(ctx, logger.ChapterIDKey, chapter.ID)
	return &Session{
		projectID: projectID,
		chapterID: chapter.ID,
		store:     store,
		gateway:   gateway,
		debounce:  debounce,
		now:       now,
		baseCtx:   ctx,
		writeMu:   map[Field]*sync.Mutex{FieldContent: {}, FieldTitle: {}},
		chapter:   chapter.Clone(),
		gens:      make(map[Field]uint64, len(fields)),
		pending:   make(map[Field]*pendingWrite, len(fields)),
	}
}

// View 会话当前状态
type View struct {
	ProjectID string         `json:"projectId"`
	Chapter   entity.Chapter `json:"chapter"`
	Metrics   Metrics        `json:"metrics"`
	Pending   []Field        `json:"pending"`
}

// View 返回当前章节副本、派生指标与待保存字段
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{
		ProjectID: s.projectID,
		Chapter:   s.chapter.Clone(),
		Metrics:   Measure(s.chapter.Content),
		Pending:   []Field{},
	}
	for _, f := range fields {
		if s.pending[f] != nil {
			v.Pending = append(v.Pending, f)
		}
	}
	return v
}

// SetContent 立即更新内存内容并调度防抖保存
func (s *Session) SetContent(text string) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chapter.SetContent(text)
	s.scheduleLocked(FieldContent)
	return s.viewLocked()
}

// SetTitle 立即更新内存标题并调度防抖保存，计时器独立于内容
func (s *Session) SetTitle(text string) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chapter.Title = text
	s.scheduleLocked(FieldTitle)
	return s.viewLocked()
}

func (s *Session) scheduleLocked(f Field) {
	if s.closed {
		return
	}
	s.cancelLocked(f)
	s.gens[f]++
	gen := s.gens[f]
	s.pending[f] = &pendingWrite{
		gen:   gen,
		timer: time.AfterFunc(s.debounce, func() { s.fire(f, gen) }),
	}
}

// cancelLocked 取消字段的待保存，返回是否存在
func (s *Session) cancelLocked(f Field) bool {
	p := s.pending[f]
	if p == nil {
		return false
	}
	p.timer.Stop()
	delete(s.pending, f)
	return true
}

// fire 计时器回调；代数不匹配说明已被更新的编辑取代
func (s *Session) fire(f Field, gen uint64) {
	s.writeMu[f].Lock()
	defer s.writeMu[f].Unlock()

	s.mu.Lock()
	p := s.pending[f]
	if p == nil || p.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.pending, f)
	value := s.valueLocked(f)
	s.mu.Unlock()

	_ = s.write(s.baseCtx, f, value)
}

// Flush 立即保存所有待保存字段
func (s *Session) Flush(ctx context.Context) error {
	var errs []error
	for _, f := range fields {
		if err := s.flushField(ctx, f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Session) flushField(ctx context.Context, f Field) error {
	s.writeMu[f].Lock()
	defer s.writeMu[f].Unlock()

	s.mu.Lock()
	if !s.cancelLocked(f) {
		s.mu.Unlock()
		return nil
	}
	value := s.valueLocked(f)
	s.mu.Unlock()

	if err := s.write(ctx, f, value); err != nil {
		s.mu.Lock()
		s.scheduleLocked(f)
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Session) valueLocked(f Field) string {
	if f == FieldTitle {
		return s.chapter.Title
	}
	return s.chapter.Content
}

func (s *Session) write(ctx context.Context, f Field, value string) error {
	patch := repository.ChapterPatch{ID: s.chapterID}
	switch f {
	case FieldContent:
		patch.Content = &value
	case FieldTitle:
		patch.Title = &value
	}
	return s.persist(ctx, string(f), patch)
}

func (s *Session) persist(ctx context.Context, label string, patch repository.ChapterPatch) error {
	project, err := s.store.Update(ctx, s.projectID, repository.ProjectPatch{
		ChapterPatches: []repository.ChapterPatch{patch},
	})
	if err != nil {
		metrics.EditorPersistTotal.WithLabelValues(label, "error").Inc()
		logger.Error(ctx, "failed to persist chapter", err, "field", label)
		return err
	}
	metrics.EditorPersistTotal.WithLabelValues(label, "success").Inc()

	if ch, ok := project.Chapter(s.chapterID); ok {
		s.mu.Lock()
		s.chapter.LastModified = ch.LastModified
		s.mu.Unlock()
	}
	return nil
}

// AppendGeneratedSegment 生成片段并追加到当前内容，立即保存
// 网关或保存失败时章节保持不变
func (s *Session) AppendGeneratedSegment(ctx context.Context, targetChars int) (View, error) {
	s.mu.Lock()
	title, content := s.chapter.Title, s.chapter.Content
	s.mu.Unlock()

	seg, err := s.gateway.GenerateSegment(ctx, title, content, targetChars)
	if err != nil {
		return s.View(), err
	}

	s.writeMu[FieldContent].Lock()
	defer s.writeMu[FieldContent].Unlock()

	s.mu.Lock()
	prev := s.chapter.Clone()
	hadPending := s.cancelLocked(FieldContent)
	s.chapter.SetContent(s.chapter.Content + seg.Content)
	next := s.chapter.Content
	s.mu.Unlock()

	if err := s.persist(ctx, "segment", repository.ChapterPatch{ID: s.chapterID, Content: &next}); err != nil {
		s.rollback(prev, next, hadPending)
		return s.View(), err
	}
	logger.Info(ctx, "segment appended", "project_id", s.projectID, "chapter_id", s.chapterID, "chars", entity.CharCount(seg.Content))
	return s.View(), nil
}

// ApplyEnhancements 应用增强项并替换整章内容，立即保存
// 增强项为空或未知时在调用网关前返回校验错误；失败时章节保持不变
// 调用期间内容被编辑时丢弃增强结果并返回冲突，新编辑保持待保存
func (s *Session) ApplyEnhancements(ctx context.Context, enhancementIDs []string) (View, error) {
	ids := entity.DedupeEnhancementIDs(enhancementIDs)
	if len(ids) == 0 {
		return s.View(), apperrors.Validation("at least one enhancement is required")
	}
	for _, id := range ids {
		if !entity.IsKnownEnhancement(id) {
			return s.View(), apperrors.Validation("unknown enhancement %q", id)
		}
	}

	s.mu.Lock()
	snapshot := s.chapter.Clone()
	s.mu.Unlock()

	enhanced, err := s.gateway.EnhanceChapter(ctx, snapshot, ids)
	if err != nil {
		return s.View(), err
	}

	s.writeMu[FieldContent].Lock()
	defer s.writeMu[FieldContent].Unlock()

	lastEnhanced := s.now().UTC()
	if enhanced.LastEnhanced != nil {
		lastEnhanced = *enhanced.LastEnhanced
	}
	applied := append([]string(nil), enhanced.AppliedEnhancements...)
	if len(applied) == 0 {
		applied = ids
	}

	s.mu.Lock()
	if s.chapter.Content != snapshot.Content {
		s.mu.Unlock()
		logger.Warn(ctx, "chapter edited during enhancement, result discarded", "project_id", s.projectID, "chapter_id", s.chapterID)
		return s.View(), apperrors.Newf(apperrors.CodeConflict, "chapter %d was edited while enhancing, retry on the latest content", s.chapterID)
	}
	prev := s.chapter.Clone()
	hadPending := s.cancelLocked(FieldContent)
	s.chapter.SetContent(enhanced.Content)
	s.chapter.AppliedEnhancements = applied
	s.chapter.LastEnhanced = &lastEnhanced
	next := s.chapter.Content
	s.mu.Unlock()

	patch := repository.ChapterPatch{
		ID:                  s.chapterID,
		Content:             &next,
		AppliedEnhancements: &applied,
		LastEnhanced:        &lastEnhanced,
	}
	if err := s.persist(ctx, "enhancement", patch); err != nil {
		s.rollback(prev, next, hadPending)
		return s.View(), err
	}
	logger.Info(ctx, "chapter enhanced", "project_id", s.projectID, "chapter_id", s.chapterID, "enhancements", applied)
	return s.View(), nil
}

// rollback 保存失败时恢复内存章节；期间若已有新的编辑则保留新编辑
func (s *Session) rollback(prev entity.Chapter, written string, hadPending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chapter.Content == written {
		s.chapter.SetContent(prev.Content)
		s.chapter.AppliedEnhancements = prev.AppliedEnhancements
		s.chapter.LastEnhanced = prev.LastEnhanced
	}
	if hadPending {
		s.scheduleLocked(FieldContent)
	}
}

// close 停止调度并保存待保存字段
func (s *Session) close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Flush(ctx)
}

// discard 丢弃待保存字段（项目已删除时使用）
func (s *Session) discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, f := range fields {
		s.cancelLocked(f)
	}
}
