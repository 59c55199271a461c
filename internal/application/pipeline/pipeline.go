package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/domain/repository"
	apperrors "yt-ebook-api/pkg/errors"
	"yt-ebook-api/pkg/logger"
	"yt-ebook-api/pkg/metrics"
	"yt-ebook-api/pkg/tracer"
)

// ContentGateway 流水线用到的网关操作
type ContentGateway interface {
	FetchVideoInfo(ctx context.Context, videoID string) (*entity.VideoRef, error)
	GetTranscript(ctx context.Context, videoID string) (string, bool, error)
	GenerateBookContent(ctx context.Context, videos []entity.VideoRef, settings entity.Settings) (*entity.BookContent, error)
}

// StageError 阶段执行失败
type StageError struct {
	Stage Stage
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// Pipeline 生成流水线
type Pipeline struct {
	store      repository.ProjectRepository
	gateway    ContentGateway
	runs       *Registry
	stageDelay time.Duration
	now        func() time.Time
}

// Option 流水线选项
type Option func(*Pipeline)

// WithStageDelay analyze/structure 阶段的模拟耗时
func WithStageDelay(d time.Duration) Option {
	return func(p *Pipeline) {
		p.stageDelay = d
	}
}

// WithRegistry 共享运行注册表
func WithRegistry(r *Registry) Option {
	return func(p *Pipeline) {
		p.runs = r
	}
}

// WithClock 替换时间源
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New 创建流水线
func New(store repository.ProjectRepository, gateway ContentGateway, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:   store,
		gateway: gateway,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.runs == nil {
		p.runs = NewRegistry()
	}
	return p
}

// Registry 运行注册表
func (p *Pipeline) Registry() *Registry {
	return p.runs
}

// Execute 同步执行完整流水线
func (p *Pipeline) Execute(ctx context.Context, projectID string) (*Run, error) {
	run, err := p.Begin(ctx, projectID)
	if err != nil {
		return run, err
	}
	return run, p.Resume(ctx, run)
}

// Begin 把项目从 pending 原子迁移到 processing 并登记运行
// 项目不是 pending（包括并发的第二次调用）时为空操作：向调用方的运行日志追加一条错误并返回 ErrProjectNotPending
func (p *Pipeline) Begin(ctx context.Context, projectID string) (*Run, error) {
	ctx = logger.WithContext(ctx, logger.ProjectIDKey, projectID)

	if cur, ok := p.runs.Active(projectID); ok {
		return cur, p.reject(ctx, cur, entity.ProjectStatusProcessing, false)
	}

	run := newRun(projectID, p.now)
	project, err := p.store.Update(ctx, projectID, repository.StatusPatch(entity.ProjectStatusProcessing))
	if err != nil {
		var te *entity.TransitionError
		if errors.As(err, &te) {
			return run, p.reject(ctx, run, te.From, true)
		}
		return nil, err
	}

	if cur, ok := p.runs.register(run); !ok {
		return cur, p.reject(ctx, cur, entity.ProjectStatusProcessing, false)
	}
	run.project = project
	run.info("AI による電子書籍生成を開始しました")
	logger.Info(ctx, "generation started", "videos", len(project.Videos))
	return run, nil
}

func (p *Pipeline) reject(ctx context.Context, run *Run, status entity.ProjectStatus, standalone bool) error {
	err := apperrors.ErrProjectNotPending.WithDetail(fmt.Sprintf("project %s is %s", run.projectID, status))
	run.fail(fmt.Sprintf("生成を開始できません: プロジェクトの状態が %s です", status))
	if standalone {
		run.finish(OutcomeRejected, err)
	}
	metrics.PipelineRunsTotal.WithLabelValues(string(OutcomeRejected)).Inc()
	logger.Warn(ctx, "generation rejected", "status", string(status))
	return err
}

// Resume 依次执行各阶段；任一阶段失败时项目置为 error 并停止
// ctx 在阶段之间检查，取消按阶段失败处理
func (p *Pipeline) Resume(ctx context.Context, run *Run) error {
	ctx = logger.WithContext(ctx, logger.ProjectIDKey, run.projectID)
	ctx, span := tracer.Start(ctx, "pipeline.Run",
		trace.WithAttributes(attribute.String("project.id", run.projectID)))
	defer span.End()

	for i, stage := range Stages {
		if err := ctx.Err(); err != nil {
			return p.abort(ctx, run, stage, err)
		}
		run.enter(i)
		if err := p.runStage(ctx, run, stage); err != nil {
			span.RecordError(err)
			return p.abort(ctx, run, stage, err)
		}
	}

	run.success("電子書籍の生成が完了しました！")
	run.finish(OutcomeCompleted, nil)
	metrics.PipelineRunsTotal.WithLabelValues(string(OutcomeCompleted)).Inc()
	logger.Info(ctx, "generation completed",
		"chapters", len(run.project.Chapters),
		"total_chars", run.project.TotalChars,
	)
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, run *Run, stage Stage) (err error) {
	ctx = logger.WithContext(ctx, logger.StageKey, string(stage))
	ctx, span := tracer.Start(ctx, "pipeline.stage."+string(stage))
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		metrics.PipelineStageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
		tracer.End(span, err)
	}()

	switch stage {
	case StageFetch:
		return p.fetch(ctx, run)
	case StageAnalyze:
		return p.analyze(ctx, run)
	case StageStructure:
		return p.structure(ctx, run)
	case StageGenerate:
		return p.generate(ctx, run)
	case StageEnhance:
		return p.enhance(ctx, run)
	case StageFinalize:
		return p.finalize(ctx, run)
	}
	return fmt.Errorf("unknown stage %q", stage)
}

// abort 记录失败并把项目置为 error；状态写入不受 ctx 取消影响
func (p *Pipeline) abort(ctx context.Context, run *Run, stage Stage, cause error) error {
	stageErr := &StageError{Stage: stage, Cause: cause}
	run.fail("エラーが発生しました: " + cause.Error())

	writeCtx := context.WithoutCancel(ctx)
	if _, err := p.store.Update(writeCtx, run.projectID, repository.StatusPatch(entity.ProjectStatusError)); err != nil {
		logger.Error(writeCtx, "failed to mark project as error", err, "stage", string(stage))
	}

	appErr := apperrors.ErrStageFailed.WithDetail(stageErr.Error()).WithError(stageErr)
	run.finish(OutcomeError, appErr)
	metrics.PipelineRunsTotal.WithLabelValues(string(OutcomeError)).Inc()
	logger.Error(writeCtx, "generation failed", cause, "stage", string(stage))
	return appErr
}

// fetch 逐个获取视频元数据，无字幕时再取字幕；单个视频失败只记日志
func (p *Pipeline) fetch(ctx context.Context, run *Run) error {
	run.info("動画情報の取得を開始")

	videos := make([]entity.VideoRef, 0, len(run.project.Videos))
	for _, v := range run.project.Videos {
		if err := ctx.Err(); err != nil {
			return err
		}
		videos = append(videos, p.fetchVideo(ctx, run, v))
	}

	project, err := p.store.Update(ctx, run.projectID, repository.ProjectPatch{Videos: &videos})
	if err != nil {
		return err
	}
	run.project = project
	return nil
}

func (p *Pipeline) fetchVideo(ctx context.Context, run *Run, v entity.VideoRef) entity.VideoRef {
	info, err := p.gateway.FetchVideoInfo(ctx, v.ID)
	if err != nil {
		run.fail(fmt.Sprintf("「%s」の情報取得に失敗しました: %v", videoLabel(v), err))
		logger.Warn(ctx, "video info unavailable", "video_id", v.ID, "error", err.Error())
		return v
	}

	merged := v.Merge(*info)
	if !merged.HasTranscript() {
		text, ok, err := p.gateway.GetTranscript(ctx, v.ID)
		switch {
		case err != nil:
			logger.Warn(ctx, "transcript unavailable", "video_id", v.ID, "error", err.Error())
		case ok:
			merged.Transcript = &text
		}
	}
	run.success(fmt.Sprintf("「%s」の情報を取得完了", videoLabel(merged)))
	return merged
}

func (p *Pipeline) analyze(ctx context.Context, run *Run) error {
	run.info("AI による動画内容の分析を開始")
	if err := sleep(ctx, p.stageDelay); err != nil {
		return err
	}
	run.success(fmt.Sprintf("%d本の動画を分析完了", len(run.project.Videos)))
	return nil
}

func (p *Pipeline) structure(ctx context.Context, run *Run) error {
	run.info("最適な章構成を計画中")
	if err := sleep(ctx, p.stageDelay); err != nil {
		return err
	}
	run.success("章構成の生成完了")
	return nil
}

// generate 唯一产生章节的阶段，结果整体替换项目章节
func (p *Pipeline) generate(ctx context.Context, run *Run) error {
	run.info("AI によるコンテンツ生成を開始")

	book, err := p.gateway.GenerateBookContent(ctx, run.project.Videos, run.project.Settings)
	if err != nil {
		return err
	}
	chapters := entity.NormalizeChapters(book.Chapters)
	if len(chapters) == 0 {
		return fmt.Errorf("generated book has no chapters")
	}

	project, err := p.store.Update(ctx, run.projectID, repository.ProjectPatch{Chapters: &chapters})
	if err != nil {
		return err
	}
	run.project = project
	metrics.BookChars.Observe(float64(project.TotalChars))

	printer := message.NewPrinter(languageTag(project.Settings.Language))
	run.success(printer.Sprintf("%d文字のコンテンツを生成", project.TotalChars))
	run.success(fmt.Sprintf("%d章の構成を完了", len(project.Chapters)))
	return nil
}

// enhance 只标记 aiEnhanced，章节级增强由编辑器按需触发
func (p *Pipeline) enhance(ctx context.Context, run *Run) error {
	run.info("コンテンツの品質向上を実行中")
	if !run.project.Settings.AIEnhancement {
		run.info("AI 品質向上は無効のためスキップしました")
		return nil
	}

	enhanced := true
	project, err := p.store.Update(ctx, run.projectID, repository.ProjectPatch{AIEnhanced: &enhanced})
	if err != nil {
		return err
	}
	run.project = project
	run.success("読みやすさと品質の最適化完了")
	return nil
}

func (p *Pipeline) finalize(ctx context.Context, run *Run) error {
	run.info("電子書籍形式への変換を開始")

	status := entity.ProjectStatusCompleted
	generatedAt := p.now().UTC()
	project, err := p.store.Update(ctx, run.projectID, repository.ProjectPatch{
		Status:      &status,
		GeneratedAt: &generatedAt,
	})
	if err != nil {
		return err
	}
	run.project = project
	return nil
}

func videoLabel(v entity.VideoRef) string {
	if v.Title != "" {
		return v.Title
	}
	return v.ID
}

func languageTag(tag string) language.Tag {
	t, err := language.Parse(tag)
	if err != nil {
		return language.Japanese
	}
	return t
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
