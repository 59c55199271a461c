package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/domain/repository"
	apperrors "yt-ebook-api/pkg/errors"
	"yt-ebook-api/pkg/logger"
)

// Launcher 启动一次生成
// 返回的 Run 为 nil 表示运行在其他进程中执行
type Launcher interface {
	Launch(ctx context.Context, projectID string) (*Run, error)
}

// LocalLauncher 在本进程的 goroutine 中执行流水线
type LocalLauncher struct {
	pipeline *Pipeline
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewLocalLauncher 创建本地启动器；timeout<=0 表示不限时
func NewLocalLauncher(p *Pipeline, timeout time.Duration) *LocalLauncher {
	return &LocalLauncher{pipeline: p, timeout: timeout}
}

// Launch 同步完成入口迁移，阶段在后台执行；运行不随请求 ctx 取消
func (l *LocalLauncher) Launch(ctx context.Context, projectID string) (*Run, error) {
	run, err := l.pipeline.Begin(ctx, projectID)
	if err != nil {
		return run, err
	}

	runCtx := context.WithoutCancel(ctx)
	cancel := context.CancelFunc(func() {})
	if l.timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, l.timeout)
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer cancel()
		_ = l.pipeline.Resume(runCtx, run)
	}()
	return run, nil
}

// Wait 等待所有后台运行结束
func (l *LocalLauncher) Wait() {
	l.wg.Wait()
}

// JobPublisher 生成任务投递
type JobPublisher interface {
	PublishGenerateBook(ctx context.Context, projectID string) (string, error)
}

// StreamLauncher 把生成任务投递到消息流，由 job-worker 执行
type StreamLauncher struct {
	store     repository.ProjectRepository
	publisher JobPublisher
}

// NewStreamLauncher 创建消息流启动器
func NewStreamLauncher(store repository.ProjectRepository, publisher JobPublisher) *StreamLauncher {
	return &StreamLauncher{store: store, publisher: publisher}
}

// Launch 投递前检查项目状态，最终的 pending 校验由 worker 内的 Begin 完成
func (l *StreamLauncher) Launch(ctx context.Context, projectID string) (*Run, error) {
	project, err := l.store.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != entity.ProjectStatusPending {
		return nil, apperrors.ErrProjectNotPending.WithDetail(fmt.Sprintf("project %s is %s", projectID, project.Status))
	}

	id, err := l.publisher.PublishGenerateBook(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("queue generation job: %w", err)
	}
	logger.Info(ctx, "generation job queued", "project_id", projectID, "message_id", id)
	return nil, nil
}

// HandleJob 消息流任务处理
// 只有存储类错误返回给消费者触发重投；重复投递与阶段失败都视为已处理
func (p *Pipeline) HandleJob(ctx context.Context, projectID string) error {
	_, err := p.Execute(ctx, projectID)
	switch {
	case err == nil:
		return nil
	case apperrors.IsCode(err, apperrors.CodeProjectNotPending),
		apperrors.IsCode(err, apperrors.CodeProjectNotFound),
		apperrors.IsCode(err, apperrors.CodePipelineStageFailed):
		logger.Warn(ctx, "generation job finished without completing", "project_id", projectID, "error", err.Error())
		return nil
	default:
		return err
	}
}
