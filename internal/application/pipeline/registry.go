package pipeline

import (
	"sync"

	apperrors "yt-ebook-api/pkg/errors"
)

// Registry 按项目 ID 保存最近一次运行，供 HTTP 层查询进度与订阅日志
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewRegistry 创建运行注册表
func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*Run)}
}

// Get 获取项目最近一次运行
func (r *Registry) Get(projectID string) (*Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[projectID]
	if !ok {
		return nil, apperrors.ErrRunNotFound.WithDetail(projectID)
	}
	return run, nil
}

// Active 获取项目正在进行的运行
func (r *Registry) Active(projectID string) (*Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[projectID]
	if !ok || !run.active() {
		return nil, false
	}
	return run, true
}

// register 登记运行；已有进行中的运行时返回它和 false
func (r *Registry) register(run *Run) (*Run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.runs[run.projectID]; ok && cur.active() && cur != run {
		return cur, false
	}
	r.runs[run.projectID] = run
	return run, true
}

// Forget 移除项目的运行记录（项目删除时调用）
func (r *Registry) Forget(projectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, projectID)
}
