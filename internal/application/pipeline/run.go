// Package pipeline 电子书生成流水线：把 pending 项目按固定阶段顺序转换为 completed 项目
package pipeline

import (
	"sync"
	"time"

	"yt-ebook-api/internal/domain/entity"
)

// Stage 流水线阶段
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageAnalyze   Stage = "analyze"
	StageStructure Stage = "structure"
	StageGenerate  Stage = "generate"
	StageEnhance   Stage = "enhance"
	StageFinalize  Stage = "finalize"
)

// Stages 阶段执行顺序
var Stages = []Stage{StageFetch, StageAnalyze, StageStructure, StageGenerate, StageEnhance, StageFinalize}

// StageInfo 阶段展示信息
type StageInfo struct {
	ID          Stage  `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var stageInfos = map[Stage]StageInfo{
	StageFetch:     {ID: StageFetch, Label: "動画情報取得", Description: "字幕とメタデータを取得中..."},
	StageAnalyze:   {ID: StageAnalyze, Label: "AI分析", Description: "動画内容をAIが分析中..."},
	StageStructure: {ID: StageStructure, Label: "章立て構成", Description: "最適な章構成を生成中..."},
	StageGenerate:  {ID: StageGenerate, Label: "コンテンツ生成", Description: "AI が本文を執筆中..."},
	StageEnhance:   {ID: StageEnhance, Label: "品質向上", Description: "読みやすさと品質を最適化中..."},
	StageFinalize:  {ID: StageFinalize, Label: "最終調整", Description: "電子書籍形式に変換中..."},
}

// StageCatalog 按执行顺序返回阶段展示信息
func StageCatalog() []StageInfo {
	out := make([]StageInfo, 0, len(Stages))
	for _, s := range Stages {
		out = append(out, stageInfos[s])
	}
	return out
}

// Outcome 运行结果
type Outcome string

const (
	OutcomeRunning   Outcome = "running"
	OutcomeCompleted Outcome = "completed"
	OutcomeError     Outcome = "error"
	OutcomeRejected  Outcome = "rejected"
)

// Run 单次流水线运行的状态：(stageIndex, running, log)
// 日志只追加，每条同时推送给订阅者
type Run struct {
	projectID string
	startedAt time.Time

	mu         sync.RWMutex
	stageIndex int
	running    bool
	outcome    Outcome
	err        error
	log        []entity.GenerationLogEntry
	finishedAt *time.Time

	done  chan struct{}
	subs  *broadcaster
	clock func() time.Time

	// project 运行期间的工作副本，每次写库后刷新
	project *entity.Project
}

func newRun(projectID string, now func() time.Time) *Run {
	return &Run{
		projectID: projectID,
		startedAt: now(),
		outcome:   OutcomeRunning,
		log:       []entity.GenerationLogEntry{},
		done:      make(chan struct{}),
		subs:      newBroadcaster(),
		clock:     now,
	}
}

// ProjectID 所属项目
func (r *Run) ProjectID() string { return r.projectID }

// Done 运行结束（完成、失败或被拒绝）时关闭
func (r *Run) Done() <-chan struct{} { return r.done }

// Err 运行结束后的错误，成功时为 nil
func (r *Run) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Outcome 当前运行结果
func (r *Run) Outcome() Outcome {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.outcome
}

// Log 返回日志副本
func (r *Run) Log() []entity.GenerationLogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entity.GenerationLogEntry(nil), r.log...)
}

// Progress 进度 (stageIndex + 0.5·running) / 阶段数，仅用于展示
func (r *Run) Progress() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return progress(r.stageIndex, r.running)
}

func progress(stageIndex int, running bool) float64 {
	v := float64(stageIndex)
	if running {
		v += 0.5
	}
	return v / float64(len(Stages))
}

// Snapshot 运行状态快照
type Snapshot struct {
	ProjectID    string                      `json:"projectId"`
	Stage        Stage                       `json:"stage"`
	StageIndex   int                         `json:"stageIndex"`
	Running      bool                        `json:"running"`
	Progress     float64                     `json:"progress"`
	Outcome      Outcome                     `json:"outcome"`
	Error        string                      `json:"error,omitempty"`
	Log          []entity.GenerationLogEntry `json:"log"`
	StartedAt    time.Time                   `json:"startedAt"`
	FinishedAt   *time.Time                  `json:"finishedAt,omitempty"`
	StageCatalog []StageInfo                 `json:"stages"`
}

// Snapshot 返回当前状态快照
func (r *Run) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Run) snapshotLocked() Snapshot {
	s := Snapshot{
		ProjectID:    r.projectID,
		StageIndex:   r.stageIndex,
		Running:      r.running,
		Progress:     progress(r.stageIndex, r.running),
		Outcome:      r.outcome,
		Log:          append([]entity.GenerationLogEntry(nil), r.log...),
		StartedAt:    r.startedAt,
		FinishedAt:   r.finishedAt,
		StageCatalog: StageCatalog(),
	}
	if r.stageIndex < len(Stages) {
		s.Stage = Stages[r.stageIndex]
	}
	if r.err != nil {
		s.Error = r.err.Error()
	}
	return s
}

// Watch 返回当前快照并订阅之后的日志，两者之间不会遗漏条目
// 运行结束时通道关闭；返回的 cancel 必须调用
func (r *Run) Watch() (Snapshot, <-chan entity.GenerationLogEntry, func()) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, cancel := r.subs.subscribe()
	return r.snapshotLocked(), ch, cancel
}

func (r *Run) append(severity entity.LogSeverity, message string) {
	entry := entity.GenerationLogEntry{Message: message, Severity: severity, Timestamp: r.clock()}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, entry)
	r.subs.publish(entry)
}

func (r *Run) info(message string)    { r.append(entity.LogSeverityInfo, message) }
func (r *Run) success(message string) { r.append(entity.LogSeveritySuccess, message) }
func (r *Run) fail(message string)    { r.append(entity.LogSeverityError, message) }

func (r *Run) enter(stageIndex int) {
	r.mu.Lock()
	r.stageIndex = stageIndex
	r.running = true
	r.mu.Unlock()
}

// finish 结束运行；completed 时 stageIndex 前进到阶段数，进度为 1
func (r *Run) finish(outcome Outcome, err error) {
	r.mu.Lock()
	if r.outcome != OutcomeRunning {
		r.mu.Unlock()
		return
	}
	now := r.clock()
	r.outcome = outcome
	r.err = err
	r.running = false
	r.finishedAt = &now
	if outcome == OutcomeCompleted {
		r.stageIndex = len(Stages)
	}
	r.mu.Unlock()

	r.subs.close()
	close(r.done)
}

func (r *Run) active() bool {
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}
