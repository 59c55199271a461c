package entity

import "time"

// LogSeverity 生成日志级别
type LogSeverity string

const (
	LogSeverityInfo    LogSeverity = "info"
	LogSeveritySuccess LogSeverity = "success"
	LogSeverityError   LogSeverity = "error"
)

// GenerationLogEntry 生成日志条目，归属于单次流水线运行，不随项目持久化
type GenerationLogEntry struct {
	Message   string      `json:"message"`
	Severity  LogSeverity `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}
