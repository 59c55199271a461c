package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"yt-ebook-api/internal/application/pipeline"
	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/interfaces/http/dto"
	"yt-ebook-api/pkg/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
)

func snapshotEvent(s pipeline.Snapshot) dto.GenerationEvent {
	return dto.GenerationEvent{Type: dto.EventSnapshot, Snapshot: &s, Timestamp: time.Now()}
}

func logEvent(e entity.GenerationLogEntry) dto.GenerationEvent {
	return dto.GenerationEvent{Type: dto.EventLog, Entry: &e, Timestamp: e.Timestamp}
}

func doneEvent(s pipeline.Snapshot) dto.GenerationEvent {
	return dto.GenerationEvent{Type: dto.EventDone, Snapshot: &s, Timestamp: time.Now()}
}

// StreamSSE 通过 SSE 推送生成日志
// 先发送当前快照，之后逐条推送日志，运行结束时发送 done 并关闭
// @Summary 生成日志（SSE）
// @Tags Generation
// @Produce text/event-stream
// @Param pid path string true "项目 ID"
// @Success 200 "SSE stream"
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/generation/stream [get]
func (h *GenerationHandler) StreamSSE(c *gin.Context) {
	run, ok := h.lookupRun(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	snap, entries, cancel := run.Watch()
	defer cancel()

	c.SSEvent(dto.EventSnapshot, snapshotEvent(snap))
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case entry, ok := <-entries:
			if !ok {
				c.SSEvent(dto.EventDone, doneEvent(run.Snapshot()))
				return false
			}
			c.SSEvent(dto.EventLog, logEvent(entry))
			return true

		case <-c.Request.Context().Done():
			// 客户端断开
			return false
		}
	})
}

// StreamWS 通过 WebSocket 推送生成日志，消息格式与 SSE 相同
// @Summary 生成日志（WebSocket）
// @Tags Generation
// @Param pid path string true "项目 ID"
// @Success 101 "Switching Protocols"
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/generation/ws [get]
func (h *GenerationHandler) StreamWS(c *gin.Context) {
	ctx := c.Request.Context()
	run, ok := h.lookupRun(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已写入错误响应
		logger.Warn(ctx, "websocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()

	snap, entries, cancel := run.Watch()
	defer cancel()

	closed := make(chan struct{})
	go wsReadPump(conn, closed)

	if err := wsWrite(conn, snapshotEvent(snap)); err != nil {
		return
	}

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				if err := wsWrite(conn, doneEvent(run.Snapshot())); err != nil {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "generation finished"))
				return
			}
			if err := wsWrite(conn, logEvent(entry)); err != nil {
				logger.Debug(ctx, "websocket write failed", "error", err.Error())
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-closed:
			return
		}
	}
}

// wsReadPump 只处理控制帧，连接断开时关闭 closed
func wsReadPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func wsWrite(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(v)
}
