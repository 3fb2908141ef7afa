package api

import (
	"context"
	"net/http"
	"time"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
	xhttp "github.com/aayeshatech/SYMBOLASTRO/pkg/http"
	xlogger "github.com/aayeshatech/SYMBOLASTRO/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// streamFrame is one websocket message.
type streamFrame struct {
	Type   string                 `json:"type"`
	Seq    int                    `json:"seq"`
	Result *models.AnalysisResult `json:"result,omitempty"`
	Error  *xhttp.AppError        `json:"error,omitempty"`
}

// Stream pushes a fresh analysis every interval seconds until the client
// disconnects. Parameters are validated before the upgrade so bad input
// gets a plain 400.
func (h *AnalysisEchoHandler) Stream(c echo.Context) error {
	h.streams.Add(1)
	defer h.streams.Done()
	if h.streamCtx.Err() != nil {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_SHUTTING_DOWN", "", "server is shutting down", http.StatusServiceUnavailable))
	}

	req := &models.StreamRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()
	first, err := h.uc.Compute(ctx, req.Symbol, req.Timeframe)
	if err != nil {
		return h.fail(c, "stream", err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	closed := make(chan struct{})
	go readPump(conn, closed)

	ticker := time.NewTicker(time.Duration(req.Interval) * time.Second)
	defer ticker.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	seq := 0
	send := func(res *models.AnalysisResult, err error) bool {
		seq++
		frame := streamFrame{Type: "analysis", Seq: seq, Result: res}
		if err != nil {
			frame = streamFrame{Type: "error", Seq: seq, Error: xhttp.InternalError(err.Error())}
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if werr := conn.WriteJSON(frame); werr != nil {
			h.logger.Debug("websocket write failed", xlogger.Error(werr))
			return false
		}
		return true
	}

	if !send(first, nil) {
		return nil
	}
	for {
		select {
		case <-closed:
			return nil
		case <-ctx.Done():
			return nil
		case <-h.streamCtx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return nil
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-ticker.C:
			if !send(h.uc.Compute(ctx, req.Symbol, req.Timeframe)) {
				return nil
			}
		}
	}
}

// Drain ends every open stream and waits for their goroutines to return,
// so no stream computes after the caller tears down dependencies.
func (h *AnalysisEchoHandler) Drain(ctx context.Context) error {
	h.stopStreams()
	done := make(chan struct{})
	go func() {
		h.streams.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ xhttp.Drainer = (*AnalysisEchoHandler)(nil)

// readPump discards client frames and signals when the connection closes.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
