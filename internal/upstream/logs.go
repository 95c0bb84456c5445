package upstream

import (
	"context"
	"log/slog"

	"github.com/coder/websocket"
)

// Console lines emitted for connection events.
const (
	LineSocketError = "[error] WebSocket error"
	LineClosed      = "[pipeline] Connection closed"
)

// maxLogMessage caps a single log frame.
const maxLogMessage = 1 << 20

// LogStream reads plain-text pipeline log lines from the backend websocket.
type LogStream struct {
	url    string
	logger *slog.Logger
}

// NewLogStream creates a stream for a ws:// or wss:// URL.
func NewLogStream(url string, logger *slog.Logger) *LogStream {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogStream{url: url, logger: logger.With("component", "pipeline-logs")}
}

// Stream relays every received message to emit until the connection ends or
// ctx is cancelled. Connection failures are reported as console lines, not
// errors, and the stream always ends with LineClosed unless ctx was
// cancelled by the caller.
func (s *LogStream) Stream(ctx context.Context, emit func(line string)) {
	conn, _, err := websocket.Dial(ctx, s.url, nil)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("dial pipeline log stream", "url", s.url, "error", err)
		emit(LineSocketError)
		emit(LineClosed)
		return
	}
	defer conn.CloseNow() //nolint:errcheck
	conn.SetReadLimit(maxLogMessage)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				_ = conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if !isNormalClose(err) {
				s.logger.Warn("pipeline log stream failed", "error", err)
				emit(LineSocketError)
			}
			emit(LineClosed)
			return
		}
		emit(string(data))
	}
}

func isNormalClose(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}

// IsClosedLine reports whether a console line marks the end of a stream.
func IsClosedLine(line string) bool { return line == LineClosed }
