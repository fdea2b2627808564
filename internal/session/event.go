package session

import (
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/metalblueberry/fretscribe/pkg/fretboard"
)

/*
 * Event is one accepted detection and where to play it.
 */
type Event struct {
	SessionID   string               `json:"session_id"`
	TimestampMs int64                `json:"timestamp_ms"`
	Frequency   float64              `json:"frequency"`
	Confidence  float64              `json:"confidence"`
	Note        string               `json:"note,omitempty"`
	Cents       float64              `json:"cents"`
	Positions   []fretboard.Position `json:"positions"`
}

/*
 * Sink consumes events. Emit must not block the capture loop for long and
 * has no way to report failure back to the session.
 */
type Sink interface {
	Emit(Event)
}

/*
 * SinkFunc adapts a function to [Sink].
 */
type SinkFunc func(Event)

/*
 * Emit calls f.
 */
func (f SinkFunc) Emit(e Event) { f(e) }

/*
 * LogSink writes events to a structured logger at info level.
 */
type LogSink struct {
	logger *slog.Logger
}

/*
 * NewLogSink returns a sink logging to l, or to the default logger if l is
 * nil.
 */
func NewLogSink(l *slog.Logger) *LogSink {
	if l == nil {
		l = slog.Default()
	}
	return &LogSink{logger: l}
}

/*
 * Emit logs e.
 */
func (s *LogSink) Emit(e Event) {
	attrs := []any{
		"session_id", e.SessionID,
		"timestamp_ms", e.TimestampMs,
		"frequency", e.Frequency,
		"confidence", e.Confidence,
		"note", e.Note,
	}
	for i, p := range e.Positions {
		attrs = append(attrs, slog.Group("position_"+strconv.Itoa(i),
			"string", p.String,
			"fret", p.Fret,
		))
	}
	s.logger.Info("note", attrs...)
}

/*
 * JSONSink writes one JSON object per event to a writer.
 */
type JSONSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

/*
 * NewJSONSink returns a sink writing newline delimited JSON to w.
 */
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{enc: json.NewEncoder(w)}
}

/*
 * Emit encodes e. Write failures are logged and otherwise ignored.
 */
func (s *JSONSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(e); err != nil {
		slog.Warn("session: failed to write event", "err", err)
	}
}
