package protocol

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"gowalmart_seller/internal/walmart/business/models"
)

const (
	FailureSystem = "system_error"
	FailureConfig = "config_error"
)

// Writer serialises messages as JSON lines. It is safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
	now func() time.Time
}

func NewWriter(out io.Writer) *Writer {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	return &Writer{enc: enc, now: time.Now}
}

// SetClock replaces the source of emitted_at timestamps.
func (w *Writer) SetClock(now func() time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = now
}

func (w *Writer) Write(msg Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(msg); err != nil {
		return fmt.Errorf("writing %s message: %w", msg.Type, err)
	}
	return nil
}

func (w *Writer) emittedAt() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.now().UnixMilli()
}

func (w *Writer) Record(stream string, data models.Record) error {
	return w.Write(Message{Type: TypeRecord, Record: &Record{Stream: stream, Data: data, EmittedAt: w.emittedAt()}})
}

func (w *Writer) Log(level, format string, v ...interface{}) error {
	return w.Write(Message{Type: TypeLog, Log: &Log{Level: level, Message: fmt.Sprintf(format, v...)}})
}

func (w *Writer) StreamStatus(stream string, status StreamStatus) error {
	return w.Write(Message{Type: TypeTrace, Trace: &Trace{
		Type:      "STREAM_STATUS",
		EmittedAt: w.emittedAt(),
		StreamStatus: &TraceStreamStatus{
			StreamDescriptor: StreamDescriptor{Name: stream},
			Status:           status,
		},
	}})
}

func (w *Writer) Error(failureType string, err error) error {
	return w.Write(Message{Type: TypeTrace, Trace: &Trace{
		Type:      "ERROR",
		EmittedAt: w.emittedAt(),
		Error: &TraceError{
			Message:         err.Error(),
			InternalMessage: fmt.Sprintf("%+v", err),
			FailureType:     failureType,
		},
	}})
}

func (w *Writer) ConnectionStatus(status, message string) error {
	return w.Write(Message{Type: TypeConnectionStatus, ConnectionStatus: &ConnectionStatus{Status: status, Message: message}})
}
