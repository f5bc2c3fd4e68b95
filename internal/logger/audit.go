package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Audit event types.
const (
	EventIDRead        = "android_id.read"
	EventIDReadFailed  = "android_id.read_failed"
	EventEmulatorCheck = "emulator.check"
	EventChannelAttach = "channel.attached"
	EventChannelDetach = "channel.detached"
)

// AuditEvent represents a security-relevant audit log entry.
type AuditEvent struct {
	EventID   string                 `json:"event_id"`
	Timestamp time.Time              `json:"timestamp"`
	EventType string                 `json:"event_type"`
	Actor     string                 `json:"actor,omitempty"`
	SourceIP  string                 `json:"source_ip,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

var (
	auditMu     sync.RWMutex
	auditLogger *zerolog.Logger
	auditCloser io.Closer
)

// InitAuditLogger configures the global audit logger. A previously configured
// writer is closed first. If writer is nil, audit logging is disabled.
func InitAuditLogger(writer io.Writer) error {
	auditMu.Lock()
	defer auditMu.Unlock()

	err := closeAuditLocked()
	if writer == nil {
		return err
	}

	l := zerolog.New(writer).With().Timestamp().Logger()
	auditLogger = &l
	if c, ok := writer.(io.Closer); ok {
		auditCloser = c
	}
	return err
}

// CloseAuditLogger closes the audit writer and disables audit
// logging. It is safe to call when nothing is configured.
func CloseAuditLogger() error {
	auditMu.Lock()
	defer auditMu.Unlock()
	return closeAuditLocked()
}

func closeAuditLocked() error {
	auditLogger = nil
	if auditCloser == nil {
		return nil
	}
	c := auditCloser
	auditCloser = nil
	return c.Close()
}

// LogAuditEvent writes a structured audit event if the audit logger is configured.
func LogAuditEvent(eventType, actor, sourceIP string, details map[string]interface{}) {
	auditMu.RLock()
	defer auditMu.RUnlock()

	if auditLogger == nil {
		return
	}

	event := AuditEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Actor:     actor,
		SourceIP:  sourceIP,
		Details:   details,
	}

	e := auditLogger.Info().
		Str("event_id", event.EventID).
		Time("timestamp", event.Timestamp).
		Str("event_type", event.EventType)

	if event.Actor != "" {
		e = e.Str("actor", event.Actor)
	}
	if event.SourceIP != "" {
		e = e.Str("source_ip", event.SourceIP)
	}
	if len(event.Details) > 0 {
		e = e.Fields(event.Details)
	}

	e.Msg("")
}

// AuditIDRead records a successful identifier read. The identifier itself is
// never written, only whether the device had one.
func AuditIDRead(actor, sourceIP string, present bool) {
	LogAuditEvent(EventIDRead, actor, sourceIP, map[string]interface{}{"present": present})
}

func AuditIDReadFailed(actor, sourceIP string, err error) {
	LogAuditEvent(EventIDReadFailed, actor, sourceIP, map[string]interface{}{"error": err.Error()})
}

func AuditEmulatorCheck(actor, sourceIP string, emulator bool) {
	LogAuditEvent(EventEmulatorCheck, actor, sourceIP, map[string]interface{}{"emulator": emulator})
}

// AuditChannel records a channel handler being attached or detached.
func AuditChannel(attached bool, channel string) {
	eventType := EventChannelDetach
	if attached {
		eventType = EventChannelAttach
	}
	LogAuditEvent(eventType, "", "", map[string]interface{}{"channel": channel})
}

// NewFileAuditWriter opens path for appending audit lines.
// Rotation is expected to be handled by external logrotate where used.
func NewFileAuditWriter(path string) (io.WriteCloser, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return f, nil
}
