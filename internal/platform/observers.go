package platform

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orrn/printbridge/internal/bridge"
	"github.com/orrn/printbridge/internal/db"
)

// JobLogger is the default job observer: it mirrors every lifecycle
// event into the structured log.
type JobLogger struct{}

func (JobLogger) NotifyJobEvent(jobID string, status bridge.JobStatus, details string) {
	ev := log.Info()
	if status == bridge.JobStatusFailed {
		ev = log.Warn()
	}
	ev.Str("job", jobID).Str("status", string(status)).Str("details", details).Msg("job event")
}

// ConnLogger records client connects and disconnects in the log and the
// connection history table. Persistence failures are logged and dropped;
// observers must not affect the connection lifecycle.
type ConnLogger struct {
	store *db.ConnectionOperations
}

func NewConnLogger(store *db.ConnectionOperations) *ConnLogger {
	return &ConnLogger{store: store}
}

func (c *ConnLogger) NotifyClientConnected(ip string, at time.Time) {
	log.Info().Str("ip", ip).Msg("bridge client connected")
	c.logEvent(ip, "connected", at)
}

func (c *ConnLogger) NotifyClientDisconnected(ip string, at time.Time) {
	log.Info().Str("ip", ip).Msg("bridge client disconnected")
	c.logEvent(ip, "disconnected", at)
}

func (c *ConnLogger) logEvent(ip, event string, at time.Time) {
	if c.store == nil {
		return
	}
	if err := c.store.LogEvent(ip, event, at); err != nil {
		log.Warn().Err(err).Str("ip", ip).Msg("failed to record connection event")
	}
}
