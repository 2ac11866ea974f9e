package cron

import (
	"time"

	"github.com/google/uuid"
)

const (
	// Schedule kinds.
	KindCron  = "cron"  // cron expression with seconds field
	KindEvery = "every" // fixed interval in milliseconds
	KindAt    = "at"    // one-shot at a unix-millisecond instant

	// Payload delivery kinds.
	DeliverSummary  = "summary"  // render today's summary at fire time
	DeliverReminder = "reminder" // send Payload.Message as-is
)

type Schedule struct {
	Kind    string `json:"kind"`
	Expr    string `json:"expr,omitempty"`
	EveryMs int64  `json:"everyMs,omitempty"`
	AtMs    int64  `json:"atMs,omitempty"`
}

// Payload says what a firing job should deliver and where. Channel/To
// address the outbound message; an empty Channel falls back to the
// gateway's configured summary target.
type Payload struct {
	Deliver string `json:"deliver"`
	Message string `json:"message,omitempty"`
	Channel string `json:"channel,omitempty"`
	To      string `json:"to,omitempty"`
}

type State struct {
	LastRunAtMs int64  `json:"lastRunAtMs,omitempty"`
	LastStatus  string `json:"lastStatus,omitempty"`
	LastError   string `json:"lastError,omitempty"`
}

type CronJob struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Enabled        bool     `json:"enabled"`
	Schedule       Schedule `json:"schedule"`
	Payload        Payload  `json:"payload"`
	State          State    `json:"state"`
	DeleteAfterRun bool     `json:"deleteAfterRun,omitempty"`
	CreatedAtMs    int64    `json:"createdAtMs"`
}

func NewCronJob(name string, schedule Schedule, payload Payload) CronJob {
	return CronJob{
		ID:          uuid.NewString(),
		Name:        name,
		Enabled:     true,
		Schedule:    schedule,
		Payload:     payload,
		CreatedAtMs: time.Now().UnixMilli(),
	}
}
