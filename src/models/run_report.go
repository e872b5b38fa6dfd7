package models

import "time"

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// MRunReport summarizes one pipeline execution.
type MRunReport struct {
	RunID      string         `json:"run_id"`
	Pipeline   string         `json:"pipeline"`
	Status     string         `json:"status"`
	Reason     string         `json:"reason,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Stages     []MStageResult `json:"stages"`
	Error      string         `json:"error,omitempty"`
}

type MStageResult struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Rows       int64  `json:"rows"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// MStageEvent is pushed to listeners whenever a stage changes state.
type MStageEvent struct {
	Type      string `json:"type"`
	RunID     string `json:"run_id"`
	Pipeline  string `json:"pipeline"`
	Stage     string `json:"stage,omitempty"`
	Status    string `json:"status"`
	Rows      int64  `json:"rows,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}
