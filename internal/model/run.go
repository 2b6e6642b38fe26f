package model

import (
	"strings"
	"time"
)

// ScrapeType identifies what a run was collecting.
type ScrapeType string

const (
	ScrapeRoster      ScrapeType = "roster"
	ScrapeTournaments ScrapeType = "tournaments"
	ScrapeResults     ScrapeType = "results"
	ScrapePlayerBio   ScrapeType = "player_bio"
)

// RunStatus is the lifecycle state of a scrape run.
type RunStatus string

const (
	RunStarted RunStatus = "started"
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunFailed  RunStatus = "failed"
)

// ScrapeRun is one row of the scrape ledger.
type ScrapeRun struct {
	ID               string     `json:"id"`
	Source           string     `json:"source"`
	ScrapeType       ScrapeType `json:"scrape_type"`
	League           string     `json:"league,omitempty"`
	Status           RunStatus  `json:"status"`
	RecordsProcessed int        `json:"records_processed"`
	RecordsCreated   int        `json:"records_created"`
	RecordsUpdated   int        `json:"records_updated"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// Duration returns the wall time of a completed run, zero otherwise.
func (r *ScrapeRun) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// RunSummary is what a pipeline invocation reports back to its caller.
// Succeeded counts records that processed cleanly, whether or not they
// changed a row: an idempotent rescrape succeeds without writing.
type RunSummary struct {
	Status    RunStatus `json:"status"`
	Processed int       `json:"processed"`
	Succeeded int       `json:"succeeded"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Errors    []string  `json:"errors,omitempty"`
}

// MaxSummaryErrors bounds the error sample carried in a RunSummary so a
// source-wide outage doesn't balloon the ledger row.
const MaxSummaryErrors = 20

// AddError appends to the bounded error sample and keeps counting past
// the cap by way of Status.
func (s *RunSummary) AddError(msg string) {
	if len(s.Errors) < MaxSummaryErrors {
		s.Errors = append(s.Errors, msg)
	}
}

// ErrorMessage joins the error sample for the ledger row.
func (s *RunSummary) ErrorMessage() string {
	return strings.Join(s.Errors, "; ")
}

// Finalize settles the terminal status: failed only when no record
// succeeded, partial when successes and errors mix.
func (s *RunSummary) Finalize() {
	switch {
	case len(s.Errors) == 0:
		s.Status = RunSuccess
	case s.Succeeded == 0:
		s.Status = RunFailed
	default:
		s.Status = RunPartial
	}
}
