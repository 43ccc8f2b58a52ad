package poll

import (
	"time"
)

// State is where a run is in its lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateRunning    State = "running"
	StateMerging    State = "merging"
	StateFormatting State = "formatting"
	StateFailed     State = "failed"
)

// Modes a run can be started in.
const (
	ModeFull    = "full"
	ModeLegacy  = "legacy"
	ModeQueries = "queries"
)

// ValidMode reports whether m names a run mode.
func ValidMode(m string) bool {
	return m == ModeFull || m == ModeLegacy || m == ModeQueries
}

// OriginReport is one adapter's share of a run.
type OriginReport struct {
	Origin     string `json:"origin"`
	Candidates int    `json:"candidates"`
	Malformed  int    `json:"malformed"`
	Pages      int    `json:"pages"`
	PageErrors int    `json:"page_errors"`
	Failed     bool   `json:"failed"`
	Error      string `json:"error,omitempty"`
}

type Counts struct {
	Raw            int `json:"raw"`
	Homeowner      int `json:"homeowner"`
	Professional   int `json:"professional"`
	Irrelevant     int `json:"irrelevant"`
	Ambiguous      int `json:"ambiguous"`
	UnknownAge     int `json:"unknown_age"`
	DroppedRecency int `json:"dropped_recency"`
	Created        int `json:"created"`
	Updated        int `json:"updated"`
	MarkedStale    int `json:"marked_stale"`
}

// RunSummary is what a run reports and what gets stored with it.
type RunSummary struct {
	RunID          string         `json:"run_id"`
	Mode           string         `json:"mode"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	State          State          `json:"state"`
	Attempted      []string       `json:"origins_attempted"`
	Failed         []string       `json:"origins_failed"`
	Origins        []OriginReport `json:"origins"`
	Counts         Counts         `json:"counts"`
	ConversionRate float64        `json:"conversion_rate"`
	Outputs        []string       `json:"outputs"`
	FinalizeErrors []string       `json:"finalize_errors,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// Partial is true when the run went through but some origins failed.
func (s RunSummary) Partial() bool {
	return s.State != StateFailed && len(s.Failed) > 0
}
