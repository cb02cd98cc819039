package domain

import "time"

// CurationRun is the observability record of one pipeline execution.
type CurationRun struct {
	RunID       string
	Kind        Kind
	SourceLabel string
	Fetched     int
	Added       int
	Updated     int
	Skipped     int
	Deleted     int64
	AICalls     int
	Errors      []string
	StartedAt   time.Time
	CompletedAt time.Time
}

// RunSummary is returned to whoever triggered the run.
type RunSummary struct {
	RunID   string   `json:"run_id"`
	Kind    Kind     `json:"kind"`
	Fetched int      `json:"fetched"`
	Added   int      `json:"added"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Deleted int64    `json:"deleted"`
	AICalls int      `json:"ai_calls"`
	Errors  []string `json:"errors"`
}

// Summary projects the run record into the trigger response.
func (r CurationRun) Summary() RunSummary {
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	return RunSummary{
		RunID:   r.RunID,
		Kind:    r.Kind,
		Fetched: r.Fetched,
		Added:   r.Added,
		Updated: r.Updated,
		Skipped: r.Skipped,
		Deleted: r.Deleted,
		AICalls: r.AICalls,
		Errors:  errs,
	}
}

// Settings are the per-kind tunables resolved at run start.
type Settings struct {
	PublishThreshold  int
	RetentionMinScore int
	CleanupDays       int
}

// MaxAge converts CleanupDays into a duration.
func (s Settings) MaxAge() time.Duration {
	return time.Duration(s.CleanupDays) * 24 * time.Hour
}
