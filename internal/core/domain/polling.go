package domain

import "time"

// AnalysisJob is a document whose analysis is being tracked by a reconciler.
type AnalysisJob struct {
	// DocumentID identifies the tracked document.
	DocumentID DocumentID

	// StartedAt is when tracking began.
	StartedAt time.Time
}

// JobStatus reports one tracked job after a polling cycle.
type JobStatus struct {
	Job AnalysisJob

	// Record is the job's document as of this cycle, nil if the server did not return it.
	Record *DocumentRecord

	// Verdict is the classification of Record (pending when Record is nil).
	Verdict Verdict

	// Settled is true when the record reached a terminal status this cycle.
	Settled bool

	// TimedOut is true when tracking gave up on the job because it exceeded the job timeout.
	TimedOut bool
}

// PollUpdate is published to the consumer after every completed polling cycle.
type PollUpdate struct {
	// Cycle is the 1-based number of the cycle that produced this update.
	Cycle int

	// Summary aggregates the whole document collection.
	Summary Summary

	// Jobs holds the status of every job tracked at the start of the cycle.
	Jobs []JobStatus

	// Remaining is the number of jobs still tracked after this cycle.
	Remaining int

	// Done is true on the final update, once no jobs remain.
	Done bool

	// Err is set when the cycle's fetch failed. Summary and Jobs are empty then.
	Err error
}

// PollConfig configures a polling reconciler.
type PollConfig struct {
	// Interval between cycles.
	Interval time.Duration

	// MaxBackoff caps the delay applied after consecutive failed cycles.
	// Zero keeps polling at Interval regardless of failures.
	MaxBackoff time.Duration

	// JobTimeout abandons jobs tracked for longer than this. Zero disables it.
	JobTimeout time.Duration
}

// DefaultPollConfig returns the reference polling behaviour.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval:   2 * time.Second,
		MaxBackoff: 30 * time.Second,
	}
}
