package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/ports/driven"
	"github.com/custodia-labs/docverify/internal/core/ports/driving"
	"github.com/custodia-labs/docverify/internal/logger"
)

// Ensure PollingReconciler implements the interface.
var _ driving.Reconciler = (*PollingReconciler)(nil)

var handleSeq atomic.Uint64

// Handle is a running polling task returned by PollingReconciler.Start.
type Handle struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}

	mu         sync.Mutex
	generation uint64
}

// ID returns an identifier for log messages.
func (h *Handle) ID() string {
	return h.id
}

// Done is closed when the polling task has ended.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// current reports whether gen is still the handle's live generation.
func (h *Handle) current(gen uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.generation == gen
}

// cycleResult is the outcome of one fetch.
type cycleResult struct {
	cycle int
	docs  []domain.DocumentRecord
	err   error
}

// PollingReconciler repeatedly fetches the document collection and publishes
// reclassified aggregates until every tracked job settles or the task is stopped.
type PollingReconciler struct {
	source driven.DocumentSource
	config domain.PollConfig
	now    func() time.Time
}

// NewPollingReconciler creates a reconciler. A non-positive interval uses the default.
func NewPollingReconciler(source driven.DocumentSource, config domain.PollConfig) *PollingReconciler {
	if config.Interval <= 0 {
		config.Interval = domain.DefaultPollConfig().Interval
	}
	return &PollingReconciler{
		source: source,
		config: config,
		now:    time.Now,
	}
}

// Start tracks the given documents. The first cycle runs immediately, later
// cycles run on the configured interval. onUpdate is called from the task's
// goroutine, one cycle at a time.
func (r *PollingReconciler) Start(
	ctx context.Context,
	ids []domain.DocumentID,
	onUpdate func(domain.PollUpdate),
) driving.PollHandle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		id:     fmt.Sprintf("poll-%d", handleSeq.Add(1)),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	started := r.now()
	seen := make(map[domain.DocumentID]bool, len(ids))
	jobs := make([]domain.AnalysisJob, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		jobs = append(jobs, domain.AnalysisJob{DocumentID: id, StartedAt: started})
	}

	logger.Debug("%s: tracking %d document(s) every %s", h.id, len(jobs), r.config.Interval)
	go r.run(ctx, h, 0, jobs, onUpdate)
	return h
}

// Stop cancels a polling task. Results of a cycle still in flight are discarded.
// Stopping an already stopped task is a no-op.
func (r *PollingReconciler) Stop(ph driving.PollHandle) {
	h, ok := ph.(*Handle)
	if !ok || h == nil {
		return
	}
	h.mu.Lock()
	h.generation++
	h.mu.Unlock()
	h.cancel()
}

// run is the task loop. It owns jobs; only one fetch is outstanding at a time.
func (r *PollingReconciler) run(
	ctx context.Context,
	h *Handle,
	gen uint64,
	jobs []domain.AnalysisJob,
	onUpdate func(domain.PollUpdate),
) {
	defer close(h.done)
	defer h.cancel()

	// Buffered so an abandoned fetch can always deliver and exit.
	results := make(chan cycleResult, 1)
	var (
		cycle    int
		inFlight bool
		failures int
		skip     int
	)
	launch := func() {
		cycle++
		inFlight = true
		n := cycle
		go func() {
			docs, err := r.source.ListDocuments(ctx)
			results <- cycleResult{cycle: n, docs: docs, err: err}
		}()
	}

	launch()
	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("%s: stopped after %d cycle(s)", h.id, cycle)
			return

		case <-ticker.C:
			if inFlight {
				logger.Debug("%s: fetch still in flight, skipping tick", h.id)
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			launch()

		case res := <-results:
			inFlight = false
			if ctx.Err() != nil || !h.current(gen) {
				logger.Debug("%s: discarding cycle %d after stop", h.id, res.cycle)
				return
			}

			var update domain.PollUpdate
			update, jobs = r.reconcile(res, jobs)
			if res.err != nil {
				failures++
				skip = r.ticksToSkip(failures)
				logger.Warn("%s: cycle %d failed (%d in a row): %v", h.id, res.cycle, failures, res.err)
			} else {
				failures = 0
				skip = 0
			}

			if onUpdate != nil {
				onUpdate(update)
			}
			if update.Done {
				logger.Debug("%s: all jobs settled after %d cycle(s)", h.id, res.cycle)
				return
			}
		}
	}
}

// reconcile classifies the tracked jobs against a fetch result and returns the
// update together with the jobs that remain tracked.
func (r *PollingReconciler) reconcile(
	res cycleResult,
	jobs []domain.AnalysisJob,
) (domain.PollUpdate, []domain.AnalysisJob) {
	update := domain.PollUpdate{Cycle: res.cycle}
	if res.err != nil {
		update.Err = res.err
		update.Remaining = len(jobs)
		return update, jobs
	}

	byID := make(map[domain.DocumentID]int, len(res.docs))
	for i := range res.docs {
		byID[res.docs[i].ID] = i
	}

	update.Summary = Tally(res.docs)
	update.Jobs = make([]domain.JobStatus, 0, len(jobs))
	now := r.now()
	remaining := make([]domain.AnalysisJob, 0, len(jobs))

	for _, job := range jobs {
		status := domain.JobStatus{Job: job, Verdict: domain.VerdictPending}
		if i, ok := byID[job.DocumentID]; ok {
			rec := res.docs[i]
			status.Record = &rec
			status.Verdict = Classify(rec)
			status.Settled = rec.Status.IsTerminal()
		}
		if !status.Settled && r.config.JobTimeout > 0 && now.Sub(job.StartedAt) >= r.config.JobTimeout {
			status.TimedOut = true
		}
		update.Jobs = append(update.Jobs, status)
		if !status.Settled && !status.TimedOut {
			remaining = append(remaining, job)
		}
	}

	update.Remaining = len(remaining)
	update.Done = len(remaining) == 0
	return update, remaining
}

// ticksToSkip returns how many ticks to let pass after consecutive failures.
// The delay doubles per failure up to MaxBackoff; a zero MaxBackoff never skips.
func (r *PollingReconciler) ticksToSkip(failures int) int {
	if r.config.MaxBackoff <= 0 || failures <= 1 {
		return 0
	}
	delay := r.config.Interval
	for i := 1; i < failures && delay < r.config.MaxBackoff; i++ {
		delay *= 2
	}
	if delay > r.config.MaxBackoff {
		delay = r.config.MaxBackoff
	}
	skip := int(delay/r.config.Interval) - 1
	if skip < 0 {
		return 0
	}
	return skip
}
