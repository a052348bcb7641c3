package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docverify/internal/core/domain"
)

var watchCmd = &cobra.Command{
	Use:   "watch [doc-id...]",
	Short: "Follow documents until their analysis settles",
	Long: `Polls the document collection and reports each document as its analysis
progresses. Exits once every document is completed or failed, or on interrupt.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ids := make([]domain.DocumentID, 0, len(args))
	for _, a := range args {
		ids = append(ids, domain.DocumentID(a))
	}
	return watchDocuments(cmd, ids)
}

// watchDocuments tracks ids with the reconciler and prints each change.
// It returns when tracking ends, the session expires, or on interrupt.
func watchDocuments(cmd *cobra.Command, ids []domain.DocumentID) error {
	if reconciler == nil {
		return unavailable("reconciler")
	}
	if len(ids) == 0 {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := newProgressPrinter(cmd, cancel)
	h := reconciler.Start(ctx, ids, p.update)

	select {
	case <-h.Done():
	case <-ctx.Done():
		reconciler.Stop(h)
		<-h.Done()
	}

	return p.result()
}

// progressPrinter renders poll updates, printing a document only when its
// status or verdict changes.
type progressPrinter struct {
	cmd    *cobra.Command
	cancel context.CancelFunc

	mu      sync.Mutex
	last    map[domain.DocumentID]string
	final   *domain.Summary
	authErr error
}

func newProgressPrinter(cmd *cobra.Command, cancel context.CancelFunc) *progressPrinter {
	return &progressPrinter{
		cmd:    cmd,
		cancel: cancel,
		last:   make(map[domain.DocumentID]string),
	}
}

func (p *progressPrinter) update(u domain.PollUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if u.Err != nil {
		if errors.Is(u.Err, domain.ErrAuthExpired) || errors.Is(u.Err, domain.ErrNotAuthenticated) {
			p.authErr = errSessionExpired
			p.cancel()
			return
		}
		p.cmd.Printf("poll %d failed: %v\n", u.Cycle, u.Err)
		return
	}

	for _, js := range u.Jobs {
		id := js.Job.DocumentID
		line := describeJob(js)
		if p.last[id] == line {
			continue
		}
		p.last[id] = line
		p.cmd.Printf("  %-8s  %s\n", id, line)
	}

	if u.Done {
		s := u.Summary
		p.final = &s
	}
}

func (p *progressPrinter) result() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.authErr != nil {
		return p.authErr
	}
	if p.final != nil {
		p.cmd.Println()
		printSummary(p.cmd, *p.final)
	}
	return nil
}

func describeJob(js domain.JobStatus) string {
	switch {
	case js.TimedOut:
		return "timed out"
	case js.Record == nil:
		return "not found"
	case js.Record.Status == domain.StatusFailed && js.Record.ErrorMessage != "":
		return "failed: " + js.Record.ErrorMessage
	default:
		return string(js.Record.Status) + "  " + js.Verdict.String()
	}
}
