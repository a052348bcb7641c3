package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docverify/internal/adapters/driving/inbox"
	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/ports/driving"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox [dir]",
	Short: "Upload images dropped into a directory",
	Long: `Watches a directory and uploads every new image that appears in it.
Uploaded documents are followed until their analysis settles. Runs until
interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runInbox,
}

// Inbox flags.
var (
	inboxNoAnalyze bool
	inboxDebounce  time.Duration
)

func init() {
	inboxCmd.Flags().BoolVar(&inboxNoAnalyze, "no-analyze", false, "Upload without starting analysis")
	inboxCmd.Flags().DurationVar(&inboxDebounce, "debounce", inbox.DefaultDebounce, "Quiet period before a new file is uploaded")
	rootCmd.AddCommand(inboxCmd)
}

func runInbox(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return unavailable("document service")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu      sync.Mutex
		handles []driving.PollHandle
	)
	p := newProgressPrinter(cmd, cancel)

	onUpload := func(res *driving.UploadResult) {
		ids := make([]domain.DocumentID, 0, len(res.Documents))
		p.mu.Lock()
		for _, doc := range res.Documents {
			cmd.Printf("Uploaded %s as %s\n", doc.FileName, doc.ID)
			ids = append(ids, doc.ID)
		}
		p.mu.Unlock()

		if reconciler == nil || inboxNoAnalyze || len(ids) == 0 {
			return
		}
		h := reconciler.Start(ctx, ids, p.update)
		mu.Lock()
		handles = append(handles, h)
		mu.Unlock()
	}

	w := inbox.New(args[0], documentService,
		inbox.WithAutoAnalyze(!inboxNoAnalyze),
		inbox.WithDebounce(inboxDebounce),
		inbox.OnUpload(onUpload),
	)

	cmd.Printf("Watching %s for new images\n", args[0])
	err := w.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	for _, h := range handles {
		reconciler.Stop(h)
		<-h.Done()
	}

	if err != nil {
		return commandError("watch inbox", err)
	}
	return p.result()
}
