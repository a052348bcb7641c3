package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/ports/driving"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Upload document images",
	Long: `Uploads one or more document images (.jpg, .png, .webp). Files are sent in
groups of --group-size, several groups at a time, all under one batch id.
With --watch the command then follows the analysis until it settles.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

// Upload flags.
var (
	uploadBatchID   string
	uploadNoAnalyze bool
	uploadWatch     bool
	uploadGroupSize int
	uploadParallel  int
)

func init() {
	uploadCmd.Flags().StringVar(&uploadBatchID, "batch-id", "", "Batch id to upload under (generated for several files)")
	uploadCmd.Flags().BoolVar(&uploadNoAnalyze, "no-analyze", false, "Upload without starting analysis")
	uploadCmd.Flags().BoolVarP(&uploadWatch, "watch", "w", false, "Follow the analysis after uploading")
	uploadCmd.Flags().IntVar(&uploadGroupSize, "group-size", 10, "Files per upload request")
	uploadCmd.Flags().IntVar(&uploadParallel, "parallel", 3, "Upload requests in flight at once")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return unavailable("document service")
	}

	files, err := readUploadFiles(args, uploadParallel)
	if err != nil {
		return fmt.Errorf("failed to read files: %w", err)
	}

	batchID := uploadBatchID
	if batchID == "" && len(files) > 1 {
		batchID = documentService.NewBatchID()
	}

	ids, err := uploadGroups(cmd, files, batchID)
	if err != nil {
		return err
	}

	if batchID != "" {
		cmd.Printf("Uploaded %d file(s) in batch %s\n", len(ids), batchID)
	} else {
		cmd.Printf("Uploaded %d file(s)\n", len(ids))
	}

	if !uploadWatch {
		return nil
	}
	if uploadNoAnalyze {
		cmd.Println("Analysis not started, nothing to watch")
		return nil
	}
	cmd.Println()
	return watchDocuments(cmd, ids)
}

// readUploadFiles loads every file, at most parallel at a time. Order follows paths.
func readUploadFiles(paths []string, parallel int) ([]driving.UploadFile, error) {
	files := make([]driving.UploadFile, len(paths))

	var g errgroup.Group
	g.SetLimit(max(parallel, 1))
	for i, path := range paths {
		g.Go(func() error {
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if len(content) == 0 {
				return fmt.Errorf("%w: %s is empty", domain.ErrInvalidInput, path)
			}
			files[i] = driving.UploadFile{Name: filepath.Base(path), Content: content}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// uploadGroups sends files in groups concurrently and returns the created ids
// in file order. The first failing group cancels the rest.
func uploadGroups(cmd *cobra.Command, files []driving.UploadFile, batchID string) ([]domain.DocumentID, error) {
	size := max(uploadGroupSize, 1)
	groups := make([][]driving.UploadFile, 0, (len(files)+size-1)/size)
	for start := 0; start < len(files); start += size {
		groups = append(groups, files[start:min(start+size, len(files))])
	}

	results := make([][]domain.DocumentRecord, len(groups))
	var printMu sync.Mutex

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(uploadParallel, 1))
	for i, group := range groups {
		g.Go(func() error {
			res, err := documentService.Upload(ctx, group, batchID, !uploadNoAnalyze)
			if err != nil {
				return commandError("upload "+groupNames(group), err)
			}
			results[i] = res.Documents

			printMu.Lock()
			defer printMu.Unlock()
			for _, doc := range res.Documents {
				cmd.Printf("  %-8s  %s\n", doc.ID, doc.FileName)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var ids []domain.DocumentID
	for _, docs := range results {
		for _, doc := range docs {
			ids = append(ids, doc.ID)
		}
	}
	return ids, nil
}

func groupNames(group []driving.UploadFile) string {
	names := make([]string, 0, len(group))
	for _, f := range group {
		names = append(names, f.Name)
	}
	return strings.Join(names, ", ")
}
