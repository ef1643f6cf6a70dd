package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/blobstore"
	"github.com/kozaktomas/bird-tagger/internal/tagging"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <files or keys...>",
	Short: "Detect birds in media files and store their records",
	Long: `Upload local media files to the bucket and run detection on them.
Each file is stored under the folder of its kind (images/, video/, audio/)
and images get a thumbnail. Re-ingesting a file replaces its record.

Examples:
  # Upload and ingest local files
  bird-tagger ingest ./photos/*.jpg ./clips/owl.mp4

  # Re-run detection for objects already in the bucket
  bird-tagger ingest --keys images/crow_1.jpg video/owl.mp4`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().Bool("keys", false, "Treat arguments as storage keys of objects already in the bucket")
	ingestCmd.Flags().Bool("no-thumbnail", false, "Do not generate thumbnails for images")
	ingestCmd.Flags().Int("concurrency", 2, "Number of files processed in parallel")
}

// ingestJob is one file to ingest: a local path to upload, or a key already stored.
type ingestJob struct {
	path string
	key  string
}

func ingestJobs(args []string, keysOnly bool) ([]ingestJob, error) {
	jobs := make([]ingestJob, 0, len(args))
	for _, arg := range args {
		if keysOnly {
			jobs = append(jobs, ingestJob{key: arg})
			continue
		}
		kind, ok := asset.KindFromName(arg)
		if !ok {
			return nil, fmt.Errorf("%s: %w", arg, asset.ErrUnsupportedKind)
		}
		name := tagging.SanitizeFilename(filepath.Base(arg))
		jobs = append(jobs, ingestJob{path: arg, key: asset.FolderForKind(kind) + name})
	}
	return jobs, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	keysOnly := mustGetBool(cmd, "keys")
	noThumbnail := mustGetBool(cmd, "no-thumbnail")
	concurrency := max(1, mustGetInt(cmd, "concurrency"))

	jobs, err := ingestJobs(args, keysOnly)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, appOptions{blobs: true, detector: true, notifier: true})
	if err != nil {
		return err
	}
	defer a.Close()
	pipeline := a.pipeline()

	bar := progressbar.NewOptions(len(jobs),
		progressbar.OptionSetDescription("Ingesting"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var (
		mu       sync.Mutex
		failures []string
		species  = asset.Annotations{}
		wg       sync.WaitGroup
	)
	sem := make(chan struct{}, concurrency)

	for _, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(job ingestJob) {
			defer wg.Done()
			defer func() { <-sem }()

			rec, err := ingestOne(ctx, a.blobs, pipeline, job, !noThumbnail)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, fmt.Sprintf("%s: %v", job.key, err))
			} else {
				for name, count := range rec.Annotations {
					species[name] += count
				}
			}
			bar.Add(1)
		}(job)
	}
	wg.Wait()
	bar.Finish()

	fmt.Printf("\nIngested %d of %d file(s)\n", len(jobs)-len(failures), len(jobs))
	for _, name := range species.Species() {
		fmt.Printf("  %-12s %d\n", name, species[name])
	}
	if len(failures) > 0 {
		fmt.Println("\nFailures:")
		for _, f := range failures {
			fmt.Printf("  %s\n", f)
		}
		return fmt.Errorf("%d file(s) failed", len(failures))
	}
	return nil
}

func ingestOne(ctx context.Context, blobs blobstore.Store, pipeline *tagging.Pipeline, job ingestJob, thumbnail bool) (*asset.Record, error) {
	req := tagging.IngestRequest{Key: job.key, GenerateThumbnail: thumbnail}
	if job.path == "" {
		return pipeline.Ingest(ctx, req)
	}

	data, err := os.ReadFile(job.path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if err := blobs.Put(ctx, job.key, data, blobstore.ContentTypeForKey(job.key), map[string]string{
		"original_filename": filepath.Base(job.path),
		"uploaded_by":       "cli",
	}); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	req.Data = data
	if kind, _ := asset.KindFromName(job.key); kind == asset.KindVideo {
		// Read frames from the local copy instead of spooling the bytes again.
		req.Data = nil
		req.Path = job.path
	}
	return pipeline.Ingest(ctx, req)
}
