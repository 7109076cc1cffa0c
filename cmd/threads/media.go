package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"threadscli/internal/downloader"
	"threadscli/pkg/models"
	"threadscli/pkg/ratelimit"
	"threadscli/pkg/retry"
	"threadscli/pkg/storage"
	"threadscli/pkg/threads"
	"threadscli/pkg/ui"
)

var (
	mediaUser        string
	mediaTab         string
	mediaOutput      string
	mediaConcurrency int
	mediaNoMetadata  bool
)

var mediaCmd = &cobra.Command{
	Use:   "media [post-url|code|id]...",
	Short: "Download the images and videos of posts",
	Long: `Download the images and videos attached to posts.

Files are named <code>_<index>.<ext> and files already present in the
output directory are skipped, so an interrupted run can simply be repeated.
A JSON sidecar with the post details is written next to each file unless
--no-metadata is given.`,
	Example: `  # One post
  threads media https://www.threads.com/@zuck/post/C8H5FiCtESk

  # The first three pages of a profile into ./zuck
  threads media --user zuck --max-pages 3`,
	RunE: withSession(runMedia),
}

func init() {
	f := mediaCmd.Flags()
	f.StringVarP(&mediaUser, "user", "u", "", "download from this profile's posts")
	f.StringVarP(&mediaTab, "tab", "t", "threads", "profile tab used with --user: threads, replies, reposts")
	f.StringVarP(&mediaOutput, "output", "o", "", "output directory (default: the username, or \"threads-media\")")
	f.IntVar(&mediaConcurrency, "concurrency", 0, "parallel downloads (default 3)")
	f.BoolVar(&mediaNoMetadata, "no-metadata", false, "do not write JSON sidecars")
	rootCmd.AddCommand(mediaCmd)
}

func runMedia(ctx context.Context, s *session, args []string) error {
	if mediaUser == "" && len(args) == 0 {
		return errors.New("give at least one post or --user")
	}

	posts, err := collectPosts(ctx, s, args)
	if err != nil {
		return err
	}

	var jobs []downloader.Job
	for i := range posts {
		jobs = append(jobs, downloader.JobsForPost(&posts[i])...)
	}
	jobs = downloader.Dedupe(jobs)
	if len(jobs) == 0 {
		fmt.Fprintf(s.out.errOut, "%d post(s) had no media\n", len(posts))
		return nil
	}

	dir := mediaOutput
	if dir == "" {
		dir = s.cfg.Download.OutputDir
	}
	if dir == "" {
		dir = "threads-media"
		if mediaUser != "" {
			dir = threads.SanitizeUsername(mediaUser)
		}
	}
	store, err := storage.NewManager(dir)
	if err != nil {
		return err
	}

	workers := mediaConcurrency
	if workers == 0 {
		workers = s.cfg.Download.Concurrency
	}
	fetcher := &downloader.HTTPFetcher{
		Client:    &http.Client{Timeout: s.cfg.Client.Timeout},
		UserAgent: s.cfg.Client.UserAgent,
		Referer:   threads.BaseURL + "/",
		Retry:     retry.FromConfig(s.cfg.Retry, s.log),
	}
	pool := downloader.NewWorkerPool(workers, fetcher, store,
		ratelimit.PerMinute(s.cfg.RateLimit.RequestsPerMinute), s.log)
	pool.WriteMetadata = s.cfg.Download.Metadata && !mediaNoMetadata

	var bar *ui.Progress
	if showProgress(s) {
		label := "media"
		if mediaUser != "" {
			label = "@" + threads.SanitizeUsername(mediaUser)
		}
		bar = ui.NewProgress(s.out.errOut, label, len(jobs))
		pool.OnResult = func(r downloader.Result) {
			switch {
			case r.Err != nil:
				bar.Failed(r.Job.Name)
			case r.Skipped:
				bar.Skipped(r.Job.Name)
			default:
				bar.Saved(r.Job.Name, r.Size)
			}
		}
	}

	s.log.InfoWithFields("downloading media", map[string]interface{}{
		"files":   len(jobs),
		"posts":   len(posts),
		"dir":     store.OutputDir(),
		"workers": workers,
	})
	sum := downloader.Run(ctx, pool, jobs)
	if bar != nil {
		bar.Finish()
	}

	for _, e := range sum.Errors {
		s.out.Warn(e.Error())
	}
	fmt.Fprintf(s.out.out, "%s: %d saved (%s), %d already present, %d failed\n",
		store.OutputDir(), sum.Saved, ui.FormatBytes(sum.Bytes), sum.Skipped, sum.Failed)

	if sum.Failed > 0 && sum.Saved+sum.Skipped == 0 {
		return fmt.Errorf("all %d downloads failed", sum.Failed)
	}
	return nil
}

// collectPosts resolves the explicit post references and, with --user,
// the profile's posts
func collectPosts(ctx context.Context, s *session, refs []string) ([]models.Post, error) {
	var posts []models.Post
	for _, ref := range refs {
		t, err := s.client.Thread(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ref, err)
		}
		posts = append(posts, t.Post)
	}

	if mediaUser != "" {
		tab, err := threads.ParseTab(mediaTab)
		if err != nil {
			return nil, err
		}
		res, err := s.client.UserPosts(ctx, mediaUser, tab, s.cfg.Pagination.MaxPages)
		if err != nil {
			return nil, err
		}
		if res.Warning != "" {
			s.out.Warn(res.Warning)
		}
		posts = append(posts, res.Items...)
	}
	return posts, nil
}

// showProgress draws the progress line only for an interactive stderr and
// when debug logs are not already narrating each file
func showProgress(s *session) bool {
	f, ok := s.out.errOut.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return false
	}
	return s.cfg.Logging.Level != "debug"
}
