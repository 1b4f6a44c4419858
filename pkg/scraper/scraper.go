package scraper

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"gfmapdl/internal/downloader"
	"gfmapdl/pkg/cancel"
	"gfmapdl/pkg/config"
	"gfmapdl/pkg/gamefaqs"
	"gfmapdl/pkg/logger"
	"gfmapdl/pkg/models"
	"gfmapdl/pkg/ratelimit"
	"gfmapdl/pkg/retry"
	"gfmapdl/pkg/storage"
	"gfmapdl/pkg/throttle"
	"github.com/spf13/afero"
)

// Client is the part of the GameFAQs client the scraper needs
type Client interface {
	FetchManifest(ctx context.Context, username string) (*models.Manifest, error)
	Fetch(ctx context.Context, url string, w io.Writer) (int64, error)
	SetReferer(referer string)
}

// Plan is what the scraper is about to do once the listing is known
type Plan struct {
	Manifest   *models.Manifest
	SaveDir    string
	DirCreated bool
}

// Report summarizes a run
type Report struct {
	ProfileName  string
	SaveDir      string
	Discovered   int
	FilesPresent int
	Session      downloader.Session
	Duration     time.Duration
}

// Scraper coordinates a run: listing, save directory, downloads, report
type Scraper struct {
	config   *config.Config
	client   Client
	store    *storage.Manager
	throttle *throttle.Throttle
	sig      *cancel.Signal
	progress downloader.Progress
	onPlan   func(Plan)
	logger   logger.Logger
}

// Option configures a Scraper
type Option func(*options)

type options struct {
	fs           afero.Fs
	sig          *cancel.Signal
	progress     downloader.Progress
	throttleHook throttle.Hook
	onPlan       func(Plan)
	logger       logger.Logger
}

// WithFs sets the filesystem downloads are written to
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithSignal sets the cancellation signal shared with the caller
func WithSignal(sig *cancel.Signal) Option {
	return func(o *options) { o.sig = sig }
}

// WithProgress sets the observer advanced after every entry
func WithProgress(p downloader.Progress) Option {
	return func(o *options) { o.progress = p }
}

// WithThrottleHook is notified when a cooldown starts and ends
func WithThrottleHook(h throttle.Hook) Option {
	return func(o *options) { o.throttleHook = h }
}

// WithPlanHook is called after the save directory is ready and before downloads start
func WithPlanHook(f func(Plan)) Option {
	return func(o *options) { o.onPlan = f }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New wires a Scraper from configuration
func New(cfg *config.Config, opts ...Option) *Scraper {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.GetLogger()
	}
	if o.sig == nil {
		o.sig = cancel.New()
	}

	th := throttle.New(cfg.Throttle.RequestThreshold, cfg.Throttle.Wait, o.sig,
		throttle.WithSlice(cfg.Throttle.Slice),
		throttle.WithHook(o.throttleHook),
		throttle.WithLogger(o.logger),
	)

	client := gamefaqs.NewClient(cfg.GameFAQs,
		gamefaqs.WithLogger(o.logger),
		gamefaqs.WithObserver(th),
		gamefaqs.WithLimiter(ratelimit.NewPacer(cfg.Download.RequestsPerSecond)),
		gamefaqs.WithRetry(retry.FromSettings(cfg.Retry, o.logger)),
	)

	return &Scraper{
		config:   cfg,
		client:   client,
		store:    storage.NewManager(o.fs),
		throttle: th,
		sig:      o.sig,
		progress: o.progress,
		onPlan:   o.onPlan,
		logger:   o.logger,
	}
}

// Throttle returns the request counter shared by every fetch of this scraper
func (s *Scraper) Throttle() *throttle.Throttle {
	return s.throttle
}

// SaveDir returns the directory maps of profileName are stored in
func (s *Scraper) SaveDir(profileName string) string {
	if s.config.Output.Directory != "" {
		return s.config.Output.Directory
	}
	return filepath.Join(s.config.Output.BaseDirectory, profileName)
}

// Run downloads every map of username. A failure to obtain the listing is
// returned before anything touches the filesystem. When the run is cut short
// the report is still returned, together with downloader.ErrCancelled.
func (s *Scraper) Run(ctx context.Context, username string) (*Report, error) {
	start := time.Now()
	ctx, release := s.sig.Context(ctx)
	defer release()

	log := s.logger.WithField("username", username)

	manifest, err := s.client.FetchManifest(ctx, username)
	if err != nil {
		return nil, err
	}

	saveDir := s.SaveDir(manifest.ProfileName)
	created, err := s.store.EnsureDir(saveDir)
	if err != nil {
		return nil, fmt.Errorf("preparing save directory %s: %w", saveDir, err)
	}

	s.client.SetReferer(manifest.MapsURL)

	if s.onPlan != nil {
		s.onPlan(Plan{Manifest: manifest, SaveDir: saveDir, DirCreated: created})
	}

	pipeline := downloader.New(s.client, s.store, s.sig, downloader.Options{
		SaveDir:   saveDir,
		Overwrite: s.config.Download.Overwrite,
		Progress:  s.progress,
		Logger:    log,
	})
	session := pipeline.Run(ctx, manifest.Entries)

	files, err := s.store.CountFiles(saveDir)
	if err != nil {
		log.WithError(err).Warn("Could not count files in save directory")
	}

	report := &Report{
		ProfileName:  manifest.ProfileName,
		SaveDir:      saveDir,
		Discovered:   len(manifest.Entries),
		FilesPresent: files,
		Session:      session,
		Duration:     time.Since(start),
	}

	log.InfoWithFields("Run finished", map[string]interface{}{
		"discovered":   report.Discovered,
		"completed":    session.Completed,
		"skipped":      session.Skipped,
		"errored":      session.Errored,
		"unclassified": session.Unclassified,
		"cancelled":    session.Cancelled,
		"requests":     s.throttle.Count(),
	})

	return report, session.Err()
}
