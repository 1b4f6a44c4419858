package downloader

import (
	"context"
	"errors"
	"io"
	"time"

	"gfmapdl/pkg/cancel"
	"gfmapdl/pkg/classify"
	errs "gfmapdl/pkg/errors"
	"gfmapdl/pkg/logger"
	"gfmapdl/pkg/models"
	"gfmapdl/pkg/resolver"
	"gfmapdl/pkg/throttle"
	"github.com/spf13/afero"
)

// ErrCancelled reports that a run stopped before every entry was processed
var ErrCancelled = errors.New("download run cancelled")

// Fetcher streams the body of a URL into w
type Fetcher interface {
	Fetch(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Store is the filesystem side of a download
type Store interface {
	resolver.Prober
	WriteTemp(target string, stream func(io.Writer) error) (string, int64, error)
	Finalize(tmp, final string, overwrite bool) (bool, error)
	Fs() afero.Fs
}

// Outcome is what happened to a single entry
type Outcome int

const (
	OutcomeDownloaded Outcome = iota
	OutcomeKept
	OutcomeUnclassified
	OutcomeSkipped
	OutcomeFailed
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeKept:
		return "kept"
	case OutcomeUnclassified:
		return "unclassified"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result describes the processing of one entry
type Result struct {
	Entry    models.Entry
	Outcome  Outcome
	Path     string
	Bytes    int64
	Duration time.Duration
	Err      error
}

// Session holds the counters of a run. Counters only ever increase.
type Session struct {
	Completed    int
	Skipped      int
	Errored      int
	Unclassified int
	Cancelled    bool
}

// Err returns ErrCancelled if the run was cut short
func (s Session) Err() error {
	if s.Cancelled {
		return ErrCancelled
	}
	return nil
}

func (s *Session) record(o Outcome) {
	switch o {
	case OutcomeDownloaded, OutcomeKept:
		s.Completed++
	case OutcomeUnclassified:
		s.Completed++
		s.Unclassified++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Errored++
	case OutcomeCancelled:
		s.Cancelled = true
	}
}

// Progress observes a run
type Progress interface {
	Start(total int)
	Advance(r Result)
	Finish(s Session)
}

type nopProgress struct{}

func (nopProgress) Start(int) {}
func (nopProgress) Advance(Result) {}
func (nopProgress) Finish(Session) {}

// Options configures a Pipeline
type Options struct {
	SaveDir   string
	Overwrite bool
	Progress  Progress
	Logger    logger.Logger
}

// Pipeline downloads listing entries one at a time
type Pipeline struct {
	fetcher   Fetcher
	store     Store
	sig       *cancel.Signal
	saveDir   string
	overwrite bool
	exts      []classify.Extension
	progress  Progress
	logger    logger.Logger
}

// New creates a pipeline. sig may be nil, in which case only ctx stops a run.
func New(fetcher Fetcher, store Store, sig *cancel.Signal, opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.Progress == nil {
		opts.Progress = nopProgress{}
	}
	if sig == nil {
		sig = cancel.New()
	}

	return &Pipeline{
		fetcher:   fetcher,
		store:     store,
		sig:       sig,
		saveDir:   opts.SaveDir,
		overwrite: opts.Overwrite,
		exts:      classify.KnownExtensions(),
		progress:  opts.Progress,
		logger:    opts.Logger,
	}
}

// Run processes entries in order. Per-entry failures are counted and the run
// continues; cancellation stops it between entries or during a fetch.
func (p *Pipeline) Run(ctx context.Context, entries []models.Entry) Session {
	var s Session

	p.progress.Start(len(entries))
	p.logger.InfoWithFields("Starting downloads", map[string]interface{}{
		"entries":   len(entries),
		"save_dir":  p.saveDir,
		"overwrite": p.overwrite,
	})

	for _, entry := range entries {
		if p.stopped(ctx) {
			s.Cancelled = true
			break
		}

		res := p.process(ctx, entry)
		s.record(res.Outcome)
		if res.Outcome != OutcomeCancelled {
			p.progress.Advance(res)
		}

		if s.Cancelled || p.stopped(ctx) {
			s.Cancelled = true
			break
		}
	}

	if s.Cancelled {
		p.logger.Warn("Stopping downloads early")
	}
	p.progress.Finish(s)
	return s
}

func (p *Pipeline) stopped(ctx context.Context) bool {
	return p.sig.Cancelled() || ctx.Err() != nil
}

func (p *Pipeline) process(ctx context.Context, entry models.Entry) Result {
	start := time.Now()
	res := Result{Entry: entry}
	log := p.logger.WithField("name", entry.Name)

	switch d := resolver.Resolve(entry, p.saveDir, p.exts, p.overwrite, p.store).(type) {
	case resolver.Skip:
		log.InfoWithFields("Skipped", map[string]interface{}{"existing": d.Existing})
		res.Outcome = OutcomeSkipped
		res.Path = d.Existing

	case resolver.Proceed:
		p.download(ctx, d, &res, log)
	}

	res.Duration = time.Since(start)
	return res
}

func (p *Pipeline) download(ctx context.Context, d resolver.Proceed, res *Result, log logger.Logger) {
	tmp, n, err := p.store.WriteTemp(d.Target, func(w io.Writer) error {
		_, err := p.fetcher.Fetch(ctx, d.ImageURL, w)
		return err
	})
	res.Path = tmp
	res.Bytes = n

	if err != nil {
		res.Err = err
		if p.isCancellation(ctx, err) {
			log.WarnWithFields("Download interrupted", map[string]interface{}{"temp": tmp})
			res.Outcome = OutcomeCancelled
			return
		}
		logger.LogDownload(log, res.Entry.Name, tmp, n, err)
		res.Outcome = OutcomeFailed
		return
	}

	ext, ok, err := classify.Classify(p.store.Fs(), tmp)
	if err != nil {
		log.WithError(err).WarnWithFields("Could not inspect download, keeping temporary file", map[string]interface{}{"temp": tmp})
		res.Outcome = OutcomeUnclassified
		return
	}
	if !ok {
		log.InfoWithFields("Unrecognized file type, keeping temporary file", map[string]interface{}{"temp": tmp})
		res.Outcome = OutcomeUnclassified
		return
	}

	final := d.Target + string(ext)
	renamed, err := p.store.Finalize(tmp, final, p.overwrite)
	if err != nil {
		res.Err = err
		logger.LogDownload(log, res.Entry.Name, final, n, err)
		res.Outcome = OutcomeFailed
		return
	}
	if !renamed {
		log.WarnWithFields("File already exists, keeping existing file", map[string]interface{}{
			"existing": final,
			"temp":     tmp,
		})
		res.Outcome = OutcomeKept
		return
	}

	res.Path = final
	res.Outcome = OutcomeDownloaded
	logger.LogDownload(log, res.Entry.Name, final, n, nil)
}

func (p *Pipeline) isCancellation(ctx context.Context, err error) bool {
	if p.stopped(ctx) {
		return true
	}
	if errors.Is(err, throttle.ErrCancelled) || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *errs.Error
	return errors.As(err, &apiErr) && apiErr.Type == errs.ErrorTypeCancelled
}
