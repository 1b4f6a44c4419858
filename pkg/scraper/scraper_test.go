package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gfmapdl/internal/downloader"
	"gfmapdl/pkg/cancel"
	"gfmapdl/pkg/config"
	"gfmapdl/pkg/gamefaqs"
	"gfmapdl/pkg/logger"
	"gfmapdl/pkg/throttle"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listing = `<html><head><title>Maps and Charts - Contributor Page - MapMaker</title></head>
<body>
<div class="pod">
  <div class="head"><h3 class="title">SNES</h3></div>
  <div class="body"><div class="content">
    <a href="/snes/1-game-a">Game A</a>
    <ul>
      <li><a class="link_color" href="/snes/1-game-a/map/11-alpha">Alpha</a></li>
      <li><a class="link_color" href="/snes/1-game-a/map/12-beta">Beta</a></li>
      <li><a class="link_color" href="/snes/1-game-a/map/13-gamma">Gamma</a></li>
    </ul>
  </div></div>
</div>
</body></html>`

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0, 'I', 'E', 'N', 'D'}

type siteRecorder struct {
	mu       sync.Mutex
	paths    []string
	referers map[string]string
}

func (s *siteRecorder) record(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, r.URL.Path)
	s.referers[r.URL.Path] = r.Header.Get("Referer")
}

func newSite(t *testing.T, listingStatus int) (*httptest.Server, *siteRecorder) {
	t.Helper()
	rec := &siteRecorder{referers: map[string]string{}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		switch r.URL.Path {
		case "/community/MapMaker/contributions/maps":
			w.WriteHeader(listingStatus)
			_, _ = w.Write([]byte(listing))
		case "/snes/1-game-a/map/11":
			_, _ = w.Write(pngBytes)
		case "/snes/1-game-a/map/12":
			_, _ = w.Write([]byte("plain text, not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server, rec
}

func testConfig(baseURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.GameFAQs.BaseURL = baseURL
	cfg.GameFAQs.Timeout = 5 * time.Second
	cfg.Output.BaseDirectory = "maps"
	return cfg
}

func TestRunDownloadsProfile(t *testing.T) {
	server, rec := newSite(t, http.StatusOK)
	fs := afero.NewMemMapFs()

	saveDir := filepath.Join("maps", "MapMaker")
	existing := filepath.Join(saveDir, "Game A - SNES - Gamma.jpg")
	require.NoError(t, afero.WriteFile(fs, existing, []byte("jpeg"), 0644))

	var plan *Plan
	s := New(testConfig(server.URL),
		WithFs(fs),
		WithLogger(logger.NewNopLogger()),
		WithPlanHook(func(p Plan) { plan = &p }),
	)

	report, err := s.Run(context.Background(), "MapMaker")
	require.NoError(t, err)

	assert.Equal(t, "MapMaker", report.ProfileName)
	assert.Equal(t, saveDir, report.SaveDir)
	assert.Equal(t, 3, report.Discovered)
	assert.Equal(t, 3, report.FilesPresent)
	assert.Equal(t, 2, report.Session.Completed)
	assert.Equal(t, 1, report.Session.Skipped)
	assert.Equal(t, 1, report.Session.Unclassified)
	assert.Equal(t, 0, report.Session.Errored)
	assert.False(t, report.Session.Cancelled)

	require.NotNil(t, plan)
	assert.Equal(t, saveDir, plan.SaveDir)
	assert.False(t, plan.DirCreated)
	assert.Len(t, plan.Manifest.Entries, 3)

	data, err := afero.ReadFile(fs, filepath.Join(saveDir, "Game A - SNES - Alpha.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	exists, err := afero.Exists(fs, filepath.Join(saveDir, "Game A - SNES - Beta.tmp"))
	require.NoError(t, err)
	assert.True(t, exists)

	mapsURL := gamefaqs.MapsURL(server.URL, "MapMaker")
	assert.Equal(t, gamefaqs.ProfileURL(server.URL, "MapMaker"), rec.referers["/community/MapMaker/contributions/maps"])
	assert.Equal(t, mapsURL, rec.referers["/snes/1-game-a/map/11"])
	assert.Equal(t, mapsURL, rec.referers["/snes/1-game-a/map/12"])
	assert.NotContains(t, rec.paths, "/snes/1-game-a/map/13")

	assert.Equal(t, 3, s.Throttle().Count())
}

func TestRunCreatesSaveDirectory(t *testing.T) {
	server, _ := newSite(t, http.StatusOK)
	fs := afero.NewMemMapFs()

	var plan Plan
	s := New(testConfig(server.URL),
		WithFs(fs),
		WithLogger(logger.NewNopLogger()),
		WithPlanHook(func(p Plan) { plan = p }),
	)

	report, err := s.Run(context.Background(), "MapMaker")
	require.NoError(t, err)

	assert.True(t, plan.DirCreated)
	assert.Equal(t, 2, report.Session.Completed)
	assert.Equal(t, 1, report.Session.Errored)
	assert.Equal(t, 2, report.FilesPresent)

	exists, err := afero.Exists(fs, filepath.Join("maps", "MapMaker", "Game A - SNES - Gamma.tmp"))
	require.NoError(t, err)
	assert.False(t, exists, "a 404 leaves no temporary file")
}

func TestRunManifestFailureLeavesFilesystemUntouched(t *testing.T) {
	server, rec := newSite(t, http.StatusForbidden)
	fs := afero.NewMemMapFs()

	s := New(testConfig(server.URL), WithFs(fs), WithLogger(logger.NewNopLogger()))

	report, err := s.Run(context.Background(), "MapMaker")
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, gamefaqs.ErrProfileUnreachable))

	exists, err := afero.DirExists(fs, "maps")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Len(t, rec.paths, 1)
}

func TestRunUsesDirectoryOverride(t *testing.T) {
	server, _ := newSite(t, http.StatusOK)
	fs := afero.NewMemMapFs()

	cfg := testConfig(server.URL)
	cfg.Output.Directory = "elsewhere"
	s := New(cfg, WithFs(fs), WithLogger(logger.NewNopLogger()))

	report, err := s.Run(context.Background(), "MapMaker")
	require.NoError(t, err)
	assert.Equal(t, "elsewhere", report.SaveDir)

	exists, err := afero.Exists(fs, filepath.Join("elsewhere", "Game A - SNES - Alpha.png"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRunThrottleCountsListingFetch(t *testing.T) {
	server, _ := newSite(t, http.StatusOK)

	cfg := testConfig(server.URL)
	cfg.Throttle.RequestThreshold = 2
	cfg.Throttle.Wait = 10 * time.Millisecond
	cfg.Throttle.Slice = 5 * time.Millisecond

	var mu sync.Mutex
	var events []throttle.Event
	s := New(cfg,
		WithFs(afero.NewMemMapFs()),
		WithLogger(logger.NewNopLogger()),
		WithThrottleHook(func(ev throttle.Event) {
			if ev.Phase == throttle.WaitTick {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			events = append(events, ev)
		}),
	)

	_, err := s.Run(context.Background(), "MapMaker")
	require.NoError(t, err)

	// listing + three images, pauses after the 2nd and 4th request
	assert.Equal(t, 4, s.Throttle().Count())
	assert.Equal(t, 2, s.Throttle().Waits())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 4)
	assert.Equal(t, throttle.WaitStarted, events[0].Phase)
	assert.Equal(t, 2, events[0].Requests)
	assert.Equal(t, throttle.WaitEnded, events[1].Phase)
}

func TestRunCancelledBeforeDownloads(t *testing.T) {
	server, _ := newSite(t, http.StatusOK)
	fs := afero.NewMemMapFs()
	sig := cancel.New()

	s := New(testConfig(server.URL),
		WithFs(fs),
		WithSignal(sig),
		WithLogger(logger.NewNopLogger()),
		WithPlanHook(func(Plan) { sig.Trigger() }),
	)

	report, err := s.Run(context.Background(), "MapMaker")
	require.ErrorIs(t, err, downloader.ErrCancelled)
	require.NotNil(t, report)
	assert.True(t, report.Session.Cancelled)
	assert.Equal(t, 0, report.Session.Completed)
	assert.Equal(t, 3, report.Discovered)
	assert.Equal(t, 0, report.FilesPresent)
}
