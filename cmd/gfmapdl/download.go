package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gfmapdl/internal/downloader"
	"gfmapdl/pkg/cancel"
	"gfmapdl/pkg/config"
	errs "gfmapdl/pkg/errors"
	"gfmapdl/pkg/gamefaqs"
	"gfmapdl/pkg/logger"
	"gfmapdl/pkg/scraper"
	"gfmapdl/pkg/throttle"
	"gfmapdl/pkg/ui"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, collectFlags(cmd))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printer := ui.NewPrinter(out, cfg.UI.ColorEnabled)
	ui.SetOutput(out, cfg.UI.ColorEnabled)

	username, err := resolveUsername(args, os.Stdin, out, isTerminal(os.Stdin))
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.WithFields(map[string]interface{}{
		"session_id": uuid.NewString(),
		"username":   username,
	})
	log.Info("gfmapdl starting")

	ctx, stop := context.WithCancel(cmd.Context())
	defer stop()
	sig := cancel.New()
	sig.Watch(ctx)

	opts := []scraper.Option{
		scraper.WithSignal(sig),
		scraper.WithLogger(log),
		scraper.WithPlanHook(func(p scraper.Plan) { printPlan(printer, cfg, p) }),
	}
	if cfg.UI.ProgressEnabled && isTerminal(os.Stdout) {
		display := ui.NewProgressDisplay(out, cfg.UI.ColorEnabled)
		opts = append(opts, scraper.WithProgress(display), scraper.WithThrottleHook(display.OnThrottle))
	} else {
		opts = append(opts, scraper.WithThrottleHook(func(ev throttle.Event) {
			if ev.Phase == throttle.WaitStarted {
				printer.Plain(fmt.Sprintf("Waiting %d seconds after %d requests", int(ev.Wait.Seconds()), ev.Requests))
			}
		}))
	}

	report, err := scraper.New(cfg, opts...).Run(ctx, username)
	switch {
	case errors.Is(err, downloader.ErrCancelled):
		printer.Warning("Ctrl+C pressed! Stopping downloads early!")
		printer.Report(report)
		log.Warn("Run cancelled")
		return nil
	case err != nil && sig.Cancelled():
		printer.Warning("Ctrl+C pressed! Stopping before any download")
		return nil
	case err != nil:
		printManifestError(printer, cfg, username, err)
		log.WithError(err).Error("Run failed")
		return errReported
	}

	printer.Report(report)
	return nil
}

// resolveUsername returns the positional argument or reads one line from in.
// The prompt is only shown when in is a terminal.
func resolveUsername(args []string, in io.Reader, out io.Writer, interactive bool) (string, error) {
	if len(args) > 0 {
		if user := strings.TrimSpace(args[0]); user != "" {
			return user, nil
		}
	}

	if interactive {
		fmt.Fprint(out, "User to download maps from: ")
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read username: %w", err)
	}
	user := strings.TrimSpace(line)
	if user == "" {
		return "", errors.New("a GameFAQs username is required")
	}
	return user, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func printPlan(p *ui.Printer, cfg *config.Config, plan scraper.Plan) {
	dir := plan.SaveDir
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if plan.DirCreated {
		p.Info("Created and saving to dir", dir)
	} else {
		p.Info("Saving to dir", dir)
	}
	p.Highlight(fmt.Sprintf("%d maps found in %s's profile", plan.Manifest.Count(), plan.Manifest.ProfileName))
	p.Plain(fmt.Sprintf("Will wait %d seconds every %d requests",
		int(cfg.Throttle.Wait.Seconds()), cfg.Throttle.RequestThreshold))
	p.Plain("Starting downloads (press ctrl+c to end early)")
}

func printManifestError(p *ui.Printer, cfg *config.Config, username string, err error) {
	switch {
	case errors.Is(err, gamefaqs.ErrNoMaps):
		p.Error(fmt.Sprintf("%s's profile at %s contained no maps",
			username, gamefaqs.MapsURL(cfg.GameFAQs.BaseURL, username)))
	case errors.Is(err, gamefaqs.ErrProfileUnreachable):
		msg := "Could not access maps contribution page at: " + gamefaqs.ProfileURL(cfg.GameFAQs.BaseURL, username)
		var typed *errs.Error
		switch {
		case errors.As(err, &typed) && typed.Code != 0:
			p.Error(fmt.Sprintf("%d: %s", typed.Code, msg))
		case typed != nil:
			p.Error(msg, typed.Message)
		default:
			p.Error(msg)
		}
	default:
		p.Error("Download failed", err)
	}
}
