// Command update refreshes every configured indicator once and writes
// last_update.json. FORCE_REFRESH=true (or -force) ignores cache freshness.
// The exit code is 0 only when every indicator produced fresh data.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"EconDash/internal/di"
	"EconDash/internal/domain/models"
	"EconDash/pkg/config"
	applogger "EconDash/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	force := flag.Bool("force", false, "refetch every indicator regardless of age")
	only := flag.String("only", "", "comma separated indicator ids to refresh")
	flag.Parse()

	os.Exit(run(*configPath, *force, *only))
}

func run(configPath string, force bool, only string) int {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		log.Printf("config load failed: %v", err)
		return 1
	}

	cmd, cleanup, err := di.InitializeUpdateCommand(cfg)
	if err != nil {
		log.Printf("initialization failed: %v", err)
		return 1
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := models.RunOptions{
		Force:   force || cfg.Refresh.Force,
		Only:    splitIDs(only),
		Trigger: "cli",
	}
	l := cmd.Log.With("update")
	for _, w := range cfg.Warnings {
		l.Warn(w)
	}
	l.Info("update starting", applogger.Bool("force", opts.Force), applogger.Strings("only", opts.Only))

	summary, err := cmd.Updater.Run(ctx, opts)
	if summary == nil {
		l.Error("update did not run", applogger.Error(err))
		return 1
	}
	if err != nil {
		l.Error("summary not written", applogger.Error(err))
	}

	for _, o := range summary.Outcomes {
		fields := []applogger.Field{
			applogger.String("indicator", o.Indicator),
			applogger.String("status", string(o.Status)),
			applogger.Int("observations", o.Observations),
			applogger.Int64("duration_ms", o.DurationMs),
		}
		if o.Error != "" {
			fields = append(fields, applogger.String("error", o.Error))
			l.Warn("indicator", fields...)
			continue
		}
		l.Info("indicator", fields...)
	}
	l.Info("update finished",
		applogger.String("status", string(summary.Status)),
		applogger.Int("updated", summary.Count(models.StatusUpdated)),
		applogger.Int("fresh", summary.Count(models.StatusFresh)),
		applogger.Int("stale_kept", summary.Count(models.StatusStaleKept)),
		applogger.Int("failed", summary.Count(models.StatusFailed)),
	)

	if err != nil || summary.Status != models.RunSuccess {
		return 1
	}
	return 0
}

func splitIDs(s string) []string {
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
