package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marcus/roster/internal/agent"
	"github.com/marcus/roster/internal/db"
	"github.com/marcus/roster/internal/metrics"
	"github.com/marcus/roster/internal/output"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Sync in the background and serve a local status API",
	Long: `Runs until interrupted. Syncs every agent.interval and shortly after the
store changes (agent.debounce), and serves:

  GET  /healthz   liveness
  GET  /status    pending/synchronized counts and the last sync
  POST /sync      run a sync now
  POST /purge     delete synchronized records
  GET  /metrics   Prometheus metrics`,
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := getBaseDir()
		a, err := openApp(dir, true)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			a.cfg.Agent.Listen = listen
		}

		m := metrics.New()
		m.WatchStore(a.store)
		a.engine.Recorder = m
		a.retention.Recorder = m

		cfg := agent.Config{
			Listen:   a.cfg.Agent.Listen,
			Interval: a.cfg.Agent.Interval,
			Debounce: a.cfg.Agent.Debounce,
			Metrics:  m.Handler(),
		}
		if a.cfg.Agent.Watch {
			cfg.WatchDir = filepath.Join(dir, db.DataDir)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ag := agent.New(cfg, a.engine, a.retention, a.reporter, a.logger)
		ag.Trigger()
		a.logger.Info("agent: started", "interval", cfg.Interval, "watch", cfg.WatchDir != "", "endpoint", a.cfg.Sync.URL)
		if err := ag.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		a.logger.Info("agent: stopped")
		return nil
	},
}

func init() {
	agentCmd.Flags().String("listen", "", "listen address (overrides agent.listen)")
	rootCmd.AddCommand(agentCmd)
}
