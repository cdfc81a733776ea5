package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"siriuswatch/internal/config"
	"siriuswatch/internal/metrics"
	"siriuswatch/internal/server"
)

var (
	cfgFile string
	verbose bool
	logger  *zap.Logger
	cfg     *config.Config
)

func setupLogger(verbose bool, logCfg *config.LoggingConfig) (*zap.Logger, error) {
	var zapConfig zap.Config
	if verbose {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.DisableStacktrace = true
	}

	// Set log level from config
	if logCfg != nil && logCfg.Level != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(logCfg.Level)); err == nil {
			zapConfig.Level = zap.NewAtomicLevelAt(level)
		}
	}

	// Add file output if enabled
	if logCfg != nil && logCfg.Enabled {
		if err := os.MkdirAll(logCfg.Directory, 0755); err != nil {
			return nil, fmt.Errorf("creating logs directory: %w", err)
		}
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		logFile := filepath.Join(logCfg.Directory, fmt.Sprintf("siriuswatch_%s.log", timestamp))
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, logFile)
	}

	return zapConfig.Build()
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "siriuswatch",
		Short:        "Watch Sirius course events and post them to Discord",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return err
			}
			logger, err = setupLogger(verbose, &cfg.Logging)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the poll loop until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon()
		},
	}

	onceCmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single poll cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce()
		},
	}

	rootCmd.AddCommand(runCmd, onceCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runOnce() error {
	app, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app.poller.RunCycle(ctx)
	return nil
}

func runDaemon() error {
	app, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if cfg.Server.Enabled {
		metrics.Register()
		srv := server.New(cfg.Server.Addr, app.poller, logger)
		go srv.Start(ctx)
	}

	interval := time.Duration(cfg.Poll.IntervalMinutes) * time.Minute
	logger.Info("daemon started",
		zap.Duration("interval", interval),
		zap.Int("courses", len(app.state.Courses)),
		zap.Int("channels", len(app.state.Channels)))

	// A cycle that outlives the interval skips the next fire instead
	// of stacking.
	cronLogger := zapCronLogger{logger: logger}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger)))
	c.Schedule(cron.Every(interval), cron.FuncJob(func() {
		app.poller.RunCycle(ctx)
	}))

	// First cycle fires immediately; cron handles the rest.
	app.poller.RunCycle(ctx)
	c.Start()

	sig := <-sigCh
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	cancel()

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(10 * time.Second):
		logger.Warn("timed out waiting for running cycle")
	}

	return nil
}

// zapCronLogger adapts zap to the cron.Logger interface.
type zapCronLogger struct {
	logger *zap.Logger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
