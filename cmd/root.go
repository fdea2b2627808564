package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/metalblueberry/fretscribe/internal/config"
	"github.com/metalblueberry/fretscribe/internal/observe"
	"github.com/metalblueberry/fretscribe/internal/session"
	"github.com/metalblueberry/fretscribe/internal/source"
)

var (
	configPath string
	logLevel   string
	tuningName string
	mode       string
	jsonOutput bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fretscribe",
	Short: "Guitar pitch detection and fretboard transcription",
	Long: `fretscribe listens to a guitar, estimates the pitch of what is played
and tells where on the fretboard it is played.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVar(&logLevel, "log-level", "", "override the log level (debug, info, warn, error)")
	flags.StringVarP(&tuningName, "tuning", "t", "", "override the tuning by name")
	flags.StringVarP(&mode, "mode", "m", "", "override the session mode (single, chord)")
	flags.BoolVar(&jsonOutput, "json", false, "write output as JSON to stdout")
}

/*
 * Execute runs the root command.
 */
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

/*
 * setup loads the configuration, applies flag overrides and installs the
 * default logger.
 */
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Default()
	}

	if logLevel != "" {
		cfg.LogLevel = config.LogLevel(logLevel)
	}
	if tuningName != "" {
		cfg.Tuning.Name = tuningName
		cfg.Tuning.Strings = nil
	}
	if mode != "" {
		cfg.Session.Mode = config.Mode(mode)
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	return nil
}

/*
 * signalContext returns a context cancelled on SIGINT or SIGTERM.
 */
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

/*
 * newSink returns the event sink selected by the output flags.
 */
func newSink(cmd *cobra.Command) session.Sink {
	if jsonOutput {
		return session.NewJSONSink(cmd.OutOrStdout())
	}
	return session.NewLogSink(slog.Default())
}

/*
 * runSession drives src through a new session until it is exhausted or
 * the process is interrupted.
 */
func runSession(cmd *cobra.Command, src source.Source) error {
	defer src.Close()

	if rate := src.SampleRate(); rate > 0 {
		cfg.Pitch.SampleRate = rate
	}
	s, err := session.New(cfg,
		session.WithSink(newSink(cmd)),
		session.WithMetrics(observe.DefaultMetrics()),
	)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	slog.Info("session started",
		"session_id", s.ID(),
		"tuning", cfg.Tuning.Name,
		"mode", cfg.Session.Mode,
		"sample_rate", src.SampleRate(),
		"realtime", src.Realtime(),
	)
	err = s.Run(ctx, src)
	if ctx.Err() != nil {
		slog.Info("session stopped", "session_id", s.ID())
		return nil
	}
	if err != nil {
		return fmt.Errorf("session %s: %w", s.ID(), err)
	}
	slog.Info("session finished", "session_id", s.ID())
	return nil
}
