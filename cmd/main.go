// Package main is the entry point for poolwatch.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/upstreamlab/poolwatch/internal/accesslog"
	"github.com/upstreamlab/poolwatch/internal/config"
	"github.com/upstreamlab/poolwatch/internal/monitoring"
	"github.com/upstreamlab/poolwatch/internal/notify"
	"github.com/upstreamlab/poolwatch/internal/statusapi"
	"github.com/upstreamlab/poolwatch/internal/tailer"
	"github.com/upstreamlab/poolwatch/internal/watcher"
)

// ANSI color codes
const (
	poolBlue = "\033[38;2;32;110;176m" // #206eb0
	bold     = "\033[1m"
	reset    = "\033[0m"
)

// ASCII banner for startup
const banner = `
 ██████╗  ██████╗  ██████╗ ██╗     ██╗    ██╗ █████╗ ████████╗ ██████╗██╗  ██╗
 ██╔══██╗██╔═══██╗██╔═══██╗██║     ██║    ██║██╔══██╗╚══██╔══╝██╔════╝██║  ██║
 ██████╔╝██║   ██║██║   ██║██║     ██║ █╗ ██║███████║   ██║   ██║     ███████║
 ██╔═══╝ ██║   ██║██║   ██║██║     ██║███╗██║██╔══██║   ██║   ██║     ██╔══██║
 ██║     ╚██████╔╝╚██████╔╝███████╗╚███╔███╔╝██║  ██║   ██║   ╚██████╗██║  ██║
 ╚═╝      ╚═════╝  ╚═════╝ ╚══════╝ ╚══╝╚══╝ ╚═╝  ╚═╝   ╚═╝    ╚═════╝╚═╝  ╚═╝
`

func printBanner() {
	fmt.Print(poolBlue + bold + banner + reset + "\n")
}

// loadEnvFiles loads .env from standard locations
func loadEnvFiles() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		_ = godotenv.Load()
		return
	}

	// Try loading from ~/.config/poolwatch/.env first
	configEnv := filepath.Join(homeDir, ".config", "poolwatch", ".env")
	if _, err := os.Stat(configEnv); err == nil {
		_ = godotenv.Load(configEnv)
	}

	// Also load local .env (can override)
	_ = godotenv.Load()
}

func main() {
	// Handle subcommands first (before flags)
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "watch", "run":
			runWatch(os.Args[2:])
			return
		case "version", "-v", "--version":
			PrintVersion()
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	// Default: watch the access log
	runWatch(os.Args[1:])
}

// resolveWatchConfig resolves the config for the watch command.
// Checks: user flag -> filesystem locations -> embedded config.
// Returns raw bytes and source description.
func resolveWatchConfig(userConfig string) ([]byte, string, error) {
	// If user specified a config path, read it directly
	if userConfig != "" {
		data, err := os.ReadFile(userConfig)
		if err != nil {
			return nil, "", fmt.Errorf("config file not found: %s", userConfig)
		}
		return data, userConfig, nil
	}

	homeDir, _ := os.UserHomeDir()

	// Search filesystem in order of preference
	searchPaths := []string{}
	if homeDir != "" {
		searchPaths = append(searchPaths,
			filepath.Join(homeDir, ".config", "poolwatch", "config.yaml"),
		)
	}
	searchPaths = append(searchPaths, "configs/config.yaml")

	for _, path := range searchPaths {
		if data, err := os.ReadFile(path); err == nil {
			return data, path, nil
		}
	}

	// Fall back to embedded config
	if data, err := getEmbeddedConfig("config"); err == nil {
		return data, "(embedded) config.yaml", nil
	}

	return nil, "", fmt.Errorf("no config file found. Specify --config path")
}

// runWatch starts the log watcher
func runWatch(args []string) {
	// Load .env files from standard locations
	loadEnvFiles()

	// Parse flags
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	logFile := fs.String("log-file", "", "access log to follow (overrides config)")
	debug := fs.Bool("debug", false, "enable debug logging")
	noBanner := fs.Bool("no-banner", false, "suppress startup banner")
	_ = fs.Parse(args) // ExitOnError handles errors

	// Print banner unless suppressed
	if !*noBanner {
		printBanner()
	}

	// Logging with defaults until the config file is read
	monitoring.Global(resolveLogFormat(config.Default().Log, *debug))

	// Resolve config from filesystem
	configData, configSource, err := resolveWatchConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("No config file found. Specify --config path")
	}

	log.Info().
		Str("version", Version).
		Str("config", configSource).
		Msg("Pool watcher starting")

	// Load configuration from bytes
	cfg, err := config.LoadFromBytes(configData)
	if err != nil {
		log.Fatal().Err(err).Str("config", configSource).Msg("failed to load configuration")
	}
	if *logFile != "" {
		cfg.Watch.LogFile = *logFile
	}

	// Re-apply logging with the file's settings
	cfg.Log = resolveLogFormat(cfg.Log, *debug)
	monitoring.Global(cfg.Log)

	log.Info().
		Str("log_file", cfg.Watch.LogFile).
		Int("window_size", cfg.Alerts.WindowSize).
		Float64("error_rate_threshold", cfg.Alerts.ErrorRateThreshold).
		Dur("cooldown", cfg.Alerts.Cooldown).
		Bool("status_api", cfg.StatusAPI.Enabled).
		Msg("configuration loaded")

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("watcher error")
	}

	log.Info().Msg("Pool watcher stopped")
}

// run wires the tail source, detectors, sinks and status API together and
// blocks until shutdown.
func run(cfg *config.Config) error {
	logger := monitoring.New(cfg.Log)
	metrics := monitoring.NewMetricsCollector()
	flags := monitoring.NewAlertManager(logger, monitoring.AlertConfig{})

	tracker, err := monitoring.NewTracker(cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}

	sinks, err := buildSinks(cfg.Notify)
	if err != nil {
		return fmt.Errorf("sink setup: %w", err)
	}
	if len(sinks) == 0 {
		log.Warn().Msg("No alert sink configured, running in log-only mode")
	}

	dispatcher := notify.NewDispatcher(notify.Options{
		Sinks:       sinks,
		QueueSize:   cfg.Notify.QueueSize,
		HistorySize: cfg.Notify.HistorySize,
		Timeout:     cfg.Notify.Timeout,
		Metrics:     metrics,
		Tracker:     tracker,
		Flags:       flags,
	})
	dispatcher.Start()
	defer dispatcher.Stop()

	w := watcher.New(watcher.Config{
		WindowSize:         cfg.Alerts.WindowSize,
		ErrorRateThreshold: cfg.Alerts.ErrorRateThreshold,
		AlertCooldown:      cfg.Alerts.Cooldown,
		LogFormat:          accesslog.Format(cfg.Watch.LogFormat),
	}, dispatcher, metrics, tracker)

	tl, err := tailer.Follow(cfg.Watch.LogFile, tailer.Options{
		FromStart: cfg.Watch.FromStart,
		Poll:      cfg.Watch.Poll,
	})
	if err != nil {
		return fmt.Errorf("follow %s: %w", cfg.Watch.LogFile, err)
	}
	defer func() {
		if err := tl.Stop(); err != nil {
			log.Error().Err(err).Msg("tailer stop error")
		}
	}()

	var api *statusapi.Server
	if cfg.StatusAPI.Enabled {
		api = statusapi.New(cfg.StatusAPI, Version, w, dispatcher, logger, flags)
		go func() {
			if err := api.Start(); err != nil {
				log.Error().Err(err).Msg("status API error")
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigChan:
			log.Info().Msg("shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()

	runErr := w.Run(ctx, tl.Lines())

	if api != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelShutdown()
		if err := api.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("status API shutdown error")
		}
	}

	return runErr
}

// buildSinks constructs the configured notification sinks. An empty list is
// not an error: the dispatcher then runs in log-only mode.
func buildSinks(cfg config.NotifyConfig) ([]notify.Sink, error) {
	var sinks []notify.Sink

	if cfg.SlackWebhookURL != "" {
		sinks = append(sinks, notify.NewSlackSink(cfg.SlackWebhookURL, cfg.Timeout))
	}

	if cfg.WebhookURL != "" {
		sink, err := notify.NewWebhookSink(notify.WebhookOptions{
			URL:      cfg.WebhookURL,
			Template: cfg.WebhookTemplate,
			Headers:  cfg.WebhookHeaders,
			Timeout:  cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	if cfg.SNS.TopicARN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		sink, err := notify.NewSNSSink(ctx, cfg.SNS.TopicARN, cfg.SNS.Region, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	return sinks, nil
}

// resolveLogFormat settles the "auto" log format: console on a terminal,
// JSON otherwise. The debug flag forces the level regardless of config.
func resolveLogFormat(cfg config.LogConfig, debug bool) config.LogConfig {
	if debug {
		cfg.Level = "debug"
	}
	if cfg.Format == "auto" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			cfg.Format = "console"
		} else {
			cfg.Format = "json"
		}
	}
	return cfg
}

// printHelp prints usage information
func printHelp() {
	printBanner()
	fmt.Println("poolwatch - blue/green pool failover and error rate watcher")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  poolwatch [options]")
	fmt.Println("  poolwatch [command] [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  (none)       Watch the access log (default)")
	fmt.Println("  watch        Watch the access log")
	fmt.Println("  version      Print version information")
	fmt.Println("  help         Show this help message")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config FILE    Config file (default: configs/config.yaml, then embedded)")
	fmt.Println("  --log-file FILE  Access log to follow (overrides config)")
	fmt.Println("  --debug          Enable debug logging")
	fmt.Println("  --no-banner      Suppress startup banner")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  LOG_FILE, SLACK_WEBHOOK_URL, ERROR_RATE_THRESHOLD, WINDOW_SIZE and")
	fmt.Println("  ALERT_COOLDOWN_SEC override the corresponding config settings.")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  poolwatch                          Watch with embedded defaults")
	fmt.Println("  poolwatch --log-file ./access.log  Watch a local file")
	fmt.Println("  poolwatch watch --debug            Watch with debug logging")
}
