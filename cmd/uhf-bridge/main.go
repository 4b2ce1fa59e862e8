package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/rfidenter/uhfbridge/pkg/bridge"
	"github.com/rfidenter/uhfbridge/pkg/config"
	"github.com/rfidenter/uhfbridge/pkg/journal/sqlite"
	"github.com/rfidenter/uhfbridge/pkg/logging"
	"github.com/rfidenter/uhfbridge/pkg/uhf"
	"github.com/rfidenter/uhfbridge/pkg/wire"
)

var version = "dev"

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}
	var err error
	switch cmd {
	case "serve":
		err = serveCommand(args)
	case "init":
		err = initCommand(args)
	case "ports":
		err = portsCommand(args)
	case "version":
		fmt.Println("uhf-bridge", version)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "%s error: %v\n", cmd, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: uhf-bridge [command] [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  serve     Bridge REQ lines on stdin to the reader (default)")
	fmt.Fprintln(os.Stderr, "  init      Write a default config file")
	fmt.Fprintln(os.Stderr, "  ports     List serial ports")
	fmt.Fprintln(os.Stderr, "  version   Print version")
}

func serveCommand(args []string) error {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	configPath := fs.String("config", "", "Path to TOML config (optional)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	logFile := fs.String("log-file", "", "Also write logs to this file")
	journalPath := fs.String("journal", "", "Record tags in this SQLite file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFile != "" {
		cfg.Logging.FilePath = *logFile
	}
	if *journalPath != "" {
		cfg.Journal.Enabled = true
		cfg.Journal.DBPath = *journalPath
	}

	logger := logging.New("uhf-bridge")
	if err := logger.Configure(cfg.Logging); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Close()

	if term.IsTerminal(int(os.Stdin.Fd())) {
		logger.Warnf("stdin is a terminal; expecting REQ lines from a front-end process")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Errorf("fatal error: %v", err)
		return err
	}
	return nil
}

func run(ctx context.Context, cfg *config.BridgeConfig, logger *logging.Logger) error {
	metrics := bridge.NewMetrics(nil)
	opts := []bridge.Option{
		bridge.WithLogger(logger),
		bridge.WithDriverLogger(logger.Printer(logging.LevelInfo)),
		bridge.WithMetrics(metrics),
		bridge.WithDefaults(bridge.Defaults{
			Label: cfg.Reader.Label,
			IP:    cfg.Reader.DefaultIP,
			Port:  cfg.Reader.DefaultPort,
		}),
	}

	if cfg.Journal.Enabled {
		store, err := sqlite.Open(cfg.Journal.DBPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer store.Close()
		if err := store.Init(ctx, cfg.Journal.JournalMode, cfg.Journal.Synchronous); err != nil {
			return fmt.Errorf("init journal: %w", err)
		}
		logger.Infof("journaling tags to %s", store.Path())
		opts = append(opts, bridge.WithJournal(store))
	}

	srv := wire.NewServer(wire.NewWriter(os.Stdout), logger)
	vendor := bridge.UHFVendor{Options: []uhf.Option{
		uhf.WithTimeout(cfg.Reader.Timeout()),
		uhf.WithRoundInterval(cfg.Reader.RoundInterval()),
	}}
	b := bridge.New(vendor, srv, opts...)
	b.Register(srv)
	defer b.Close()

	if cfg.Metrics.LogIntervalSec > 0 {
		go metrics.Report(ctx, time.Duration(cfg.Metrics.LogIntervalSec)*time.Second, logger.Writer())
	}

	logger.Infof("bridge ready")
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, os.Stdin) }()
	select {
	case err := <-done:
		logger.Infof("input closed")
		return err
	case <-ctx.Done():
		logger.Infof("shutting down")
		srv.Stop()
		return nil
	}
}

func initCommand(args []string) error {
	fs := pflag.NewFlagSet("init", pflag.ContinueOnError)
	path := fs.String("config", "uhf-bridge.toml", "Config file to write")
	force := fs.Bool("force", false, "Overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := os.Stat(*path); err == nil && !*force {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", *path)
	}
	if err := config.Save(*path, config.Default()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", *path)
	return nil
}

func portsCommand(args []string) error {
	fs := pflag.NewFlagSet("ports", pflag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ports, err := uhf.Ports()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("no serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Println(uhf.PortName(p, runtime.GOOS))
	}
	return nil
}
