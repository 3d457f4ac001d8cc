package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"sixrouter/config"
	"sixrouter/console"
	"sixrouter/netio"
	"sixrouter/router"
)

const version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sixrouter",
		Short: "a userspace IPv6 router",
	}
	root.AddCommand(runCmd(), versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the sixrouter version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	var (
		configPath  string
		logLevel    string
		withConsole bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "start the router",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRouter(configPath, logLevel, withConsole)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to the YAML configuration file")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "debug|info|warn|error")
	cmd.Flags().BoolVar(&withConsole, "console", false, "run the interactive operator console")
	cmd.MarkFlagRequired("config")

	return cmd
}

func runRouter(configPath, logLevel string, withConsole bool) error {
	logger, closeLog, err := newLogger(logLevel, withConsole)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	r := router.NewRouter(logger)

	sockets := make(map[string]*netio.RawSocket)
	for _, ifc := range cfg.Interfaces {
		sock, err := netio.OpenRawSocket(ifc.Name)
		if err != nil {
			logger.Error("failed to open device", "device", ifc.Name, "err", err)
			os.Exit(1)
		}
		sockets[ifc.Name] = sock
		r.RegisterDevice(&router.Device{Name: ifc.Name, MAC: sock.MAC(), Sink: sock})
	}

	if err := cfg.Apply(r); err != nil {
		logger.Error("failed to apply configuration", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer func() {
		for _, sock := range sockets {
			sock.Close()
		}
	}()

	frames := make(chan netio.Frame, 64)
	dumpRequests := make(chan router.DumpRequest)

	for name, sock := range sockets {
		dev, _ := r.Device(name)
		go netio.Run(ctx, sock, dev, frames)
	}

	go dispatch(ctx, r, frames, dumpRequests)

	logger.Info("sixrouter started", "devices", len(sockets), "console", withConsole)

	if withConsole {
		m := console.NewModel(dumpRequests)
		p := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("console error: %w", err)
		}
		return nil
	}

	waitForSignal()
	return nil
}

// dispatch is the single goroutine that owns the FIB and neighbor cache:
// it drains received frames and operator-console dump requests, calling
// into the router core exactly as spec.md §5 requires of "one serial
// consumer".
func dispatch(ctx context.Context, r *router.Router, frames <-chan netio.Frame, dumpRequests <-chan router.DumpRequest) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-frames:
			r.Receive(f.Device, f.Bytes)
		case req := <-dumpRequests:
			r.HandleDumpRequest(req)
		}
	}
}

func waitForSignal() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	<-sigs
}

// newLogger builds a structured logger. When the console is active, log
// output goes to a file instead of stderr so it doesn't corrupt the
// Bubble Tea alt screen, matching the teacher's own main.go.
func newLogger(levelName string, toFile bool) (*slog.Logger, func(), error) {
	level := parseLogLevel(levelName)
	opts := &slog.HandlerOptions{Level: level}

	if !toFile {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), func() {}, nil
	}

	f, err := os.OpenFile("sixrouter.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, opts)), func() { f.Close() }, nil
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
