package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chen-dev/chen/internal/dev"
	"github.com/chen-dev/chen/internal/errors"
	"github.com/chen-dev/chen/pkg/virtual"
)

func devCmd() *cobra.Command {
	var (
		port        int
		host        string
		openBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server",
		Long: `Start the development server.

The dev server serves the route module at /@id/virtual:chen-routes,
watches the pages directory and reloads connected browsers whenever a
page is added, changed, or removed. Route errors are shown in an
overlay until they are fixed.

Examples:
  chen dev
  chen dev --port=8080
  chen dev --host=0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(port, host, openBrowser)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from chen.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from chen.json)")
	cmd.Flags().BoolVarP(&openBrowser, "open", "o", false, "Open browser on start")

	return cmd
}

func runDev(port int, host string, openBrowser bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if port > 0 {
		cfg.Dev.Port = port
	}
	if host != "" {
		cfg.Dev.Host = host
	}

	logger := newLogger()
	defer logger.Sync()

	printBanner()
	info("Local:  %s", cfg.DevURL())
	info("Pages:  %s", cfg.PagesPath())
	info("Module: %s%s", cfg.DevURL(), dev.ModulePathPrefix+virtual.PublicID)
	fmt.Println()

	server := dev.NewServer(dev.ServerOptions{
		Config: cfg,
		Logger: logger,
		OnReload: func(clients int) {
			success("Routes changed, reloaded %d browsers", clients)
		},
		OnError: func(err error) {
			errors.PrintError(err)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if openBrowser {
		go openURL(cfg.DevURL())
	}

	if err := server.Start(ctx); err != nil {
		return err
	}
	fmt.Println()
	info("Shutting down...")
	return nil
}

// openURL opens a URL in the default browser.
func openURL(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		warn("Could not open browser: %v", err)
	}
}
