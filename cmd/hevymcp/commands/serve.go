package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/gymkit/hevymcp/catalog"
	"github.com/gymkit/hevymcp/config"
	"github.com/gymkit/hevymcp/errors"
	"github.com/gymkit/hevymcp/logger"
	"github.com/gymkit/hevymcp/server"
	"github.com/gymkit/hevymcp/version"
)

// ServeCmd starts the MCP server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the MCP server",
	Long: `Start the MCP server exposing the exercise search tools.

With the stdio transport (default) the server speaks JSON-RPC on stdin/stdout
and must be launched by an MCP client. Logs always go to stderr.

With the http transport the server listens on server.host:server.port and
serves the streamable HTTP endpoint at /mcp plus /health and Prometheus /metrics.`,
	RunE: runServe,
}

var (
	serveTransport string
	servePort      int
	serveWatch     bool
)

func init() {
	ServeCmd.Flags().StringVarP(&serveTransport, "transport", "t", "", "Transport: stdio or http (overrides server.transport)")
	ServeCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port (overrides server.port)")
	ServeCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload the catalog when its files change (overrides catalog.watch)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if serveTransport != "" {
		cfg.Server.Transport = serveTransport
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("watch") {
		cfg.Catalog.Watch = serveWatch
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	log := logger.ComponentLogger("server")

	store := newStore(cfg)
	ranker, err := newRanker(cfg)
	if err != nil {
		return err
	}

	opts := server.Options{
		Store:        store,
		Ranker:       ranker,
		DefaultLimit: cfg.Search.DefaultLimit,
		Logger:       log,
	}
	if cfg.HasAPIKey() {
		client, err := newHevyClient(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to create Hevy client")
		}
		opts.Hevy = client
	} else {
		log.Infow("No Hevy API key configured, serving the local catalog only")
	}

	// Load eagerly so a missing catalog shows up at startup rather than on
	// the first tool call
	snap := store.Snapshot()
	if err := store.Err(); err != nil {
		log.Warnw("Catalog unavailable, search will return no results",
			logger.FieldPath, cfg.Catalog.Path,
			logger.FieldError, err)
	} else {
		log.Infow("Catalog loaded",
			logger.FieldPath, cfg.Catalog.Path,
			logger.FieldCount, snap.Len(),
			"translations", len(snap.Translations))
	}

	if cfg.Catalog.Watch {
		watcher, err := catalog.NewWatcher(store, catalog.DefaultDebounce, logger.ComponentLogger("catalog-watcher"))
		if err != nil {
			log.Warnw("Catalog watching disabled", logger.FieldError, err)
		} else {
			watcher.OnReload(func(s *catalog.Snapshot) {
				log.Infow("Catalog reloaded", logger.FieldCount, s.Len())
			})
			watcher.Start()
			defer watcher.Stop()
		}
	}

	srv := server.New(opts)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
		case <-ctx.Done():
			return
		}
		log.Infow("Shutting down gracefully (signal again to force)")
		cancel()
		select {
		case <-sigChan:
			log.Warnw("Force shutdown - exiting immediately")
			os.Exit(1)
		case <-time.After(server.ShutdownTimeout + time.Second):
		}
	}()

	if cfg.Server.Transport == config.TransportStdio {
		// stdout belongs to the protocol: no banner
		return srv.ServeStdio(ctx)
	}

	printServeBanner(cfg, snap.Len())
	if err := srv.ServeHTTP(ctx, cfg.Address()); err != nil {
		return err
	}
	pterm.Success.Println("Server stopped cleanly")
	return nil
}

// printServeBanner prints the HTTP startup summary
func printServeBanner(cfg *config.Config, exercises int) {
	info := version.Get()
	pterm.DefaultHeader.WithFullWidth().Printf("%s %s", version.Name, info.Version)
	pterm.Println()
	if !info.Release {
		pterm.Warning.Printf("Development build (commit %s)\n", info.Short())
	}
	pterm.Info.Printf("MCP endpoint:  http://%s%s\n", cfg.Address(), server.MCPEndpoint)
	pterm.Info.Printf("Health check:  http://%s/health\n", cfg.Address())
	pterm.Info.Printf("Metrics:       http://%s/metrics\n", cfg.Address())
	pterm.Info.Printf("Catalog:       %s (%d exercises)\n", cfg.Catalog.Path, exercises)
	if cfg.HasAPIKey() {
		pterm.Info.Println("Hevy API:      enabled")
	} else {
		pterm.Warning.Println("Hevy API:      disabled (set HEVY_API_KEY to look up ids missing from the catalog)")
	}
	pterm.Println()
	fmt.Println("Press Ctrl+C to stop")
}
