package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/learnnova/coursematch/internal/api"
	"github.com/learnnova/coursematch/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recommendations over HTTP (and MCP on stdio with --mcp)",
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		port, _ := cmd.Flags().GetInt("port")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if port > 0 {
			cfg.Server.Port = port
		}
		return runServer(cmd.Context(), cfg, withMCP)
	},
}

func init() {
	serveCmd.Flags().Bool("mcp", false, "also serve the MCP protocol on stdin/stdout")
	serveCmd.Flags().Int("port", 0, "listen port (default from server.port)")
}

func runServer(parent context.Context, cfg config.Config, withMCP bool) error {
	fmt.Fprintf(os.Stderr, "coursematch version %s\n", version)

	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, closeSrc, err := openSource(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening %s source: %w", cfg.Source.Driver, err)
	}
	defer func() {
		if err := closeSrc(); err != nil {
			slog.Warn("closing data source", "error", err)
		}
	}()

	eng := newEngine(src, cfg)
	if cfg.API.Token == "" {
		slog.Warn("COURSEMATCH_API_TOKEN not set; /v1 endpoints are unauthenticated")
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr: addr,
		Handler: api.NewHandler(api.Deps{
			Recommender: eng,
			Token:       cfg.API.Token,
			Logger:      slog.Default(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	if withMCP {
		stdioSrv := server.NewStdioServer(api.NewMCPServer(eng, version))
		go func() {
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
		}()
		slog.Info("MCP server started (stdio transport)")
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr, "source", cfg.Source.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
