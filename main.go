// Command hexstones starts the hex stones puzzle server.
//
// It supports three commands:
//  1. "serve" (default) – runs the HTTP server exposing the REST API, WebSocket updates and an /mcp endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "schema" – prints the JSON schema of level config files
//
// Flags control host/port, config directory, session storage, logging and
// optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/hexstones/api"
	"github.com/wricardo/hexstones/game/config"
	"github.com/wricardo/hexstones/game/engine"
	"github.com/wricardo/hexstones/game/service"
	"github.com/wricardo/hexstones/game/session"
	"github.com/wricardo/hexstones/transport/mcp"
	"github.com/wricardo/hexstones/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Hexstones Server"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	envErr := godotenv.Load()

	cmd := newCommand()
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: error loading .env file: %v\n", envErr)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "hexstones",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("HEXSTONES_PORT", "PORT"),
			},
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HEXSTONES_HOST"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing level configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "store",
				Value:   "file",
				Usage:   "Session storage: file, sqlite or memory",
				Sources: cli.EnvVars("HEXSTONES_STORE"),
			},
			&cli.StringFlag{
				Name:    "sessions-dir",
				Value:   "sessions",
				Usage:   "Directory for file session storage",
				Sources: cli.EnvVars("HEXSTONES_SESSIONS_DIR"),
			},
			&cli.StringFlag{
				Name:    "db",
				Value:   "hexstones.db",
				Usage:   "SQLite database path for sqlite session storage",
				Sources: cli.EnvVars("HEXSTONES_DB"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("HEXSTONES_DEBUG"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "Log format: text or json",
				Sources: cli.EnvVars("HEXSTONES_LOG_FORMAT"),
			},
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "ngrok",
						Usage:   "Enable ngrok tunnel",
						Sources: cli.EnvVars("NGROK_ENABLED"),
					},
					&cli.StringFlag{
						Name:    "ngrok-auth",
						Usage:   "Ngrok auth token",
						Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
					},
					&cli.StringFlag{
						Name:    "ngrok-domain",
						Usage:   "Custom ngrok domain (optional)",
						Sources: cli.EnvVars("NGROK_DOMAIN"),
					},
				},
				Action: runServe,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api-url",
						Value:   "http://localhost:8080",
						Usage:   "External API to reuse when it is reachable",
						Sources: cli.EnvVars("HEXSTONES_API_URL"),
					},
				},
				Action: runStdioMCP,
			},
			{
				Name:  "schema",
				Usage: "Print the JSON schema of level config files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "Write the schema to this file instead of stdout",
					},
				},
				Action: runSchema,
			},
		},
	}
}

// newLogger builds the process logger. MCP stdio mode owns stdout, so logs
// always go to stderr.
func newLogger(w io.Writer, debug bool, format string) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: debug}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// serviceOptions is the subset of flags initializeServices needs.
type serviceOptions struct {
	ConfigDir   string
	Store       string
	SessionsDir string
	DBPath      string
}

func serviceOptionsFrom(cmd *cli.Command) serviceOptions {
	return serviceOptions{
		ConfigDir:   cmd.String("config-dir"),
		Store:       cmd.String("store"),
		SessionsDir: cmd.String("sessions-dir"),
		DBPath:      cmd.String("db"),
	}
}

// services bundles everything the transports share.
type services struct {
	Game        service.GameService
	Sessions    *session.Manager
	Persistence session.SessionPersistence
	Hub         *websocket.Hub

	closers []func() error
}

// Close resolves pending chain reactions and saves every session through the
// game service, then releases storage.
func (s *services) Close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Game.Shutdown(ctx); err != nil {
		logger.Error("failed to save sessions", "error", err)
	}
	for _, c := range s.closers {
		if err := c(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}
}

// initializeServices wires config and session managers, the websocket hub and
// the game service.
func initializeServices(opts serviceOptions, logger *slog.Logger) (*services, error) {
	configManager, err := config.NewManagerWithLogger(opts.ConfigDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	s := &services{}
	switch opts.Store {
	case "file", "":
		p, err := session.NewFilePersistence(opts.SessionsDir, configManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		s.Persistence = p
	case "sqlite":
		p, err := session.NewSQLitePersistence(opts.DBPath, configManager)
		if err != nil {
			return nil, fmt.Errorf("failed to open session database: %w", err)
		}
		s.Persistence = p
		s.closers = append(s.closers, p.Close)
	case "memory":
	default:
		return nil, fmt.Errorf("unknown session store %q (use file, sqlite or memory)", opts.Store)
	}

	managerOpts := []session.Option{session.WithLogger(logger)}
	if s.Persistence != nil {
		managerOpts = append(managerOpts, session.WithPersistence(s.Persistence))
	}
	s.Sessions = session.NewManager(managerOpts...)

	if err := s.Sessions.LoadPersistedSessions(); err != nil {
		logger.Warn("failed to load persisted sessions", "error", err)
	}

	s.Hub = websocket.NewHub(logger)
	s.Game = service.NewGameService(s.Sessions, configManager,
		service.WithNotifier(s.Hub),
		service.WithLogger(logger),
	)
	return s, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, logger *slog.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(24 * time.Hour); removed > 0 {
				logger.Info("cleaned up expired sessions", "count", removed)
			}
		}
	}
}

// storageSyncRoutine drops in-memory sessions whose stored copy was deleted
// out from under the server.
func storageSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, logger *slog.Logger) {
	if persistence == nil {
		return
	}
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned := 0
			for _, sess := range manager.List() {
				if !persistence.Exists(sess.ID) {
					if err := manager.DeleteFromMemory(sess.ID); err == nil {
						pruned++
						logger.Debug("pruned session from memory", "session", sess.ID)
					}
				}
			}
			if pruned > 0 {
				logger.Info("storage sync pruned orphaned sessions", "count", pruned)
			}
		}
	}
}

// runServe starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled it also provisions a public tunnel.
func runServe(ctx context.Context, cmd *cli.Command) error {
	logger := newLogger(os.Stderr, cmd.Bool("debug"), cmd.String("log-format"))
	logger.Info("starting", "app", AppName, "version", Version)

	svcs, err := initializeServices(serviceOptionsFrom(cmd), logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); svcs.Hub.Run(ctx) }()
	go func() { defer wg.Done(); sessionCleanupRoutine(ctx, svcs.Sessions, logger) }()
	go func() { defer wg.Done(); storageSyncRoutine(ctx, svcs.Sessions, svcs.Persistence, logger) }()

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	apiServer := api.NewServer(svcs.Game, svcs.Hub, logger)
	mcpClient := mcp.NewClient("http://" + addr)
	apiServer.Mount("/mcp", mcpClient.HTTPHandler())

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      apiServer,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			"addr", addr,
			"api", "http://"+addr+"/api",
			"ws", "ws://"+addr+"/ws?session=<session_id>",
			"mcp", "http://"+addr+"/mcp")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), apiServer, logger)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			stop()
			wg.Wait()
			svcs.Close(logger)
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	wg.Wait()
	svcs.Close(logger)
	logger.Info("server stopped")
	return nil
}

func runNgrok(ctx context.Context, authToken, domain string, handler http.Handler, logger *slog.Logger) {
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	logger.Info("starting ngrok tunnel")
	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Info("using custom ngrok domain", "domain", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", "error", err)
		return
	}

	url := tun.URL()
	logger.Info("ngrok tunnel established",
		"url", url,
		"api", url+"/api",
		"ws", url+"/ws?session=<session_id>",
		"mcp", url+"/mcp")

	srv := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("ngrok server error", "error", err)
	}
	logger.Info("ngrok tunnel closed")
}

// runStdioMCP runs an MCP stdio server. It reuses the external API when one
// answers; otherwise it starts an internal HTTP API on a random loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	logger := newLogger(os.Stderr, cmd.Bool("debug"), cmd.String("log-format"))

	baseURL := cmd.String("api-url")
	logger.Info("checking for external API server", "url", baseURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		logger.Info("external API server found, using it for MCP", "url", baseURL)
	} else {
		logger.Info("no external API server found, starting internal HTTP server")

		svcs, err := initializeServices(serviceOptionsFrom(cmd), logger)
		if err != nil {
			return err
		}
		defer svcs.Close(logger)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go svcs.Hub.Run(ctx)

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		httpServer := &http.Server{Handler: api.NewServer(svcs.Game, svcs.Hub, logger)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("internal HTTP server error", "error", err)
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		logger.Info("internal HTTP server started", "url", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready")
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

func buildConfigSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := reflector.Reflect(new(engine.GameConfig))
	schema.Title = "Hexstones Level Config"
	schema.Description = "Level configuration files loaded from the config directory"
	return schema
}

func runSchema(ctx context.Context, cmd *cli.Command) error {
	data, err := json.MarshalIndent(buildConfigSchema(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	data = append(data, '\n')

	out := cmd.String("out")
	if out == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	tmp := out + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	if err := os.Rename(tmp, out); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}
