// Command track-editor starts the race track editor server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, profile and session storage, logging, and optional
// ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/track-editor/api"
	"github.com/wricardo/track-editor/game/config"
	"github.com/wricardo/track-editor/game/service"
	"github.com/wricardo/track-editor/game/session"
	"github.com/wricardo/track-editor/pkg/logger"
	"github.com/wricardo/track-editor/transport/mcp"
	"github.com/wricardo/track-editor/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Race Track Editor Server"
)

const (
	storeFile   = "file"
	storeSQLite = "sqlite"
)

// serverConfig holds the resolved command-line settings
type serverConfig struct {
	Host            string
	Port            int
	ConfigDir       string
	SessionsDir     string
	Store           string
	DBPath          string
	Compress        bool
	SessionTTL      time.Duration
	CleanupInterval time.Duration
	LogLevel        string
	LogFormat       string
	Ngrok           bool
	NgrokAuth       string
	NgrokDomain     string
}

func (c serverConfig) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// services bundles what the transports need plus the background workers to stop
type services struct {
	editor  service.EditorService
	manager *session.Manager
	closers []func() error
}

func (s *services) Close() {
	if err := s.manager.SaveAllSessions(); err != nil {
		logger.Log.WithError(err).Warn("failed to save sessions on shutdown")
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.Log.WithError(err).Warn("shutdown step failed")
		}
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
		&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
		&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing editor profiles", Sources: cli.EnvVars("CONFIG_DIR")},
		&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "Directory for session files (file store)", Sources: cli.EnvVars("SESSIONS_DIR")},
		&cli.StringFlag{Name: "store", Value: storeFile, Usage: "Session store: file or sqlite", Sources: cli.EnvVars("SESSION_STORE")},
		&cli.StringFlag{Name: "db-path", Value: "sessions/sessions.db", Usage: "SQLite database path (sqlite store)", Sources: cli.EnvVars("DB_PATH")},
		&cli.BoolFlag{Name: "compress", Usage: "Write session files zstd-compressed", Sources: cli.EnvVars("SESSION_COMPRESS")},
		&cli.DurationFlag{Name: "session-ttl", Value: 24 * time.Hour, Usage: "Drop sessions idle for longer than this", Sources: cli.EnvVars("SESSION_TTL")},
		&cli.DurationFlag{Name: "cleanup-interval", Value: time.Hour, Usage: "How often idle sessions are dropped", Sources: cli.EnvVars("CLEANUP_INTERVAL")},
		&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Log level (debug, info, warn, error)", Sources: cli.EnvVars("LOG_LEVEL")},
		&cli.StringFlag{Name: "log-format", Value: "text", Usage: "Log format (text or json)", Sources: cli.EnvVars("LOG_FORMAT")},
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
		&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
		&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
	}
}

func configFromCommand(cmd *cli.Command) serverConfig {
	return serverConfig{
		Host:            cmd.String("host"),
		Port:            int(cmd.Int("port")),
		ConfigDir:       cmd.String("config-dir"),
		SessionsDir:     cmd.String("sessions-dir"),
		Store:           cmd.String("store"),
		DBPath:          cmd.String("db-path"),
		Compress:        cmd.Bool("compress"),
		SessionTTL:      cmd.Duration("session-ttl"),
		CleanupInterval: cmd.Duration("cleanup-interval"),
		LogLevel:        cmd.String("log-level"),
		LogFormat:       cmd.String("log-format"),
		Ngrok:           cmd.Bool("ngrok"),
		NgrokAuth:       cmd.String("ngrok-auth"),
		NgrokDomain:     cmd.String("ngrok-domain"),
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	serve := func(ctx context.Context, cmd *cli.Command) error {
		cfg := configFromCommand(cmd)
		logger.InitWith(cfg.LogLevel, cfg.LogFormat, os.Stdout)
		return runServer(ctx, cfg)
	}

	return &cli.Command{
		Name:    "track-editor",
		Usage:   AppName,
		Version: Version,
		Flags:   commonFlags(),
		Action:  serve,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Flags:   commonFlags(),
				Action:  serve,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Flags:   commonFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg := configFromCommand(cmd)
					// stdout carries the MCP protocol
					logger.InitWith(cfg.LogLevel, cfg.LogFormat, os.Stderr)
					return runStdioMCP(ctx, cfg)
				},
			},
		},
	}
}

// main loads .env, then runs the selected mode until interrupted.
func main() {
	// Load .env file if it exists (ignore error if not found)
	envErr := godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if envErr != nil && !os.IsNotExist(envErr) {
		logger.Log.WithError(envErr).Warn("error loading .env file")
	}

	if err := newApp().Run(ctx, os.Args); err != nil {
		logger.Log.WithError(err).Fatal("server failed")
	}
}

// initializeServices wires the profile and session managers and the editor service.
// It also starts the background routines that prune idle and deleted sessions.
func initializeServices(ctx context.Context, cfg serverConfig) (*services, error) {
	log := logger.WithComponent("main")

	configManager, err := config.NewManager(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	svc := &services{}

	var persistence session.SessionPersistence
	switch cfg.Store {
	case storeFile, "":
		fp, err := session.NewFilePersistence(cfg.SessionsDir, configManager, session.WithCompression(cfg.Compress))
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		persistence = fp
	case storeSQLite:
		sp, err := session.NewSQLitePersistence(cfg.DBPath, configManager)
		if err != nil {
			return nil, fmt.Errorf("failed to open session database: %w", err)
		}
		persistence = sp
		svc.closers = append(svc.closers, sp.Close)
	default:
		return nil, fmt.Errorf("unknown session store %q (use %s or %s)", cfg.Store, storeFile, storeSQLite)
	}

	svc.manager = session.NewManagerWithPersistence(persistence)
	if err := svc.manager.LoadPersistedSessions(); err != nil {
		log.WithError(err).Warn("failed to load persisted sessions")
	}

	svc.editor = service.NewEditorService(svc.manager, configManager)

	go sessionCleanupRoutine(ctx, svc.manager, cfg.CleanupInterval, cfg.SessionTTL)

	if fp, ok := persistence.(*session.FilePersistence); ok {
		watcher, err := session.NewWatcher(fp.Dir(), svc.manager, fp)
		if err != nil {
			log.WithError(err).Warn("file watcher unavailable, falling back to polling")
			go storeSyncRoutine(ctx, svc.manager, persistence)
		} else {
			svc.closers = append(svc.closers, watcher.Close)
		}
	} else {
		go storeSyncRoutine(ctx, svc.manager, persistence)
	}

	log.WithFields(logrus.Fields{
		"store":    cfg.Store,
		"sessions": svc.manager.Count(),
	}).Info("services initialized")

	return svc, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the provided retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration) {
	if interval <= 0 || maxAge <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				logger.WithComponent("main").WithField("removed", removed).Info("cleaned up expired sessions")
			}
		}
	}
}

// storeSyncRoutine polls the store and drops in-memory sessions deleted behind our back
func storeSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := session.PruneOrphans(manager, persistence); pruned > 0 {
				logger.WithComponent("main").WithField("pruned", pruned).Info("store sync: pruned orphaned sessions from memory")
			}
		}
	}
}

// newMCPHandler serves single JSON-RPC messages on POST /mcp
func newMCPHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// newRouter mounts the API at the root and the MCP proxy at /mcp
func newRouter(editorService service.EditorService, hub *websocket.Hub, baseURL string) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", api.NewServer(editorService, hub))
	mainRouter.HandleFunc("/mcp", newMCPHandler(mcp.NewClient(baseURL)))
	return mainRouter
}

// runServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runServer(ctx context.Context, cfg serverConfig) error {
	log := logger.WithComponent("main")
	log.WithField("version", Version).Infof("starting %s", AppName)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	svc, err := initializeServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	addr := cfg.addr()
	handler := newRouter(svc.editor, hub, "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.WithFields(logrus.Fields{
			"rest": fmt.Sprintf("http://%s/api", addr),
			"ws":   fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp":  fmt.Sprintf("http://%s/mcp", addr),
		}).Infof("HTTP server listening on %s", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if cfg.Ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cfg, handler)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serverErr:
		cancel()
		wg.Wait()
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info("server stopped")
	return nil
}

// runNgrok exposes handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, cfg serverConfig, handler http.Handler) {
	log := logger.WithComponent("ngrok")

	if cfg.NgrokAuth == "" {
		log.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		log.WithField("domain", cfg.NgrokDomain).Info("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuth))
	if err != nil {
		log.WithError(err).Error("failed to start ngrok tunnel")
		return
	}

	ngrokURL := tun.URL()
	log.WithFields(logrus.Fields{
		"rest": ngrokURL + "/api",
		"ws":   ngrokURL + "/ws?session=<session_id>",
		"mcp":  ngrokURL + "/mcp",
	}).Infof("ngrok tunnel established: %s", ngrokURL)

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.WithError(err).Warn("failed to close ngrok tunnel")
		}
	}()

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.WithError(err).Warn("ngrok server error")
	}
	log.Info("ngrok tunnel closed")
}

// externalAPIAvailable reports whether an editor API already answers at baseURL
func externalAPIAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/healthz")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server.
// It reuses an external API at host:port when one is running; otherwise it
// starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCP(ctx context.Context, cfg serverConfig) error {
	log := logger.WithComponent("main")

	baseURL := "http://" + cfg.addr()
	log.WithField("url", baseURL).Info("checking for external API server")

	if externalAPIAvailable(baseURL) {
		log.WithField("url", baseURL).Info("external API server found, using it for MCP")
	} else {
		log.Info("no external API server found, starting internal HTTP server")

		svc, err := initializeServices(ctx, cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		hub := websocket.NewHub()
		go hub.Run()
		defer hub.Stop()

		httpServer := &http.Server{Handler: api.NewServer(svc.editor, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		log.WithField("url", baseURL).Info("internal HTTP server started for MCP stdio")
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
