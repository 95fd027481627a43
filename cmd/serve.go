package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	config "github.com/drummonds/pdfpages/config"
	database "github.com/drummonds/pdfpages/database"
	engine "github.com/drummonds/pdfpages/engine"
	"github.com/drummonds/pdfpages/webapp"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the browser UI on this machine",
	Long: `Starts a local web server (127.0.0.1 by default) with the converter UI.
Uploaded documents and rendered pages stay in this process's memory.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "listen port (default from SERVER_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort != "" {
		serverConfig.ListenAddrPort = servePort
	}

	// Setup the in-memory job store
	Logger.Info("Setting up job store", "name", serverConfig.DatabaseDbname)
	db, err := database.NewRepository(serverConfig)
	if err != nil {
		return fmt.Errorf("setting up job store: %w", err)
	}
	defer db.Close()
	Logger.Info("Database setup complete")

	conv, err := newConverter(serverConfig)
	if err != nil {
		return err
	}
	defer conv.Renderer.Close()

	e, serverHandler := NewServer(serverConfig, db, conv)
	Logger.Info("Schedules initialized, about to run startup checks")
	if err := serverHandler.StartupChecks(); err != nil { //Run all the sanity checks
		return err
	}
	scheduler := serverHandler.InitializeSchedules()
	defer scheduler.Stop()

	listener, err := listenWithRetry(serverConfig.ListenAddrIP, serverConfig.ListenAddrPort, 5)
	if err != nil {
		return err
	}
	e.Listener = listener

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- e.Start("")
	}()
	fmt.Printf("pdfpages is running at http://%s/\n", listener.Addr())
	Logger.Info("HTTP server started", "address", listener.Addr().String())

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	Logger.Info("Shutting down, discarding all sessions")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// NewServer builds the echo instance with the API and the UI registered
func NewServer(cfg config.ServerConfig, db database.Repository, conv *engine.Converter) (*echo.Echo, *engine.ServerHandler) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	Logger.Info("Echo created")

	// Custom 404 handler
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		// For 404 errors, serve custom HTML page
		if code == http.StatusNotFound {
			// Check if this is an API request
			if strings.HasPrefix(c.Request().URL.Path, "/api/") {
				// Return JSON for API endpoints
				c.JSON(http.StatusNotFound, engine.ErrorResponse{
					Error:   "Not Found",
					Message: "The requested API endpoint does not exist: " + c.Request().URL.Path,
				})
				return
			}

			c.HTML(http.StatusNotFound, `<!DOCTYPE html>
<html>
<head><title>404 - Not Found</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 50px;">
	<h1>404 - Page Not Found</h1>
	<p>The page you're looking for doesn't exist.</p>
	<a href="/" style="color: #3498db; text-decoration: none; font-size: 18px;">← Back to the converter</a>
</body>
</html>`)
			return
		}

		// For other errors, use default handler
		e.DefaultHTTPErrorHandler(err, c)
	}

	serverHandler := &engine.ServerHandler{
		DB:           db,
		Echo:         e,
		ServerConfig: cfg,
		Converter:    conv,
		Sessions:     engine.NewSessionStore(cfg.SessionTTL),
		Archiver:     engine.ZipArchiver{Compression: cfg.ArchiveCompression},
	}

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				Logger.Warn("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "error", v.Error)
				return nil
			}
			Logger.Debug("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	// only this machine's own origins may call the API
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     localOrigins(cfg),
		AllowCredentials: true,
	}))
	e.Use(middleware.Recover())

	Logger.Info("Setting up go-app WASM UI")
	appHandler := webapp.Handler()

	// Register go-app specific resources
	e.GET("/app.js", echo.WrapHandler(appHandler))
	e.GET("/app.css", echo.WrapHandler(appHandler))
	e.GET("/wasm_exec.js", echo.WrapHandler(appHandler))
	e.GET("/manifest.webmanifest", echo.WrapHandler(appHandler))
	// app.wasm is read by the go-app handler from ./web next to the binary
	e.GET("/web/*", echo.WrapHandler(appHandler))

	e.GET("/webapp/webapp.css", func(c echo.Context) error {
		return c.Blob(http.StatusOK, "text/css", webapp.Stylesheet)
	})

	// Inject backend API URL into the page
	e.GET("/config.js", func(c echo.Context) error {
		configJS := fmt.Sprintf(`
// pdfpages Frontend Configuration
window.pdfpages_config = {
    apiURL: %q,
    defaultFormat: %q,
    maxUploadMB: %d
};
`, cfg.ServerAPIURL, cfg.DefaultFormat, cfg.MaxUploadMB)
		c.Response().Header().Set("Content-Type", "application/javascript")
		return c.String(http.StatusOK, configJS)
	})

	serverHandler.RegisterRoutes()

	// Serve go-app handler for all other routes (must be last)
	// The WASM app handles its own client-side routing and 404s via NotFoundPage component
	e.Any("/*", echo.WrapHandler(appHandler))

	return e, serverHandler
}

func localOrigins(cfg config.ServerConfig) []string {
	origins := []string{}
	for _, host := range []string{"127.0.0.1", "localhost", cfg.ListenAddrIP} {
		if host == "" {
			continue
		}
		origins = append(origins, "http://"+net.JoinHostPort(host, cfg.ListenAddrPort))
	}
	return origins
}

// listenWithRetry binds ip:port, trying the next port up to attempts times
// when the address is already in use
func listenWithRetry(ip, port string, attempts int) (net.Listener, error) {
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", port, err)
	}
	startPort := portNum

	for attempt := 0; attempt < attempts; attempt++ {
		addr := net.JoinHostPort(ip, strconv.Itoa(portNum))
		Logger.Info("Attempting to start server", "address", addr, "attempt", attempt+1)

		listener, err := net.Listen("tcp", addr)
		if err == nil {
			if portNum != startPort {
				Logger.Warn("Server started on alternative port due to conflicts",
					"requested_port", startPort,
					"actual_port", portNum)
			}
			return listener, nil
		}
		if !isAddressInUse(err) {
			return nil, fmt.Errorf("listening on %s: %w", addr, err)
		}
		Logger.Warn("Port already in use, trying next port",
			"port", portNum,
			"attempt", attempt+1,
			"max_attempts", attempts)
		portNum++
	}

	Logger.Error("Failed to find available port after maximum retries",
		"start_port", startPort,
		"end_port", portNum-1,
		"max_retries", attempts)
	return nil, fmt.Errorf("no free port between %d and %d", startPort, portNum-1)
}

// isAddressInUse checks if the error is due to address already in use
func isAddressInUse(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	return strings.Contains(err.Error(), "address already in use")
}
