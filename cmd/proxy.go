package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gido-dev/gido/internal/logging"
	"github.com/gido-dev/gido/internal/proxy"
)

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Run the chat proxy server",
	Long: `Run an HTTP server that forwards chat requests to OpenRouter.

The server holds the OpenRouter API key (OPENROUTER_API_KEY, proxy.api_key
or proxy.api_key_file) and attaches it to each upstream call, so clients
never see it. Without a key the server still starts, answers /health and
rejects chat requests with "Server not configured".

Endpoints:
  GET  /health     liveness check
  POST /api/chat   {"messages": [...], "model"?, "temperature"?, "max_tokens"?}`,
	Args: cobra.NoArgs,
	RunE: runProxy,
}

var (
	proxyPort     int
	proxyAuditLog string
)

// proxyShutdownTimeout bounds how long in-flight requests may finish.
const proxyShutdownTimeout = 15 * time.Second

func init() {
	proxyCmd.Flags().IntVarP(&proxyPort, "port", "p", 0, "Port to listen on (overrides PORT and the config file)")
	proxyCmd.Flags().StringVar(&proxyAuditLog, "audit-log", "", "Path to request audit log file")
	rootCmd.AddCommand(proxyCmd)
}

func runProxy(cmd *cobra.Command, args []string) error {
	pc := appConfig().Proxy
	if cmd.Flags().Changed("port") {
		pc.Port = proxyPort
	}
	if proxyAuditLog != "" {
		pc.AuditLog = proxyAuditLog
	}

	cfg := proxy.ConfigFrom(pc)
	cfg.Logger = logging.Logger

	server, err := proxy.NewServer(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logInfo("Starting chat proxy on %s", server.Addr())
	logInfo("Upstream: %s", pc.UpstreamURL)
	if !pc.APIKey.IsSet() {
		logWarning("OPENROUTER_API_KEY is not set, chat requests will fail")
	}
	if pc.AuditLog != "" {
		logInfo("Audit log: %s", pc.AuditLog)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info("shutting down proxy server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), proxyShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
