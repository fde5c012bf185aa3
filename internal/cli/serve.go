package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/artemshloyda/photoresizer/internal/mcp"
)

// newServeCmd создаёт команду serve.
func newServeCmd() *cobra.Command {
	var (
		transport string
		port      int
		apiKey    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Запустить MCP сервер для управления наблюдением",
		Long: `Запускает сервер Model Context Protocol с инструментами
configure_folders, configure_policy, run_initial_pass, start_watching,
stop_watching, get_status и poll_events.

Транспорты:
  stdio: стандартный ввод/вывод (по умолчанию)
  sse:   Server-Sent Events по HTTP (нужен API ключ)
  http:  Streamable HTTP (нужен API ключ)

Папки и политику можно задать флагами или позже через инструменты.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			server := mcpserver.NewServer(a.svc, Version, a.logger)

			switch transport {
			case "stdio":
				a.logger.Info("MCP сервер запущен на stdio")
				return server.RunStdio(ctx)
			case "sse":
				return serveHTTP(ctx, server.NewHTTPHandler(), "SSE", port, apiKey)
			case "http":
				return serveHTTP(ctx, server.NewStreamableHTTPHandler(), "HTTP", port, apiKey)
			default:
				return fmt.Errorf("неизвестный транспорт: %s (доступны: stdio, sse, http)", transport)
			}
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Транспорт: stdio, sse или http")
	cmd.Flags().IntVar(&port, "port", 8080, "Порт для HTTP/SSE")
	cmd.Flags().StringVar(&apiKey, "serve-api-key", "", "API ключ для HTTP (или PHOTORESIZER_SERVE_API_KEY)")

	return cmd
}

func serveHTTP(ctx context.Context, handler http.Handler, name string, port int, apiKey string) error {
	if apiKey == "" {
		apiKey = os.Getenv("PHOTORESIZER_SERVE_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("для HTTP сервера нужен API ключ: --serve-api-key или PHOTORESIZER_SERVE_API_KEY")
	}

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:              addr,
		Handler:           mcpserver.APIKeyMiddleware(apiKey, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(os.Stderr, "Запуск MCP %s сервера на http://localhost%s\n", name, addr)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
