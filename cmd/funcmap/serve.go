package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/yousuf/funcmap/internal/config"
	"github.com/yousuf/funcmap/internal/funcmap"
	"github.com/yousuf/funcmap/internal/server"
	"github.com/yousuf/funcmap/internal/session"
	"github.com/yousuf/funcmap/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Serve the funcmap tools over MCP streamable HTTP. Maps listed in the config
are loaded into the store at startup.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default: config, $PORT or 8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	st, err := store.New(store.Config{Path: cfg.Store.Path})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if err := preloadMaps(st, cfg.Maps); err != nil {
		return err
	}

	ctx := context.Background()
	opts := []session.Option{session.WithDevelopment(cfg.Development)}
	if cfg.Parser != nil {
		p, closeParser, err := openParser(ctx, cfg.Parser)
		if err != nil {
			return err
		}
		defer closeParser()
		opts = append(opts, session.WithParser(p))
		log.Printf("Using %s parser", cfg.Parser.Type)
	}

	sessionMgr := session.NewManager(st, opts...)
	return listen(cfg, sessionMgr)
}

// preloadMaps stores every configured map file under its configured name.
// Enriched maps must decode.
func preloadMaps(st store.Store, maps map[string]string) error {
	for name, path := range maps {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading map %q: %w", name, err)
		}
		m, err := funcmap.ParseAny(data)
		if err != nil {
			return fmt.Errorf("parsing map %q: %w", name, err)
		}
		if m.Enriched() {
			if _, err := funcmap.NewDecoder(m); err != nil {
				return fmt.Errorf("invalid function mappings in map %q: %w", name, err)
			}
		}
		if err := st.Put(name, m); err != nil {
			return fmt.Errorf("storing map %q: %w", name, err)
		}
		log.Printf("[STORE] Loaded %q from %s (enriched: %t)", name, path, m.Enriched())
	}
	return nil
}

func listen(cfg *config.Config, sessionMgr *session.Manager) error {
	mcpServer := server.NewMcpServer(sessionMgr)
	handler := mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return mcpServer
	}, &mcp.StreamableHTTPOptions{
		Stateless:      false,
		JSONResponse:   false,
		SessionTimeout: 0,
	})

	port := strconv.Itoa(cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Printf("funcmap MCP server listening on port %s", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	}

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if err := sessionMgr.CloseAll(); err != nil {
		log.Printf("Error closing sessions: %v", err)
	}

	log.Println("Server stopped")
	return nil
}
