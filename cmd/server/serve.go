package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"repoexplorer/internal/handler"
	"repoexplorer/internal/hub"
	"repoexplorer/internal/loader"
	"repoexplorer/internal/logging"
	"repoexplorer/internal/repository"
	"repoexplorer/internal/repository/sqlite"
	"repoexplorer/internal/service"
	"repoexplorer/internal/watcher"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logging.Sync()

	log := logging.L()
	log.Info("starting explorer server",
		logging.String("addr", cfg.Server.Addr),
		logging.Path(cfg.Database.Path))
	log.Debug("configuration", logging.String("summary", cfg.Summary()))

	// Initialize SQLite repository
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect event bus to SSE hub
	eventBus := service.NewEventBus()
	sseHub := hub.New()
	go sseHub.Run(ctx)
	sseHub.Bridge(ctx, eventBus)

	h := handler.NewExplorerHandler(repo, eventBus, handler.Options{
		DefaultPageSize: cfg.Explorer.DefaultPageSize,
		MaxPageSize:     cfg.Explorer.MaxPageSize,
	})

	// Register configured node types, then follow their files when asked to
	types := &typeRegistrar{repo: repo, svc: h.NodeTypes()}
	for _, path := range cfg.Explorer.TypeDefinitions {
		if err := types.registerFile(ctx, path); err != nil {
			return err
		}
	}
	if cfg.Explorer.WatchTypeDefinitions && len(cfg.Explorer.TypeDefinitions) > 0 {
		w := watcher.New(cfg.Explorer.TypeDefinitions, func(path string) {
			if err := types.registerFile(ctx, path); err != nil {
				log.Error("failed to re-register node types", logging.Path(path), logging.Err(err))
			}
		})
		go func() {
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("type definition watcher stopped", logging.Err(err))
			}
		}()
	}

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler.NewRouter(h, sseHub),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", logging.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

func runRegisterTypes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logging.Sync()

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()

	types := &typeRegistrar{repo: repo, svc: service.NewNodeTypeService(service.NewEventBus())}
	for _, path := range args {
		if err := types.registerFile(cmd.Context(), path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered node types from %s\n", path)
	}
	return nil
}

// typeRegistrar registers node type definition files, one session per file
type typeRegistrar struct {
	repo repository.Repository
	svc  *service.NodeTypeService
}

func (r *typeRegistrar) registerFile(ctx context.Context, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defs, err := loader.LoadYAML(path)
	if err != nil {
		return fmt.Errorf("failed to load node types from %s: %w", path, err)
	}

	sess, err := r.repo.Login(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer sess.Logout()

	if _, err := r.svc.Register(ctx, sess, defs); err != nil {
		return fmt.Errorf("failed to register node types from %s: %w", path, err)
	}
	return nil
}
