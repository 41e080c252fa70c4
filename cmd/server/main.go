// Command server serves field access decisions over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fieldaccess/internal/admin"
	"fieldaccess/internal/auth"
	"fieldaccess/internal/config"
	"fieldaccess/internal/engine"
	"fieldaccess/internal/logging"
	"fieldaccess/internal/metadata"
	"fieldaccess/internal/store"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "server",
		Short:        "Serve field access decisions over HTTP.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// 1. Load config
			cfg, err := config.Load(configPath)
			if err != nil {
				return errors.Wrap(err, "load config")
			}

			// 2. Logger
			log, err := logging.New(cfg.Log)
			if err != nil {
				return errors.Wrap(err, "create logger")
			}
			defer log.Sync()

			if err := run(cmd.Context(), cfg, log); err != nil {
				log.Error("server stopped", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default ./app.yaml)")
	return cmd
}

func run(parent context.Context, cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("config loaded",
		zap.Int("port", cfg.Server.Port),
		zap.String("driver", cfg.Database.Driver),
		zap.String("database", cfg.Database.Name),
	)

	// 3. Connect to database
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("database connected")

	// 4. Bootstrap system tables
	if err := db.Bootstrap(ctx); err != nil {
		return err
	}
	if err := db.SeedAdminKey(ctx, cfg.AdminKeySecret, log); err != nil {
		return err
	}
	log.Info("system tables ready")

	// 5. Create registry and load metadata, then seed from file
	reg := metadata.NewRegistry()
	if err := metadata.LoadAll(ctx, db, reg, log); err != nil {
		log.Warn("failed to load metadata", zap.Error(err))
	}

	eval := engine.NewExprLangEvaluator()
	adminHandler := admin.NewHandler(db, reg, eval, cfg.EntitiesFile, log)

	seed, err := adminHandler.LoadSeed()
	if err != nil {
		return err
	}
	if seed != nil {
		added := reg.Merge(seed)
		log.Info("entities file loaded", zap.String("file", cfg.EntitiesFile), zap.Int("added", added))
	}

	// 6. Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          engine.NewErrorHandler(log),
		DisableStartupMessage: true,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	// 7. Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "entities": reg.Len()})
	})

	// 8. Auth routes (no auth required)
	authHandler := auth.NewAuthHandler(db, cfg.JWTSecret, time.Duration(cfg.TokenTTL)*time.Second, log)
	auth.RegisterAuthRoutes(app, authHandler)

	authMW := auth.AuthMiddleware(cfg.JWTSecret, log)

	// 9. Admin routes (auth + admin required)
	admin.RegisterAdminRoutes(app, adminHandler, authMW, auth.RequireAdmin())

	// 10. Access routes (auth required)
	accessHandler := engine.NewHandler(reg, eval, log)
	engine.RegisterAccessRoutes(app, accessHandler, authMW)

	// 11. Start server, stop on SIGINT/SIGTERM
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Info("starting server", zap.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}
