package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"bitrot-detector/core/loader"
	"bitrot-detector/core/logger"
	"bitrot-detector/core/middleware/auth"
	"bitrot-detector/core/middleware/rayid"
	"bitrot-detector/feature/integrity"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "bitrot-detector/docs/swagger"
)

// @title Bit-rot Detector API
// @version 1.0
// @description Inspects and drives integrity scans of a volume.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve [root]",
	Short: "Start the HTTP API for a volume",
	Long:  `Starts the HTTP server exposing the record store of the volume and a scan trigger.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Configuration, logger and record store
		env, err := loadEnvironment(args)
		if err != nil {
			return err
		}
		defer env.Close()
		logg := env.logger
		zap.ReplaceGlobals(logg)

		// 2. Optional report archive
		archiver, err := env.archiver()
		if err != nil {
			logg.Warn("Report archive unavailable", zap.Error(err))
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 3. Features
		mgr := loader.NewManager(logg)
		mgr.Register(integrity.NewFeature(env.root, env.db, env.cfg.Scan, archiver, logg))

		// RayID must be first to trace everything
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Swagger documentation is public
		app.Get("/swagger/*", swagger.HandlerDefault)

		app.Use(auth.New(auth.Config{ApiKey: env.cfg.Server.ApiKey}))
		if !env.cfg.Server.IsProtected() {
			logg.Warn("No API key configured, the API is unprotected")
		}

		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		// 4. Start server
		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("address", env.cfg.Server.Address()))
			errCh <- app.Listen(env.cfg.Server.Address())
		}()

		// 5. Graceful shutdown
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logg.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), env.cfg.Server.ShutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
