package cmd

import (
	"log"
	"strings"
	"time"

	"lexamen/handlers"
	"lexamen/middleware"
	"lexamen/services"
	"lexamen/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the HTTP API, the profile sync worker and the scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := setup(ctx)
		if err != nil {
			return err
		}
		cfg := rt.cfg

		app := fiber.New(fiber.Config{
			BodyLimit:    1 * 1024 * 1024,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		})

		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(cfg.Origins(), ","),
			AllowMethods:     "GET,POST,OPTIONS",
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
			ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
			AllowCredentials: true,
			MaxAge:           86400, // 24 hours
		}))

		// Unauthenticated and cron-secret routes go first; everything after the
		// secured group requires the gateway token and a user id.
		handlers.SetupHealthRoutes(app, rt.db)
		handlers.SetupCronRoutes(app, rt.leagues, cfg.CronSecret)

		secured := app.Group("/", middleware.GatewayAuthMiddleware(cfg.GatewayToken), middleware.UserContextMiddleware())
		handlers.SetupProgressionRoutes(secured, rt.reviews, rt.quiz)
		handlers.SetupLeagueRoutes(secured, rt.leagues)
		handlers.SetupCausaRoutes(secured, rt.causas)

		if cfg.SyncServiceURL != "" {
			workers.NewStudentSyncWorker(rt.db, cfg.SyncServiceURL, cfg.SyncEndpointPath, cfg.GatewayToken, cfg.SyncInterval()).Start(ctx)
		} else {
			log.Println("⚠️  sync_service_url not set, student profiles will not be mirrored")
		}

		if cfg.EnableScheduler {
			sched := services.NewScheduler(rt.leagues, rt.causas, cfg.RolloverCron, cfg.PendingCausaTTL())
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()
		}

		go func() {
			if err := app.Listen(cfg.Addr); err != nil {
				log.Printf("Server error: %v", err)
			}
		}()

		log.Printf("✅ Server running on %s", cfg.Addr)
		log.Println("✅ GatewayAuthMiddleware enforced on every student route")
		log.Printf("✅ CORS configured for origins: %s", strings.Join(cfg.Origins(), ","))

		<-ctx.Done()
		log.Println("Shutting down server...")
		return app.ShutdownWithTimeout(10 * time.Second)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
