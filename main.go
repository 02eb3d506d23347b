package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homeserve-backend/config"
	"homeserve-backend/models"
	"homeserve-backend/routes"
	"homeserve-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	printRoutesFlag bool

	rootCmd = &cobra.Command{
		Use:   "homeserve",
		Short: "HomeServe booking marketplace backend",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadConfig()
			config.InitLogger()
			if config.IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP server",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.ConnectDB()
			if err := models.Migrate(config.DB); err != nil {
				return err
			}
			config.Logger.Info("migrations applied")
			return nil
		},
	}
)

func main() {
	serveCmd.Flags().BoolVar(&printRoutesFlag, "print-routes", false, "print registered routes on startup")
	rootCmd.AddCommand(serveCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	log := config.Logger
	defer log.Sync()

	config.ConnectDB()
	if err := models.Migrate(config.DB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := buildServices(ctx, config.DB, log)
	go svc.Registry.Run(ctx)

	r := routes.SetupRouter(svc, log)
	if printRoutesFlag {
		printRoutes(r)
	}

	srv := &http.Server{
		Addr:              ":" + config.AppConfig.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildServices wires the optional integrations from config. Twilio,
// Cloudinary and Redis are each skipped when not configured.
func buildServices(ctx context.Context, db *gorm.DB, log *zap.Logger) routes.Services {
	cfg := config.AppConfig

	var notifier services.Notifier = services.LogNotifier{Log: log}
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioPhoneNumber != "" {
		notifier = services.NewTwilioNotifier(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
		log.Info("sms notifications enabled")
	}
	dispatcher := services.NewDispatcher(notifier, log)

	var media services.MediaStore
	if cfg.CloudinaryCloudName != "" {
		store, err := services.NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, "homeserve")
		if err != nil {
			log.Warn("photo uploads disabled", zap.Error(err))
		} else {
			media = store
		}
	}

	var cache services.DirectoryCache
	if cfg.RedisAddr != "" {
		ttl := time.Duration(cfg.DirectoryCacheTTL) * time.Second
		rc, err := services.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, ttl)
		if err != nil {
			log.Warn("directory cache disabled", zap.Error(err))
		} else {
			cache = rc
		}
	}

	charge, err := decimal.NewFromString(cfg.ServiceCharge)
	if err != nil {
		log.Warn("invalid SERVICE_CHARGE, using default", zap.String("value", cfg.ServiceCharge))
		charge = services.DefaultServiceCharge
	}

	availability := services.NewAvailabilityService(db, cfg.BookingHorizonDays)
	directory := services.NewDirectoryService(db, availability, cache, log)
	registry := services.NewRegistry()

	return routes.Services{
		DB:           db,
		Accounts:     services.NewAccountService(db, directory),
		Bookings:     services.NewBookingService(db, dispatcher, charge),
		Invoices:     services.NewInvoiceService(db, dispatcher),
		Reviews:      services.NewReviewService(db),
		Availability: availability,
		Directory:    directory,
		Messaging:    services.NewMessagingService(db, registry, log),
		Registry:     registry,
		Media:        media,
	}
}

func printRoutes(r *gin.Engine) {
	for _, route := range r.Routes() {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
