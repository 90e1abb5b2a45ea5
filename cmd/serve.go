package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	authclient "github.com/vibast-solutions/lib-go-auth/client"
	authmiddleware "github.com/vibast-solutions/lib-go-auth/middleware"
	authlibservice "github.com/vibast-solutions/lib-go-auth/service"
	"github.com/vibast-solutions/ms-go-onboarding/app/controller"
	"github.com/vibast-solutions/ms-go-onboarding/app/metrics"
	"github.com/vibast-solutions/ms-go-onboarding/app/repository"
	"github.com/vibast-solutions/ms-go-onboarding/app/service"
	"github.com/vibast-solutions/ms-go-onboarding/app/tenantapi"
	"github.com/vibast-solutions/ms-go-onboarding/app/wizard"
	"github.com/vibast-solutions/ms-go-onboarding/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP (Echo) server for the onboarding service.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	store, closeStore, err := newWizardStore(cfg, db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize wizard store")
	}
	defer closeStore()

	tenantClient := tenantapi.NewHTTPClient(
		cfg.InternalEndpoints.TenantServiceBaseURL,
		cfg.InternalEndpoints.TenantServiceAPIKey,
		cfg.InternalEndpoints.TenantServiceTimeout,
	)

	m := metrics.New(prometheus.NewRegistry())
	planRepo := repository.NewPlanRepository(db)
	sessionRegistry := service.NewSessionRegistry(store)
	recoveryService := service.NewProgressRecoveryService(tenantClient, m)
	onboardingService := service.NewOnboardingService(sessionRegistry, planRepo, recoveryService, tenantClient, m)
	onboardingController := controller.NewOnboardingController(onboardingService)

	authGRPCClient, err := authclient.NewGRPCClientFromAddr(context.Background(), cfg.InternalEndpoints.AuthGRPCAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize auth gRPC client")
	}
	defer authGRPCClient.Close()
	internalAuthService := authlibservice.NewInternalAuthService(authGRPCClient)
	echoInternalAuthMiddleware := authmiddleware.NewEchoInternalAuthMiddleware(internalAuthService)

	e := setupHTTPServer(onboardingController, m, echoInternalAuthMiddleware, cfg.App.ServiceName)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}

	logrus.Info("Server stopped")
}

func newWizardStore(cfg *config.Config, db *sql.DB) (wizard.KeyValueStore, func(), error) {
	if cfg.Onboarding.Store == config.StoreRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		closeStore := func() {
			if err := client.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close redis client")
			}
		}
		return repository.NewRedisKeyValueStore(client, cfg.Onboarding.SessionTTL), closeStore, nil
	}

	return repository.NewMySQLKeyValueStore(db), func() {}, nil
}

func setupHTTPServer(
	onboardingController *controller.OnboardingController,
	m *metrics.Metrics,
	internalAuthMiddleware *authmiddleware.EchoInternalAuthMiddleware,
	appServiceName string,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: func() string {
			return fmt.Sprintf("rest-%s", uuid.New().String())
		},
	}))

	e.GET("/health", onboardingController.Health)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	registerRoutes(e.Group("", internalAuthMiddleware.RequireInternalAccess(appServiceName)), onboardingController)

	return e
}

func registerRoutes(g *echo.Group, onboardingController *controller.OnboardingController) {
	g.GET("/plans", onboardingController.ListPlans)

	sessions := g.Group("/onboarding/sessions")
	sessions.POST("", onboardingController.OpenSession)
	sessions.GET("/:id", onboardingController.GetSession)
	sessions.POST("/:id/basic-info", onboardingController.SubmitBasicInfo)
	sessions.PUT("/:id/plan", onboardingController.SelectPlan)
	sessions.PUT("/:id/billing-cycle", onboardingController.SetBillingCycle)
	sessions.PUT("/:id/branches", onboardingController.SetBranchCount)
	sessions.PATCH("/:id/branches/:index", onboardingController.RenameBranch)
	sessions.PUT("/:id/addons/:addonID", onboardingController.SelectAddon)
	sessions.DELETE("/:id/addons/:addonID", onboardingController.RemoveAddon)
	sessions.GET("/:id/pricing", onboardingController.GetPricing)
	sessions.POST("/:id/steps/complete", onboardingController.CompleteStep)
	sessions.POST("/:id/steps/previous", onboardingController.PreviousStep)
	sessions.POST("/:id/payment/callback", onboardingController.PaymentCallback)
	sessions.POST("/:id/payment/retry", onboardingController.RetryPayment)
	sessions.POST("/:id/finish", onboardingController.Finish)
}
