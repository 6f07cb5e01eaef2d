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

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"lendhub/internal/config"
	"lendhub/internal/database"
	_ "lendhub/internal/docs" // Import swagger docs
	"lendhub/internal/handlers"
	"lendhub/internal/logger"
	"lendhub/internal/middleware"
	"lendhub/internal/scheduler"
	"lendhub/internal/services"
	"lendhub/internal/validator"
)

// @title           Lendhub API
// @version         1.0
// @description     Marketplace where vendors list financing opportunities and lenders fund them manually or through auto-invest rules.

// @host      localhost:8080
// @BasePath  /api/v1

//go:generate swag init -g cmd/api/main.go -d ../../ -o ../../internal/docs

func main() {
	logger.Init(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	settings := services.MarketSettings{
		Grades:             appConfig.Market.GradeBands,
		ExpiringWindowDays: appConfig.Market.ExpiringWindowDays,
	}
	auditService := services.NewAuditService(db)
	lenderService := services.NewLenderService(db)
	opportunityService := services.NewOpportunityService(db, lenderService, settings, nil)
	ruleService := services.NewRuleService(db, lenderService, opportunityService, nil)
	investmentService := services.NewInvestmentService(db, lenderService, nil)
	autoInvestService := services.NewAutoInvestService(db, lenderService, ruleService, opportunityService, investmentService, auditService, nil)
	snapshotService := services.NewMarketSnapshotService(db, lenderService, opportunityService, settings)
	sessionService := services.NewQuerySessionService(lenderService, opportunityService, settings, nil)

	validator.Register()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(appConfig.CORSOrigins))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(router.Group("/api/v1"), handlers.Handlers{
		Opportunity: handlers.NewOpportunityHandler(opportunityService, auditService),
		Lender:      handlers.NewLenderHandler(lenderService, auditService),
		Rule:        handlers.NewRuleHandler(ruleService, auditService),
		Investment:  handlers.NewInvestmentHandler(investmentService, auditService),
		AutoInvest:  handlers.NewAutoInvestHandler(autoInvestService, auditService),
		View:        handlers.NewViewHandler(sessionService),
		Market:      handlers.NewMarketHandler(snapshotService),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if appConfig.Scheduler.Enabled {
		jobs := scheduler.New(ctx)
		if err := scheduler.RegisterJobs(jobs, appConfig.Scheduler, opportunityService, autoInvestService, snapshotService); err != nil {
			return fmt.Errorf("failed to schedule jobs: %w", err)
		}
		jobs.Start()
		defer jobs.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Lendhub server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
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

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
