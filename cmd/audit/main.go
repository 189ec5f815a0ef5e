package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"tradeaudit/internal/config"
	cronrunner "tradeaudit/internal/cron"
	"tradeaudit/internal/db"
	"tradeaudit/internal/handler"
	"tradeaudit/internal/logger"
	gormrepository "tradeaudit/internal/repository/gorm"
	"tradeaudit/internal/service"
	"tradeaudit/internal/venue/rest"

	_ "tradeaudit/docs"
)

func main() {
	cfgPath := os.Getenv("TA_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("TA_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	venueHTTP := &http.Client{Timeout: cfg.Venue.Timeout}
	venueClient := rest.NewClient(venueHTTP, cfg.Venue.BaseURL, cfg.FillSync.PageLimit, cfg.FillSync.MaxPages)
	store := gormrepository.New(dbConn.Gorm)

	syncService := &service.FillSyncService{
		Store:        store,
		Source:       venueClient,
		Logger:       logger,
		LookbackDays: cfg.FillSync.LookbackDays,
	}
	equityService := &service.EquitySnapshotService{
		Store:  store,
		Source: venueClient,
		Logger: logger,
	}
	queryService := &service.AuditQueryService{
		Store:       store,
		Equity:      equityService,
		Logger:      logger,
		CapitalCap:  parseCapitalCap(cfg.Leaderboard.CapitalCap, logger),
		MaxAccounts: cfg.Leaderboard.MaxAccounts,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	tradeHandler := &handler.TradeHandler{Query: queryService}
	tradeHandler.Register(engine)
	positionHandler := &handler.PositionHandler{Query: queryService}
	positionHandler.Register(engine)
	lifecycleHandler := &handler.LifecycleHandler{Query: queryService}
	lifecycleHandler.Register(engine)
	pnlHandler := &handler.PnLHandler{Query: queryService}
	pnlHandler.Register(engine)
	leaderboardHandler := &handler.LeaderboardHandler{
		Query:         queryService,
		DefaultMetric: cfg.Leaderboard.DefaultMetric,
	}
	leaderboardHandler.Register(engine)
	depositHandler := &handler.DepositHandler{Query: queryService}
	depositHandler.Register(engine)
	syncHandler := &handler.SyncHandler{
		Sync:            syncService,
		Query:           queryService,
		DefaultAccounts: cfg.FillSync.Accounts,
	}
	syncHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/swagger/index.html")
	})

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)
		if cfg.FillSync.Enabled && len(cfg.FillSync.Accounts) > 0 {
			_, err := cronRunner.Add(cfg.Cron.FillSync, func(ctx context.Context) {
				result, err := syncService.Sync(ctx, service.SyncOptions{Accounts: cfg.FillSync.Accounts})
				if err != nil {
					logger.Warn("cron fill sync failed", zap.Error(err))
					return
				}
				logger.Info("cron fill sync ok",
					zap.String("run_id", result.RunID),
					zap.Int("accounts", result.Accounts),
					zap.Int("fills", result.Fills),
					zap.Int("deposits", result.Deposits),
					zap.Int("snapshots", result.Snapshots),
					zap.Int("lifecycles", result.Lifecycles),
					zap.Int("errors", len(result.Errors)),
				)
			})
			if err != nil {
				logger.Warn("cron register fill sync failed", zap.Error(err))
			}
		}
		if cfg.EquitySnapshot.Enabled && len(cfg.FillSync.Accounts) > 0 {
			_, err := cronRunner.Add(cfg.Cron.Equity, func(ctx context.Context) {
				result, err := equityService.Snapshot(ctx, cfg.FillSync.Accounts)
				if err != nil {
					logger.Warn("cron equity snapshot failed", zap.Error(err))
					return
				}
				logger.Info("cron equity snapshot ok",
					zap.Int("accounts", result.Accounts),
					zap.Int("errors", len(result.Errors)),
				)
			})
			if err != nil {
				logger.Warn("cron register equity snapshot failed", zap.Error(err))
			}
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	if cfg.FillStream.Enabled && cfg.Venue.WSURL != "" {
		stream := rest.NewFillStream(rest.FillStreamOptions{
			URL:      cfg.Venue.WSURL,
			Accounts: cfg.FillSync.Accounts,
			Logger:   logger,
		})
		streamService := &service.FillStreamService{
			Store:  store,
			Stream: stream,
			Logger: logger,
		}
		go func() {
			if err := streamService.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("fill stream stopped", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func parseCapitalCap(raw string, logger *zap.Logger) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	capValue, err := decimal.NewFromString(raw)
	if err != nil {
		if logger != nil {
			logger.Warn("invalid leaderboard capital cap, ignoring", zap.String("value", raw), zap.Error(err))
		}
		return nil
	}
	if !capValue.IsPositive() {
		return nil
	}
	return &capValue
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
