package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-reservation/internal/api"
	"github.com/sanosuguru/go-flight-reservation/internal/api/handler"
	custommiddleware "github.com/sanosuguru/go-flight-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-flight-reservation/internal/application"
	"github.com/sanosuguru/go-flight-reservation/internal/config"
	"github.com/sanosuguru/go-flight-reservation/internal/infrastructure/opensky"
	"github.com/sanosuguru/go-flight-reservation/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-flight-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-flight-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-reservation/internal/pkg/metrics"
	"github.com/sanosuguru/go-flight-reservation/internal/worker"
)

func main() {
	cfg := config.Load()
	defer logger.Sync()

	m := metrics.Init()

	// PostgreSQL接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.MigrationsPath != "" {
		if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
			logger.Fatal("マイグレーションに失敗", zap.Error(err))
		}
	}

	// Redis接続（任意。接続できない場合はロックとキャッシュなしで稼働する）
	var (
		lockManager *redisinfra.LockManager
		seatCache   *redisinfra.SeatCache
	)
	redisClient := redisinfra.NewClient(&cfg.Redis)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisinfra.Ping(pingCtx, redisClient); err != nil {
		logger.Warn("Redis接続に失敗。ロックとキャッシュを無効化します", zap.Error(err))
		redisClient = nil
	} else {
		lockManager = redisinfra.NewLockManager(redisClient)
		seatCache = redisinfra.NewSeatCache(redisClient)
		defer redisClient.Close()
	}
	cancelPing()

	// リポジトリとサービス
	txManager := postgres.NewTxManager(db)
	flightRepo := postgres.NewFlightRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)
	airlineRepo := postgres.NewAirlineRepository(db)
	userRepo := postgres.NewUserRepository(db)

	feedClient := opensky.NewClient(&cfg.Feed)

	bookingService := application.NewBookingService(txManager, reservationRepo, flightRepo, lockManager, seatCache)
	flightService := application.NewFlightService(flightRepo, airlineRepo, seatCache, feedClient, cfg.Feed.ImportLimit)
	userService := application.NewUserService(userRepo)

	// Echoセットアップ
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	custommiddleware.SetupMiddleware(e)
	e.Use(custommiddleware.PrometheusMiddleware(m))

	// ルーティング
	healthHandler := handler.NewHealthHandler()
	authHandler := handler.NewAuthHandler(userService)
	flightHandler := handler.NewFlightHandler(flightService)
	reservationHandler := handler.NewReservationHandler(bookingService)

	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommiddleware.MetricsBasicAuth())

	v1 := e.Group("/api/v1")
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/login", authHandler.Login)
	v1.GET("/flights", flightHandler.Search)
	v1.POST("/flights", flightHandler.Register)
	v1.POST("/flights/import", flightHandler.ImportLive)
	v1.GET("/flights/:id", flightHandler.GetByID)
	v1.GET("/flights/:id/available-seats", flightHandler.CountAvailableSeats)
	v1.POST("/reservations", reservationHandler.Create)
	v1.GET("/reservations", reservationHandler.ListByUser)
	v1.GET("/reservations/export", reservationHandler.ExportItinerary)
	v1.GET("/reservations/:id", reservationHandler.GetByID)
	v1.POST("/reservations/:id/cancel", reservationHandler.Cancel)

	// フィード取り込みワーカー
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	var feedImporter *worker.FeedImporter
	if cfg.Worker.FeedImportEnabled {
		feedImporter = worker.NewFeedImporter(flightService, cfg.Worker.FeedImportInterval)
		go feedImporter.Start(workerCtx)
	}

	// サーバー起動
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	if feedImporter != nil {
		feedImporter.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
