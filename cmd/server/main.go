package main

import (
	"context"
	"errors"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"delivery-service/internal/activity"
	"delivery-service/internal/config"
	"delivery-service/internal/controllers/http"
	"delivery-service/internal/events"
	"delivery-service/internal/infra/cache"
	mmysql "delivery-service/internal/infra/mysql"
	"delivery-service/internal/infra/rabbitmq"
	"delivery-service/internal/logger"
	"delivery-service/internal/middlewares"
	"delivery-service/internal/notifier"
	"delivery-service/internal/repository"
	mysqlrepo "delivery-service/internal/repository/mysql"
	"delivery-service/internal/scheduler"
	"delivery-service/internal/services"

	"github.com/gin-gonic/gin"
	redisv8 "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redisv9 "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.LoadConfig()
	log := logger.New(logger.Config{
		Level:        cfg.LogLevel,
		Format:       cfg.LogFormat,
		EnableCaller: true,
		Component:    "delivery-service",
		Environment:  cfg.Environment,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	db, err := mmysql.Open(cfg)
	if err != nil {
		log.Fatal("db: connect", "error", err)
	}
	if err := mmysql.Migrate(db); err != nil {
		log.Fatal("db: migrate", "error", err)
	}

	orderRepo := mysqlrepo.NewOrderRepository(db, log)
	menuRepo := mysqlrepo.NewMenuRepository(db)
	restaurantRepo := mysqlrepo.NewRestaurantRepository(db)
	courierRepo := mysqlrepo.NewCourierRepository(db)
	deliveryRepo := mysqlrepo.NewDeliveryRepository(db)
	userRepo := mysqlrepo.NewUserRepository(db)

	cacheClient := redisv8.NewClient(&redisv8.Options{
		Addr:         cfg.RedisAddr,
		DB:           cfg.RedisDB,
		PoolSize:     200,
		MinIdleConns: 20,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	defer cacheClient.Close()
	menuCache := cache.NewMenuCache(cacheClient, cfg.MenuCacheTTL, log)

	activityClient := redisv9.NewClient(&redisv9.Options{
		Addr:        cfg.RedisAddr,
		DB:          cfg.RedisDB,
		DialTimeout: 2 * time.Second,
	})
	defer activityClient.Close()
	activityBuffer := activity.NewBuffer(activityClient, mysqlrepo.NewActivityRepository(db), cfg.ActivityKey, cfg.ActivityBatch, log)

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.EventExchange)
	if err != nil {
		log.Fatal("failed to init publisher", "error", err)
	}
	defer publisher.Close()
	dispatcher := events.NewDispatcher(publisher, log)

	orderService := services.NewOrderService(orderRepo, menuRepo, restaurantRepo, dispatcher, log)
	menuService := services.NewMenuService(menuRepo, restaurantRepo, orderRepo, menuCache, dispatcher, log)
	sweeps := services.NewSweepService(orderService, deliveryRepo, dispatcher, services.SweepConfig{
		StaleThreshold: cfg.StaleOrderThreshold,
		ReminderLead:   cfg.ReminderLead,
		ReminderWindow: cfg.ReminderWindow,
	}, log)

	handler := http.NewHandler(http.Services{
		Orders:      orderService,
		Menu:        menuService,
		Restaurants: services.NewRestaurantService(restaurantRepo, log),
		Couriers:    services.NewCourierService(courierRepo, deliveryRepo, userRepo, orderRepo, log),
		Users:       services.NewUserService(userRepo, log),
		Stats:       services.NewStatsService(mysqlrepo.NewStatsRepository(db)),
	}, cfg.AttentionOrderAge)

	consumer, err := notifier.Dial(notifier.Config{
		URL:             cfg.RabbitMQURL,
		Exchange:        cfg.EventExchange,
		Queue:           cfg.NotificationQueue,
		DeadLetterQueue: cfg.DeadLetterQueue,
		Prefetch:        cfg.ConsumerPrefetch,
	}, notifier.NewLogSender(log), log)
	if err != nil {
		log.Fatal("failed to connect notification consumer", "error", err)
	}
	defer consumer.Close()
	if err := consumer.Setup(); err != nil {
		log.Fatal("failed to declare notification topology", "error", err)
	}

	jobs := scheduler.New(log)
	jobs.Every(services.SweepStaleOrders, cfg.StaleOrderInterval, func(ctx context.Context) error {
		_, err := sweeps.SweepStaleOrders(ctx)
		return err
	})
	jobs.Every(services.SweepReminders, cfg.ReminderInterval, func(ctx context.Context) error {
		_, err := sweeps.SendDeliveryReminders(ctx)
		return err
	})
	jobs.Every("activity_flush", cfg.ActivityFlushInterval, func(ctx context.Context) error {
		_, err := activityBuffer.Flush(ctx)
		return err
	})

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middlewares.RequestLogger(log),
		middlewares.PrometheusMiddleware(),
		middlewares.ActivityTracker(activityBuffer, log),
	)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{"status": "ok"})
	})
	handler.RegisterRoutes(r, middlewares.AuthMiddleware(cfg.JWTSecret))

	srv := &nethttp.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting delivery service", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return jobs.Run(gctx) })
	g.Go(func() error { return consumer.Run(gctx) })
	g.Go(func() error {
		warmupMenus(gctx, restaurantRepo, menuRepo, menuCache, log)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("service stopped with error", "error", err)
	}

	dispatcher.Wait()
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if n, err := activityBuffer.Flush(flushCtx); err != nil {
		log.Error("final activity flush failed", "error", err)
	} else if n > 0 {
		log.Info("final activity flush", "entries", n)
	}
	log.Info("delivery service stopped")
}

// warmupMenus loads the first page of restaurants into the menu cache.
func warmupMenus(ctx context.Context, restaurants repository.RestaurantRepository, menu repository.MenuRepository, c *cache.MenuCache, log *logger.Logger) {
	list, _, err := restaurants.List(ctx, "", services.NormalizePage(1, services.MaxPageSize))
	if err != nil {
		log.Warn("menu warmup skipped", "error", err)
		return
	}
	ids := make([]uint64, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.ID)
	}
	c.Warmup(ctx, ids, menu.ListByRestaurant)
	log.Info("menu cache warmed up", "restaurants", len(ids))
}
