package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/petmily/walk-service/internal/booking"
	"github.com/petmily/walk-service/internal/config"
	"github.com/petmily/walk-service/internal/database"
	"github.com/petmily/walk-service/internal/handler"
	"github.com/petmily/walk-service/internal/live"
	"github.com/petmily/walk-service/internal/notify"
	"github.com/petmily/walk-service/internal/queue"
	"github.com/petmily/walk-service/internal/repository"
	"github.com/petmily/walk-service/internal/router"
	"github.com/petmily/walk-service/internal/scheduler"
	"github.com/petmily/walk-service/internal/walk"
)

func main() {
	// .env is optional; real deployments inject env vars directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs notification throttling and history.  Without it the
	// service still runs: markers fall back to process-local memory and
	// history reads come back empty.
	rdb := config.NewRedisClient()
	var markers notify.MarkerStore
	if rdb != nil {
		markers = notify.NewRedisMarkerStore(rdb)
	} else {
		log.Println("redis unavailable, using in-process notification markers")
		markers = notify.NewMemoryMarkerStore()
	}

	bookings := repository.NewBookingRepo(db)
	tracks := repository.NewTrackRepo(db)
	details := repository.NewWalkDetailRepo(db)
	changes := repository.NewChangeRequestRepo(db)
	users := repository.NewUserRepo(db)

	var sink walk.Notifier = notify.RabbitGateway{}
	if cfg.Env == "dev" {
		sink = notify.LogGateway{}
	}
	gateway := notify.NewGateway(sink, rdb, cfg.Walk.HistoryTTL)

	hub := live.NewHub()
	detector := walk.NewDetector(walk.AnomalyConfig{
		MaxSpeedKMH:        cfg.Walk.MaxSpeedKMH,
		RepeatWindow:       cfg.Walk.FakeWindow,
		RepeatRadiusMeters: cfg.Walk.FakeRadiusMeters,
	})

	walkSvc := walk.NewService(bookings, details, tracks, users, detector, hub, gateway, walk.NoopGeocoder)
	bookingSvc := booking.NewService(bookings, changes, users, gateway)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	evaluator := scheduler.NewEvaluator(bookings, tracks, users, gateway, markers, cfg.Walk)
	go evaluator.Run(ctx)

	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("queue consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterWalk(e,
		handler.NewWalkHandler(walkSvc),
		handler.NewLiveHandler(hub, bookings),
		handler.NewNotificationHandler(gateway, bookings),
		cfg.JWTSecret)
	router.RegisterBooking(e, handler.NewBookingHandler(bookingSvc), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		<-ctx.Done()
		_ = e.Shutdown(context.Background())
	}()
	if err := e.Start(addr); err != nil {
		log.Println(err)
	}
}
