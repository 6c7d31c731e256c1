package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/avelez/gym-class-scheduler/internal/config"
	"github.com/avelez/gym-class-scheduler/internal/database"
	"github.com/avelez/gym-class-scheduler/internal/handler"
	"github.com/avelez/gym-class-scheduler/internal/middleware"
	"github.com/avelez/gym-class-scheduler/internal/mysqlstore"
	"github.com/avelez/gym-class-scheduler/internal/queue"
	"github.com/avelez/gym-class-scheduler/internal/repository"
	"github.com/avelez/gym-class-scheduler/internal/router"
	"github.com/avelez/gym-class-scheduler/internal/scheduling"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set env vars directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	store := mysqlstore.New(db)
	svc := scheduling.NewService(store, nil)

	// Repositories used directly by handler read paths.  Write paths that
	// need transactions go through the store instead.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	classTypes := repository.NewClassTypeRepo(db)
	venues := repository.NewVenueRepo(db)
	seats := repository.NewSeatRepo(db)
	people := repository.NewPersonRepo(db)
	plans := repository.NewPlanRepo(db)
	subscriptions := repository.NewSubscriptionRepo(db)
	payments := repository.NewPaymentRepo(db)
	templates := repository.NewTemplateRepo(db)
	sessions := repository.NewSessionRepo(db)
	bookings := repository.NewStandingBookingRepo(db)
	reservations := repository.NewReservationRepo(db)

	e := echo.New()

	// Redis backs the token-bucket rate limiter and the public response
	// cache.  A nil client disables both instead of failing startup.
	rdb := config.NewRedisClient()
	var cacheMW echo.MiddlewareFunc
	if rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		cacheMW = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	} else {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	// The consumer tails materialization and renewal events into the
	// scheduling log and reconnects on broker failures.
	go func() {
		if err := queue.StartSchedulingConsumer(); err != nil {
			log.Printf("queue consumer stopped: %v", err)
		}
	}()

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterStaff(e,
		handler.NewCatalogHandler(classTypes, venues, seats, people, plans),
		handler.NewScheduleHandler(cfg, svc, templates, sessions),
		handler.NewReservationHandler(svc, reservations),
		cfg.JWTSecret,
	)
	router.RegisterStanding(e,
		handler.NewStandingHandler(cfg, svc, bookings),
		handler.NewMembershipHandler(svc, plans, subscriptions, payments),
		cfg.JWTSecret,
	)
	router.RegisterPublic(e, handler.NewPublicHandler(svc, sessions, reservations), cacheMW)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
