package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"carpool/internal/app/commands"
	bookingapp "carpool/internal/app/handlers/booking"
	ratingapp "carpool/internal/app/handlers/rating"
	rideapp "carpool/internal/app/handlers/ride"
	"carpool/internal/app/middleware"
	appoutbox "carpool/internal/app/outbox"
	"carpool/internal/app/queries"
	"carpool/internal/app/uow"
	"carpool/internal/domain/ride"
	kafkabroker "carpool/internal/infra/broker/kafka"
	"carpool/internal/infra/config"
	mongodb "carpool/internal/infra/db/mongo"
	ginserver "carpool/internal/infra/http/gin"
	"carpool/internal/infra/obs"
	infraoutbox "carpool/internal/infra/outbox"
	"carpool/internal/infra/storage/memory"
	redisstore "carpool/internal/infra/storage/redis"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if app.memory != nil {
		fixturesPath := getenv("RIDE_FIXTURES", defaultRideFixturesPath())
		if err := loadRideFixtures(ctx, app.memory, fixturesPath, logger); err != nil {
			logger.Warn("ride fixtures load failed", "error", err, "path", fixturesPath)
		}
	}

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	memory   *memory.Factory
	worker   *infraoutbox.Worker
	ready    func() error
	closers  []func() error
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{ready: func() error { return nil }}

	var (
		uowFactory uow.UoWFactory
		outboxDest appoutbox.Outbox
	)
	switch cfg.StorageMode {
	case config.StorageMongo:
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		app.closers = append(app.closers, func() error {
			return client.Close(context.Background())
		})
		uowFactory = mongodb.NewFactory(client.DB)
		store := infraoutbox.NewStore(client.DB)
		outboxDest = store
		app.ready = func() error { return client.Ping(context.Background()) }

		producer, err := kafkabroker.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		app.closers = append(app.closers, producer.Close)
		app.worker = &infraoutbox.Worker{
			Store:       store,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
	default:
		memFactory := memory.NewFactory()
		uowFactory = memFactory
		outboxDest = memory.NewOutbox()
		app.memory = memFactory
	}

	var idStore middleware.IdempotencyStore
	if cfg.RedisAddr != "" {
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		app.closers = append(app.closers, redisClient.Close)
		idStore = redisstore.NewIdempotencyStore(redisClient, redisstore.WithTTL(cfg.IdempotencyTTL))
	} else {
		idStore = memory.NewIdempotencyStore()
	}

	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, rideapp.PublishRideCommand{}.Key(),
		&rideapp.PublishRideHandler{UoWFactory: uowFactory, Outbox: outboxDest, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, rideapp.UpdateRideCommand{}.Key(),
		&rideapp.UpdateRideHandler{UoWFactory: uowFactory, Logger: logger})
	commands.RegisterHandler(commandBus, rideapp.DeleteRideCommand{}.Key(),
		&rideapp.DeleteRideHandler{UoWFactory: uowFactory, Logger: logger})
	commands.RegisterHandler(commandBus, rideapp.StartRideCommand{}.Key(),
		&rideapp.StartRideHandler{UoWFactory: uowFactory, Logger: logger})
	commands.RegisterHandler(commandBus, rideapp.CompleteRideCommand{}.Key(),
		&rideapp.CompleteRideHandler{UoWFactory: uowFactory, Outbox: outboxDest, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, rideapp.CancelRideCommand{}.Key(),
		&rideapp.CancelRideHandler{UoWFactory: uowFactory, Outbox: outboxDest, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(),
		&bookingapp.RequestBookingHandler{UoWFactory: uowFactory, Outbox: outboxDest, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, bookingapp.AcceptBookingCommand{}.Key(),
		&bookingapp.AcceptBookingHandler{UoWFactory: uowFactory, Outbox: outboxDest, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, bookingapp.RejectBookingCommand{}.Key(),
		&bookingapp.RejectBookingHandler{UoWFactory: uowFactory, Outbox: outboxDest, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(),
		&bookingapp.CancelBookingHandler{UoWFactory: uowFactory, Outbox: outboxDest, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, ratingapp.SubmitRatingCommand{}.Key(),
		&ratingapp.SubmitRatingHandler{UoWFactory: uowFactory, Outbox: outboxDest, Encoder: encoder, Logger: logger})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, rideapp.SearchRidesQuery{}.Key(),
		&rideapp.SearchRidesHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, rideapp.GetRideQuery{}.Key(),
		&rideapp.GetRideHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bookingapp.ListPassengerBookingsQuery{}.Key(),
		&bookingapp.ListPassengerBookingsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bookingapp.ListDriverBookingsQuery{}.Key(),
		&bookingapp.ListDriverBookingsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, ratingapp.RatingEligibilityQuery{}.Key(),
		&ratingapp.RatingEligibilityHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, ratingapp.ListUserRatingsQuery{}.Key(),
		&ratingapp.ListUserRatingsHandler{UoWFactory: uowFactory})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(middleware.SelfValidator{}),
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxDest),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	app.handlers = ginserver.Handlers{
		Ride:               ginserver.RideHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware},
		Booking:            ginserver.BookingHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware},
		Rating:             ginserver.RatingHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware},
		IdentityMiddleware: ginserver.IdentityMiddleware{Logger: logger}.Handle,
	}
	return app, nil
}

func loadRideFixtures(ctx context.Context, factory *memory.Factory, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("ride fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []rideFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	for _, fx := range fixtures {
		rd, err := ride.NewRide(ride.CreateParams{
			ID:             ride.RideID(fx.ID),
			DriverID:       fx.Driver,
			VehicleID:      fx.Vehicle,
			Origin:         fx.Origin,
			Destination:    fx.Destination,
			DepartureAt:    parseFixtureTime(fx.DepartureAt, now.Add(24*time.Hour)),
			ArrivalAt:      parseFixtureTime(fx.ArrivalAt, time.Time{}),
			Capacity:       fx.Capacity,
			SeatPriceCents: fx.SeatPriceCents,
			AutoAccept:     fx.AutoAccept,
			CreatedAt:      now,
		})
		if err != nil {
			logger.Error("fixture invalid", "ride_id", fx.ID, "error", err)
			continue
		}
		if err := factory.Rides().Save(ctx, rd); err != nil {
			logger.Error("cannot store fixture ride", "ride_id", fx.ID, "error", err)
			continue
		}
		logger.Info("ride fixture imported", "ride_id", rd.ID)
	}
	return nil
}

type rideFixture struct {
	ID             string `json:"id"`
	Driver         string `json:"driver"`
	Vehicle        string `json:"vehicle"`
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`
	DepartureAt    string `json:"departure_at"`
	ArrivalAt      string `json:"arrival_at"`
	Capacity       int    `json:"capacity"`
	SeatPriceCents int64  `json:"seat_price_cents"`
	AutoAccept     bool   `json:"auto_accept"`
}

func parseFixtureTime(value string, fallback time.Time) time.Time {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return fallback
}

func defaultRideFixturesPath() string {
	return filepath.Join("data", "rides.json")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
