package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/biblioflow/biblioflow-api/internal/config"
	"github.com/biblioflow/biblioflow-api/internal/database"
	"github.com/biblioflow/biblioflow-api/internal/handler"
	"github.com/biblioflow/biblioflow-api/internal/middleware"
	"github.com/biblioflow/biblioflow-api/internal/models"
	"github.com/biblioflow/biblioflow-api/internal/observability"
	"github.com/biblioflow/biblioflow-api/internal/repository"
	"github.com/biblioflow/biblioflow-api/internal/router"
	"github.com/biblioflow/biblioflow-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	observability.RegisterMetrics()

	studentRepo, bookRepo, borrowRepo, err := buildRepositories(cfg)
	if err != nil {
		log.Fatalf("failed to initialise storage: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	feedCtx, stopFeed := context.WithCancel(context.Background())
	defer stopFeed()

	feedService := service.NewCirculationFeedService(redisClient, cfg.FeedChannelBase, natsConn, logger)
	feedService.Start(feedCtx)

	ledgerService := service.NewLedgerService(studentRepo, bookRepo, borrowRepo, validate, feedService, logger)
	studentService := service.NewStudentService(studentRepo, borrowRepo, validate, redisClient, cfg.SuggestCacheTTL, logger)
	bookService := service.NewBookService(bookRepo, borrowRepo, validate, redisClient, cfg.SuggestCacheTTL, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		StudentHandler: handler.NewStudentHandler(studentService, logger),
		BookHandler:    handler.NewBookHandler(bookService, logger),
		LedgerHandler:  handler.NewLedgerHandler(ledgerService, logger),
		FeedHandler:    handler.NewFeedHandler(feedService, logger),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildRepositories(cfg config.Config) (repository.StudentRepository, repository.BookRepository, repository.BorrowRepository, error) {
	switch cfg.DatabaseDriver {
	case config.DriverMongo:
		db, err := database.ConnectMongo(cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			return nil, nil, nil, err
		}

		return repository.NewMongoStudentRepository(db),
			repository.NewMongoBookRepository(db),
			repository.NewMongoBorrowRepository(db), nil

	default:
		var (
			db  *gorm.DB
			err error
		)
		if cfg.DatabaseDriver == config.DriverPostgres {
			db, err = database.ConnectPostgres(cfg.DatabaseURL)
		} else {
			db, err = database.ConnectSQLite(cfg.SQLitePath)
		}
		if err != nil {
			return nil, nil, nil, err
		}

		if err := db.AutoMigrate(&models.Student{}, &models.Book{}, &models.Borrow{}); err != nil {
			return nil, nil, nil, err
		}

		return repository.NewGormStudentRepository(db),
			repository.NewGormBookRepository(db),
			repository.NewGormBorrowRepository(db), nil
	}
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
