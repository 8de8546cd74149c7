package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"akun/internal/config"
	"akun/internal/handlers"
	"akun/internal/middleware"
	"akun/internal/models"
	"akun/internal/repositories"
	"akun/internal/services"
	"akun/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	// A store that cannot be reached at startup is fatal; serving requests
	// against a dead connection helps nobody.
	db, err := openDatabase(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	userRepo := repositories.NewGORMUserRepository(db)

	// Registration events are best effort: without a broker the service
	// still registers and logs in users.
	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Printf("Registration events disabled, RabbitMQ unavailable: %v", err)
		} else {
			defer mqClient.Close()
			events = mqClient

			// Stand-in for the welcome-mail worker: log each registration
			// event as it arrives.
			if consumerErr := mqClient.ConsumeUserEvents(func(msg amqp.Delivery) error {
				log.Printf("Received user event (tag %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil
			}); consumerErr != nil {
				log.Printf("Failed to start user events consumer: %v", consumerErr)
			}
		}
	}

	app, _ := NewApp(cfg, userRepo, events)

	log.Printf("Starting server on port %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// NewApp wires the service layers into a Fiber app. It is separate from
// main so tests can build the app against an in-memory repository.
func NewApp(cfg *config.Config, userRepo repositories.UserRepository, events services.EventPublisher) (*fiber.App, *services.AuthService) {
	authService := services.NewAuthService(userRepo, events, cfg.JWTSecret, cfg.BcryptCost, cfg.TokenTTL)
	authHandler := handlers.NewAuthHandler(authService, cfg.StoreTimeout)

	app := fiber.New(fiber.Config{
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	app.Use(logger.New())
	// Only allow-listed origins may call the API with credentials; everyone
	// else is rejected before application logic runs.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: true,
	}))

	// Liveness probe.
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello",
			"status":  "ok",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	api := app.Group("/api")
	authHandler.RegisterRoutes(api)

	protected := api.Group("", middleware.AuthRequired(authService))
	protected.Get("/me", authHandler.HandleMe)

	return app, authService
}

// openDatabase picks the GORM driver from the DSN shape: anything that
// looks like a PostgreSQL DSN gets the postgres driver, everything else is
// treated as a SQLite path. TranslateError is required so unique-index
// violations surface as gorm.ErrDuplicatedKey.
func openDatabase(dsn string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{TranslateError: true}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return gorm.Open(postgres.Open(dsn), gormCfg)
	}
	return gorm.Open(sqlite.Open(dsn), gormCfg)
}
