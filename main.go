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
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/streadway/amqp"

	"technotes/internal/handlers"
	"technotes/internal/middleware"
	"technotes/internal/models"
	"technotes/internal/repositories"
	"technotes/internal/services"
	"technotes/pkg/eventlog"
	"technotes/pkg/rabbitmq"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const dbRetryDelay = 5 * time.Second

func main() {
	// --- Configuration ---
	// Set up Viper to read configuration from environment variables
	viper.SetDefault("APP_PORT", ":3500")
	viper.SetDefault("DATABASE_URL", "technotes.db")
	viper.SetDefault("RABBITMQ_URL", "") // empty disables event publishing
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("LOG_DIR", "./logs")
	viper.SetDefault("VIEWS_DIR", "./views")
	viper.SetDefault("PUBLIC_DIR", "./public")
	viper.AutomaticEnv() // Load environment variables

	appPort := viper.GetString("APP_PORT")
	dbURL := viper.GetString("DATABASE_URL")
	rabbitMQURL := viper.GetString("RABBITMQ_URL")
	allowedOrigins := viper.GetString("CORS_ALLOWED_ORIGINS")
	viewsDir := viper.GetString("VIEWS_DIR")
	publicDir := viper.GetString("PUBLIC_DIR")

	// --- Persistent event logs ---
	events, err := eventlog.New(viper.GetString("LOG_DIR"))
	if err != nil {
		log.Fatalf("Failed to initialize event log: %v", err)
	}

	// --- Initialize RabbitMQ Client (optional) ---
	var mqClient *rabbitmq.Client
	if rabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: rabbitMQURL})
		if err != nil {
			events.LogEvents("rabbitmq connection failed: "+err.Error(), "errLog.log")
			log.Printf("RabbitMQ unavailable, continuing without event publishing: %v", err)
		} else {
			defer mqClient.Close()
		}
	} else {
		log.Println("RABBITMQ_URL not set, event publishing disabled")
	}

	// --- Connect to the database ---
	// The HTTP server only starts listening once the connection succeeds.
	// Connection failures go to the persistent error log and are retried.
	db := connectDB(dbURL, events)

	if err := db.AutoMigrate(&models.User{}, &models.Note{}); err != nil {
		log.Fatalf("Failed to auto-migrate database: %v", err)
	}

	// --- Initialize Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	noteRepo := repositories.NewGORMNoteRepository(db)

	// --- Initialize Services ---
	userService := services.NewUserService(userRepo, noteRepo, mqClient)
	noteService := services.NewNoteService(noteRepo, mqClient)

	// --- Initialize Handlers ---
	userHandler := handlers.NewUserHandler(userService)
	noteHandler := handlers.NewNoteHandler(noteService)
	rootHandler := handlers.NewRootHandler(viewsDir, events)

	// --- Initialize Fiber App ---
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(events),
	})

	// --- Middleware ---
	app.Use(recover.New())                     // panics land in the error handler
	app.Use(logger.New())                      // console request logger
	app.Use(middleware.RequestLogger(events))  // persistent request log
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PATCH, DELETE, OPTIONS",
	}))

	// --- Static files and root routes ---
	app.Static("/", publicDir)
	rootHandler.RegisterRoutes(app)

	// --- API Routes ---
	userHandler.RegisterRoutes(app)
	noteHandler.RegisterRoutes(app)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Catch-all 404 ---
	app.Use(rootHandler.HandleNotFound)

	// --- Start RabbitMQ Consumer in a Goroutine ---
	if mqClient != nil {
		go func() {
			log.Println("Starting RabbitMQ consumer for user events...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received %s event (Tag: %d): %s", msg.Type, msg.DeliveryTag, string(msg.Body))
				return nil
			}
			if consumerErr := mqClient.ConsumeEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
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

// connectDB opens the GORM connection, retrying until it succeeds. Each
// failure is appended to the persistent database error log; the process
// stays up rather than crashing on a slow-starting database.
func connectDB(dbURL string, events *eventlog.Logger) *gorm.DB {
	var dialector gorm.Dialector
	if strings.HasPrefix(dbURL, "postgres://") || strings.HasPrefix(dbURL, "postgresql://") {
		dialector = postgres.Open(dbURL)
	} else {
		dialector = sqlite.Open(dbURL)
	}

	for {
		db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
		if err == nil {
			log.Println("Connected to database")
			return db
		}
		events.LogEvents("database connection failed: "+err.Error(), "dbErrLog.log")
		log.Printf("Database connection failed, retrying in %s: %v", dbRetryDelay, err)
		time.Sleep(dbRetryDelay)
	}
}
