package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/finledger/backend/internal/config"
	"github.com/finledger/backend/internal/database"
	"github.com/finledger/backend/internal/handlers"
	"github.com/finledger/backend/internal/ledger"
	mW "github.com/finledger/backend/internal/middleware"
	"github.com/finledger/backend/internal/services"
	"github.com/finledger/backend/internal/storage"
	"github.com/finledger/backend/internal/storage/memory"
	"github.com/finledger/backend/internal/storage/postgres"
)

// @title FinLedger API
// @version 1.0
// @description Personal finance ledger: deposits, withdrawals, transfers and balances
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	config.Load()

	var statementStore storage.StatementStore
	var userStore storage.UserStore

	viper.BindEnv("storage.driver", "STORAGE_DRIVER")
	viper.SetDefault("storage.driver", "postgres")

	switch driver := viper.GetString("storage.driver"); driver {
	case "memory":
		log.Println("Using in-memory storage")
		store := memory.NewStore()
		statementStore, userStore = store, store
	case "postgres":
		db := database.InitDatabase()
		defer db.Close()
		store := postgres.NewStore(db)
		statementStore, userStore = store, store
	default:
		log.Fatalf("Unknown storage driver: %s", driver)
	}

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	ledgerService := ledger.NewService(statementStore, userStore)
	authService := services.NewAuthService(userStore, redisClient)
	qrService := services.NewQRService(userStore)
	statementHandler := handlers.NewStatementHandler(ledgerService)
	qrHandler := handlers.NewQRHandler(qrService)

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/users", authService.Register)
		r.Post("/sessions", authService.Login)
		r.Post("/sessions/logout", authService.Logout)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/profile", authService.Profile)

			r.Post("/statements/deposit", statementHandler.Deposit)
			r.Post("/statements/withdraw", statementHandler.Withdraw)
			r.Post("/statements/transfers/{receiverID}", statementHandler.Transfer)
			r.Get("/statements/balance", statementHandler.GetBalance)
			r.Get("/statements/receive-qr", qrHandler.ReceiveQR)
			r.Post("/statements/receive-qr/resolve", qrHandler.ResolveReceiveQR)
			r.Get("/statements/{statementID}", statementHandler.GetStatementOperation)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
