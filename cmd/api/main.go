package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"gopermute/adapters/api"
	"gopermute/app"
	"gopermute/internal"
	"gopermute/internal/config"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, _ := internal.ParseLogLevel(appConfig.Log.Level)
	logger := internal.NewLogger(level)

	gin.SetMode(appConfig.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if level >= internal.LogLevelDebug {
		router.Use(gin.Logger())
	}

	service := app.NewPermutationService(appConfig.Permute, logger)
	api.NewPermuteHandler(service, logger).RegisterRoutes(router)

	server := &http.Server{
		Addr:    ":" + appConfig.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting permutation test server on port %s (max concurrent tests %d)",
			appConfig.Server.Port, appConfig.Permute.MaxConcurrent)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down, waiting up to %v for running tests", appConfig.Server.ShutdownTimeout)
	ctx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown: %v", err)
	}
}
