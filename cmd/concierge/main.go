package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/omnilodge/concierge/adapters/live"
	"github.com/omnilodge/concierge/adapters/memory"
	"github.com/omnilodge/concierge/adapters/mongo"
	"github.com/omnilodge/concierge/adapters/notifier"
	"github.com/omnilodge/concierge/domain/repositories"
	"github.com/omnilodge/concierge/internal/api"
	"github.com/omnilodge/concierge/internal/audio"
	"github.com/omnilodge/concierge/internal/auth"
	"github.com/omnilodge/concierge/internal/config"
	"github.com/omnilodge/concierge/internal/websocket"
	"github.com/omnilodge/concierge/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}
	auth.LoadSecret()

	// Booking store
	var store repositories.BookingRepository
	var mongoClient *mongo.Client
	switch cfg.Store {
	case config.StoreMongo:
		mongoClient, err = mongo.NewClient(cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		store = mongo.NewBookingRepository(mongoClient.Database)
	case config.StoreMemory:
		logger.Warn("Using in-memory booking store; bookings are lost on restart")
		store = memory.NewBookingRepository()
	}

	// Confirmation email notifier
	var composer notifier.Composer
	if cfg.ComposeEmails {
		composer, err = notifier.NewGeminiComposer(context.Background(), cfg.GeminiAPIKey, logger)
		if err != nil {
			logger.Fatal("Failed to create email composer", zap.Error(err))
		}
	} else {
		composer = notifier.NewTemplateComposer()
	}
	emailNotifier := notifier.NewEmailNotifier(composer, logger)

	// The concierge owns the appliance's single microphone and speaker.
	concierge := usecase.NewConcierge(
		usecase.SessionConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.LiveModel,
			Voice:   cfg.LiveVoice,
			Toolset: cfg.Toolset,
		},
		usecase.SessionDeps{
			Input: &audio.Microphone{},
			OpenOutput: func() (audio.OutputDevice, error) {
				speaker := &audio.Speaker{}
				if err := speaker.Open(); err != nil {
					return nil, err
				}
				return speaker, nil
			},
			Channel: func(c live.Config, cb live.Callbacks) (usecase.LiveChannel, error) {
				return live.NewChannel(c, cb, logger)
			},
			Store:    store,
			Notifier: emailNotifier,
			Logger:   logger,
		},
	)

	// Initialize WebSocket hub; session events fan out through it.
	hub := websocket.NewHub(concierge, logger)
	concierge.SetEventSink(hub.Publish)
	go hub.Run()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	api.InitRoutes(e, hub, concierge, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Concierge started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	// End any live voice session before taking the HTTP surface down.
	concierge.EndSession()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	if mongoClient != nil {
		if err := mongoClient.Close(ctx); err != nil {
			logger.Error("Failed to close MongoDB connection", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
