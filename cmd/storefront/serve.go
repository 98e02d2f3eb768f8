package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/bot"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/notify"
	"storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin API and the Telegram bot",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func gracefulShutdown(ctx context.Context, apiServer *server.Server, botDone <-chan struct{}, closers []io.Closer, logger *zap.Logger, done chan bool) {
	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 30 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Queued bot updates still need the database
	select {
	case <-botDone:
	case <-shutdownCtx.Done():
		logger.Warn("Bot did not drain in time")
	}

	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("Error closing resource", zap.Error(err))
		}
	}

	// Close server resources
	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log.Info("Starting storefront",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.Bool("bot", cfg.Telegram.Enabled()),
		zap.Bool("kafka", cfg.Kafka.Enabled()),
	)

	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbService, err := database.New(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	health := dbService.Health()
	log.Info("Database health check", zap.Any("health", health))

	if err := database.RunMigrations(ctx, dbService.DB(), log); err != nil {
		dbService.Close()
		return err
	}

	redisClient := newRedisClient(ctx, cfg.Redis, log)

	var closers []io.Closer
	notifiers := notify.Fanout{notify.NewLogNotifier(log)}

	var botAPI *tgbotapi.BotAPI
	if cfg.Telegram.Enabled() {
		botAPI, err = tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			dbService.Close()
			return fmt.Errorf("failed to connect to telegram: %w", err)
		}
		botAPI.Debug = cfg.Telegram.Debug
		log.Info("Authorized on telegram", zap.String("account", botAPI.Self.UserName))
		notifiers = append(notifiers, notify.NewTelegramNotifier(botAPI, cfg.Admin.TelegramID))
	}

	if cfg.Kafka.Enabled() {
		writer := notify.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		closers = append(closers, writer)
		notifiers = append(notifiers, notify.NewKafkaNotifier(writer))
	}

	db := dbService.DB()
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	brandRepo := repository.NewBrandRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db, repository.NewInventoryAdjuster())

	userService := service.NewUserService(userRepo)
	catalogService := service.NewCatalogService(categoryRepo, brandRepo, productRepo)
	inventoryService := service.NewInventoryService(categoryRepo, brandRepo, productRepo)
	cartService := service.NewCartService(cartRepo)
	orderService := service.NewOrderService(orderRepo, notifiers, log)
	sessions := checkout.NewMemoryStore()
	checkoutService := service.NewCheckoutService(sessions, cartService, orderService)
	go expireSessions(ctx, sessions, log)
	adminService := service.NewAdminService(
		cfg.Admin.TelegramID,
		cfg.Admin.PasswordHash,
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessExpiry)*time.Minute,
	)

	srv := server.NewServer(cfg, log, dbService, redisClient, server.Services{
		Admin:     adminService,
		Orders:    orderService,
		Inventory: inventoryService,
	})

	botDone := make(chan struct{})
	if botAPI != nil {
		handler := bot.NewHandler(userService, catalogService, cartService, checkoutService, orderService, cfg.Admin.TelegramID, log)
		chatBot := bot.New(botAPI, handler, cfg.Telegram.Workers, cfg.Telegram.PollTimeout, log)
		go func() {
			defer close(botDone)
			if err := chatBot.Run(ctx); err != nil {
				log.Error("Bot stopped with error", zap.Error(err))
			}
		}()
	} else {
		close(botDone)
	}

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(ctx, srv, botDone, closers, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-done
		return fmt.Errorf("http server error: %w", err)
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
	return nil
}

// newRedisClient connects to Redis; rate limiting fails open when it is down
func newRedisClient(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unavailable, rate limiting disabled until it answers", zap.String("addr", cfg.Addr()), zap.Error(err))
	}
	return client
}

// sessionTTL bounds how long an abandoned checkout is remembered
const sessionTTL = 24 * time.Hour

func expireSessions(ctx context.Context, sessions *checkout.MemoryStore, log *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := sessions.Expire(now.Add(-sessionTTL)); n > 0 {
				log.Debug("Expired checkout sessions", zap.Int("count", n))
			}
		}
	}
}
