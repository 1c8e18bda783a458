package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"leavedesk/internal/bot"
	"leavedesk/internal/employee"
	"leavedesk/internal/holiday"
	"leavedesk/internal/leave"
	"leavedesk/internal/messaging/kafka"
	"leavedesk/internal/notification"
	"leavedesk/internal/shared/connection"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// RunBot hosts the conversational front-end. It shares the services with the
// console so both observe identical lifecycle rules.
func RunBot(cfg Config) error {
	logger := zap.L().Named("app.bot")

	gormDB, err := connection.ConnectGORMWithRetry(
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode, 5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 5)
	if err != nil {
		return err
	}

	if cfg.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("telegram bot api: %w", err)
	}

	employeeRepo := employee.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	holidayRepo := holiday.NewRepository(gormDB)
	notifyRepo := notification.NewRepository(sqlDB)
	outboxRepo := kafka.NewOutboxRepository(sqlDB)

	holidayService := holiday.NewService(holidayRepo)
	employeeService := employee.NewService(sqlDB, employeeRepo, notifyRepo, outboxRepo)
	leaveService := leave.NewService(sqlDB, leaveRepo, employeeRepo, holidayService, notifyRepo, outboxRepo)

	sessions := bot.NewRedisSessionStore(rdb)
	b := bot.New(botAPI, sessions, employeeService, leaveService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("bot shutting down")
		cancel()
	}()

	return b.Run(ctx)
}
