package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leavedesk/internal/employee"
	"leavedesk/internal/messaging/kafka"
	"leavedesk/internal/messaging/kafka/producer"
	"leavedesk/internal/notification"
	"leavedesk/internal/shared/connection"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// RunWorker hosts the background side of the system: the notification
// dispatcher, the kafka outbox producer, and the monthly balance renewal.
func RunWorker(cfg Config) error {
	logger := zap.L().Named("app.worker")

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

	if cfg.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("telegram bot api: %w", err)
	}

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}
	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, 5)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	notifyRepo := notification.NewRepository(sqlDB)
	outboxRepo := kafka.NewOutboxRepository(sqlDB)
	employeeRepo := employee.NewRepository(gormDB)
	employeeService := employee.NewService(sqlDB, employeeRepo, notifyRepo, outboxRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := notification.NewDispatcher(notifyRepo, notification.NewTelegramTransport(botAPI))
	go dispatcher.Run(ctx, 2*time.Second)

	go producer.ProcessOutboxEvents(ctx, outboxRepo, kafkaWriter, logger, 3*time.Second)

	go runRenewalLoop(ctx, employeeService, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()

	return nil
}

// runRenewalLoop fires the monthly grant on the first day of each month. The
// hourly cadence is deliberately coarse: RenewMonthlyBalances stamps each
// employee with the granted month, so redundant firings are no-ops.
func runRenewalLoop(ctx context.Context, employees employee.Service, logger *zap.Logger) {
	log := logger.Named("renewal")
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	log.Info("renewal scheduler started")

	for {
		select {
		case <-ctx.Done():
			log.Info("renewal scheduler stopped")
			return
		case now := <-ticker.C:
			if now.Day() != 1 {
				continue
			}
			if _, err := employees.RenewMonthlyBalances(ctx, now); err != nil {
				log.Error("monthly renewal failed", zap.Error(err))
			}
		}
	}
}
