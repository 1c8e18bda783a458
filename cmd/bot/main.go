package main

import (
	"leavedesk/internal/app"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := app.RunBot(app.ConfigFromEnv()); err != nil {
		logger.Fatal("bot failed", zap.Error(err))
	}
}
