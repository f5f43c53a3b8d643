package main

import (
	"flag"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dagbok/internal/app"
	"github.com/shrimpsizemoose/dagbok/internal/bot"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to init service: %v", err)
	}
	defer service.Close()

	var tokens *app.TokenManager
	if service.Config.Server.EnableAuth {
		redisClient, err := app.NewRedisClient(service.Config.Auth.RedisURL)
		if err != nil {
			logger.Error.Fatalf("Failed to connect to redis: %v", err)
		}
		tokens = app.NewTokenManager(redisClient, service.Config.Auth.TokenKeyTemplate)
		defer tokens.Close()
	}

	b, err := bot.New(service, tokens)
	if err != nil {
		logger.Error.Fatalf("Failed to create bot: %v", err)
	}

	logger.Info.Println("Bot initialized successfully")
	if err := b.Start(); err != nil {
		logger.Error.Fatalf("Bot error: %v", err)
	}
}
