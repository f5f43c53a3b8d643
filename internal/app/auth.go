package app

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"
)

type Auth struct {
	enabled     bool
	redis       *redis.Client
	keyTemplate string
	tokenHeader string
}

func NewAuth(config *Config) (*Auth, error) {
	if !config.Server.EnableAuth {
		return &Auth{enabled: false, tokenHeader: config.Auth.TokenHeader}, nil
	}

	client, err := NewRedisClient(config.Auth.RedisURL)
	if err != nil {
		return nil, err
	}

	return &Auth{
		enabled:     true,
		redis:       client,
		keyTemplate: config.Auth.TokenKeyTemplate,
		tokenHeader: config.Auth.TokenHeader,
	}, nil
}

func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (a *Auth) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

func staffKey(template, staff string) string {
	return strings.ReplaceAll(template, "{staff}", staff)
}

// ValidateToken compares the bearer token with the one issued to staff.
func (a *Auth) ValidateToken(ctx context.Context, staff, token string) error {
	if !a.enabled {
		return nil
	}

	key := staffKey(a.keyTemplate, staff)
	stored, err := a.redis.HGet(ctx, key, fieldToken).Result()
	switch {
	case errors.Is(err, redis.Nil):
		logger.Debug.Printf("Token not found for key: %s", key)
		return fmt.Errorf("token not found")
	case err != nil:
		logger.Debug.Printf("Redis error: %v", err)
		return fmt.Errorf("redis error: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		logger.Debug.Printf("Token mismatch for staff %s", staff)
		return fmt.Errorf("invalid token")
	}
	return nil
}
