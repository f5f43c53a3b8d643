package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/dagbok/internal/models"
)

const (
	timeFormat  = time.RFC3339
	tokenPrefix = "sk-dagbok-"

	fieldToken    = "token"
	fieldRequests = "request_count"
	fieldLastUsed = "last_used_at"
	fieldIssued   = "issued_at"
)

// TokenManager issues API tokens for staff members. Tokens live in a redis
// hash under the same key template the API auth reads.
type TokenManager struct {
	redis       *redis.Client
	keyTemplate string
}

func NewTokenManager(client *redis.Client, keyTemplate string) *TokenManager {
	return &TokenManager{redis: client, keyTemplate: keyTemplate}
}

func generateToken() (string, error) {
	randomBytes := make([]byte, 16)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return tokenPrefix + hex.EncodeToString(randomBytes), nil
}

// FetchOrCreateStaffToken returns the staff member's token, issuing one on
// first request. HSETNX keeps concurrent requests on the same token.
func (tm *TokenManager) FetchOrCreateStaffToken(ctx context.Context, staffID int64) (*models.StaffToken, error) {
	key := staffKey(tm.keyTemplate, strconv.FormatInt(staffID, 10))

	candidate, err := generateToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC().Format(timeFormat)

	_, err = tm.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, key, fieldToken, candidate)
		pipe.HSetNX(ctx, key, fieldIssued, now)
		pipe.HIncrBy(ctx, key, fieldRequests, 1)
		pipe.HSet(ctx, key, fieldLastUsed, now)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	values, err := tm.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	return parseStaffToken(staffID, values), nil
}

// RevokeStaffToken drops the token, the next request issues a fresh one.
func (tm *TokenManager) RevokeStaffToken(ctx context.Context, staffID int64) (bool, error) {
	n, err := tm.redis.Del(ctx, staffKey(tm.keyTemplate, strconv.FormatInt(staffID, 10))).Result()
	if err != nil {
		return false, fmt.Errorf("failed to revoke token: %w", err)
	}
	return n > 0, nil
}

func (tm *TokenManager) Close() error {
	if tm.redis != nil {
		return tm.redis.Close()
	}
	return nil
}

func parseStaffToken(staffID int64, values map[string]string) *models.StaffToken {
	lastUsed, _ := time.Parse(timeFormat, values[fieldLastUsed])
	issued, _ := time.Parse(timeFormat, values[fieldIssued])
	requests, _ := strconv.Atoi(values[fieldRequests])

	return &models.StaffToken{
		StaffID:      staffID,
		Token:        values[fieldToken],
		RequestCount: requests,
		LastUsedAt:   lastUsed,
		IssuedAt:     issued,
	}
}
