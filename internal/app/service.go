package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/shrimpsizemoose/dagbok/internal/journal"
	"github.com/shrimpsizemoose/dagbok/internal/scoring"
	"github.com/shrimpsizemoose/dagbok/internal/store"
)

type Service struct {
	Config  *Config
	Store   store.JournalStore
	Auth    *Auth
	Journal *journal.Engine
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	return NewServiceWith(config, store, auth), nil
}

// NewServiceWith wires the journal engine over an already opened store.
func NewServiceWith(config *Config, st store.JournalStore, auth *Auth, opts ...journal.Option) *Service {
	grader := scoring.NewGrader(config.Scoring.Weights, config.Scoring.DefaultWeight)
	engine := journal.NewEngine(st, grader, journal.Config{
		DefaultGradingSystem: config.GradingSystem(),
		DefaultGradeType:     config.Journal.DefaultGradeType,
		Location:             config.Location(),
	}, opts...)

	if auth == nil {
		auth = &Auth{enabled: false, tokenHeader: config.Auth.TokenHeader}
	}

	return &Service{
		Config:  config,
		Store:   st,
		Auth:    auth,
		Journal: engine,
	}
}

// ValidateAuth checks the staff id header and its bearer token.
func (s *Service) ValidateAuth(r *http.Request) error {
	if !s.Config.Server.EnableAuth {
		return nil
	}

	staff := r.Header.Get(s.Config.API.StaffIDHeader)
	if staff == "" {
		return fmt.Errorf("missing %s header", s.Config.API.StaffIDHeader)
	}

	authHeader := r.Header.Get(s.Auth.tokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return fmt.Errorf("Invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	return s.Auth.ValidateToken(r.Context(), staff, token)
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Auth.Close(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
