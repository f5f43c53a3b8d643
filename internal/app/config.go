package app

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dagbok/internal/scoring"
)

type HeaderConfig struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

// GSheetConfig describes one spreadsheet kept in sync with class averages.
type GSheetConfig struct {
	SheetID         string `toml:"sheet_id"`
	SheetName       string `toml:"sheet_name"`
	CredentialsPath string `toml:"credentials_path"`
	Schedule        string `toml:"schedule"`
	ClassID         int64  `toml:"class_id"`
	SubjectID       int64  `toml:"subject_id"`
	Period          string `toml:"period"`
	AcademicYear    int    `toml:"academic_year"`
	StudentsRange   string `toml:"students_range"`
	FirstRow        int    `toml:"first_row"`
	AverageColumn   string `toml:"average_column"`
	UpdatedAtCell   string `toml:"updated_at_cell"`
}

type Config struct {
	Server struct {
		Port       string `toml:"port"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		RedisURL         string `toml:"redis_url"`
		TokenHeader      string `toml:"token_header"`
		TokenKeyTemplate string `toml:"token_key_template"`
	} `toml:"auth"`

	API struct {
		StaffIDHeader   string         `toml:"staff_id_header"`
		RequiredHeaders []HeaderConfig `toml:"required_headers"`
	} `toml:"api"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Journal struct {
		DefaultGradingSystem string `toml:"default_grading_system"`
		DefaultGradeType     string `toml:"default_grade_type"`
		Timezone             string `toml:"timezone"`
	} `toml:"journal"`

	Scoring struct {
		DefaultWeight float64            `toml:"default_weight"`
		Weights       map[string]float64 `toml:"weights"`
	} `toml:"scoring"`

	Bot struct {
		Token    string           `toml:"token"`
		AdminIDs []int64          `toml:"admin_ids"`
		Staff    map[string]int64 `toml:"staff"`
	} `toml:"bot"`

	GSheets []GSheetConfig `toml:"gsheet"`

	location      *time.Location
	gradingSystem scoring.GradingSystem
}

var defaultWeights = map[string]float64{
	"classwork": 1,
	"homework":  1,
	"oral":      1,
	"quiz":      1,
	"test":      2,
	"project":   2,
	"exam":      3,
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s\n> Error: %w", path, err)
	}
	return config, nil
}

// ParseConfig decodes TOML and fills in defaults.
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}

	if config.Journal.DefaultGradingSystem == "" {
		config.Journal.DefaultGradingSystem = string(scoring.Ordinal)
	}
	gs, err := scoring.ParseGradingSystem(config.Journal.DefaultGradingSystem)
	if err != nil {
		return nil, fmt.Errorf("journal.default_grading_system: %w", err)
	}
	config.gradingSystem = gs

	if config.Journal.DefaultGradeType == "" {
		config.Journal.DefaultGradeType = "classwork"
	}

	if config.Journal.Timezone == "" {
		config.Journal.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(config.Journal.Timezone)
	if err != nil {
		return nil, fmt.Errorf("journal.timezone: %w", err)
	}
	config.location = loc

	if config.Scoring.DefaultWeight <= 0 {
		config.Scoring.DefaultWeight = 1
	}
	if len(config.Scoring.Weights) == 0 {
		config.Scoring.Weights = defaultWeights
	}

	if config.Database.MigrationsDir == "" {
		config.Database.MigrationsDir = "./migrations"
	}

	if config.API.StaffIDHeader == "" {
		config.API.StaffIDHeader = "X-Staff-Id"
	}
	if config.Auth.TokenHeader == "" {
		config.Auth.TokenHeader = "Authorization"
	}
	if config.Auth.TokenKeyTemplate == "" {
		config.Auth.TokenKeyTemplate = "auth:staff:{staff}"
	}

	for i, sheet := range config.GSheets {
		if _, err := scoring.ParsePeriod(sheet.Period); err != nil {
			return nil, fmt.Errorf("gsheet[%d]: %w", i, err)
		}
	}

	logger.Debug.Printf("Loaded scoring config: %+v", config.Scoring)

	return &config, nil
}

func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Config) GradingSystem() scoring.GradingSystem {
	if c.gradingSystem == "" {
		return scoring.Ordinal
	}
	return c.gradingSystem
}

func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.Bot.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}
