package app

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/dagbok/internal/scoring"
	"github.com/shrimpsizemoose/dagbok/internal/store"
)

const sampleConfig = `
[server]
port = ":9999"

[api]
staff_id_header = "X-Staff"
required_headers = [{ name = "X-Client", value = "dagbok" }]

[database]
dsn = "memory://"

[journal]
default_grading_system = "cumulative"
timezone = "Europe/Moscow"

[scoring]
default_weight = 1.5

[scoring.weights]
test = 2
exam = 4

[bot]
admin_ids = [42]

[bot.staff]
"42" = 7

[[gsheet]]
sheet_id = "abc"
sheet_name = "8B"
schedule = "0 6 * * *"
class_id = 8
subject_id = 3
period = "quarter1"
students_range = "8B!A2:A40"
first_row = 2
average_column = "C"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, ":9999", config.Server.Port)
	assert.Equal(t, scoring.Cumulative, config.GradingSystem())
	assert.Equal(t, "Europe/Moscow", config.Location().String())
	assert.Equal(t, "classwork", config.Journal.DefaultGradeType)
	assert.Equal(t, 1.5, config.Scoring.DefaultWeight)
	assert.Equal(t, map[string]float64{"test": 2, "exam": 4}, config.Scoring.Weights)
	assert.Equal(t, "auth:staff:{staff}", config.Auth.TokenKeyTemplate)
	assert.Equal(t, int64(7), config.Bot.Staff["42"])
	assert.True(t, config.IsAdmin(42))
	assert.False(t, config.IsAdmin(43))

	require.Len(t, config.GSheets, 1)
	assert.Equal(t, int64(8), config.GSheets[0].ClassID)
	assert.Equal(t, "C", config.GSheets[0].AverageColumn)
}

func TestParseConfig_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"missing port", "[server]\nenable_auth = false\n"},
		{"unknown grading system", "[server]\nport = \":1\"\n[journal]\ndefault_grading_system = \"letters\"\n"},
		{"unknown timezone", "[server]\nport = \":1\"\n[journal]\ntimezone = \"Mars/Olympus\"\n"},
		{"unknown sheet period", "[server]\nport = \":1\"\n[[gsheet]]\nperiod = \"trimester\"\n"},
		{"broken toml", "[server\nport = 1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tc.content))
			assert.Error(t, err)
		})
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	config, err := ParseConfig([]byte("[server]\nport = \":1\"\n"))
	require.NoError(t, err)

	assert.Equal(t, scoring.Ordinal, config.GradingSystem())
	assert.Equal(t, "UTC", config.Location().String())
	assert.Equal(t, 3.0, config.Scoring.Weights["exam"])
	assert.Equal(t, "X-Staff-Id", config.API.StaffIDHeader)
	assert.Equal(t, "./migrations", config.Database.MigrationsDir)
}

func TestDatabaseTypeOf(t *testing.T) {
	assert.Equal(t, store.DBTypePostgres, DatabaseTypeOf("postgres://u:p@localhost/db"))
	assert.Equal(t, store.DBTypeMemory, DatabaseTypeOf("memory://"))
	assert.Equal(t, store.DBTypeSQLite, DatabaseTypeOf("file:dagbok.db"))
}

func TestService_ValidateHeaders(t *testing.T) {
	config, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	st, err := NewStore("memory://", "")
	require.NoError(t, err)
	service := NewServiceWith(config, st, nil)
	defer service.Close()

	good := http.Header{}
	good.Set("X-Client", "DAGBOK")
	assert.True(t, service.ValidateHeaders(good))
	assert.False(t, service.ValidateHeaders(http.Header{}))

	req, err := http.NewRequest(http.MethodGet, "/api/v1/lessons", nil)
	require.NoError(t, err)
	assert.NoError(t, service.ValidateAuth(req), "auth is disabled")
}

func TestGenerateToken(t *testing.T) {
	a, err := generateToken()
	require.NoError(t, err)
	b, err := generateToken()
	require.NoError(t, err)

	assert.Len(t, a, len(tokenPrefix)+32)
	assert.Contains(t, a, tokenPrefix)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "auth:staff:12", staffKey("auth:staff:{staff}", "12"))
}

func TestParseStaffToken(t *testing.T) {
	token := parseStaffToken(7, map[string]string{
		fieldToken:    "sk-dagbok-abc",
		fieldRequests: "1",
		fieldIssued:   "2024-09-02T10:00:00Z",
		fieldLastUsed: "2024-09-02T10:00:00Z",
	})

	assert.Equal(t, int64(7), token.StaffID)
	assert.Equal(t, "sk-dagbok-abc", token.Token)
	assert.True(t, token.Fresh())
	assert.Equal(t, 2024, token.IssuedAt.Year())

	token = parseStaffToken(7, map[string]string{fieldRequests: "3"})
	assert.False(t, token.Fresh())
	assert.True(t, token.IssuedAt.IsZero())
}
