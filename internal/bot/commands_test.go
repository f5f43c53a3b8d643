package bot

import (
	"context"
	"strconv"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/dagbok/internal/app"
	"github.com/shrimpsizemoose/dagbok/internal/journal"
	"github.com/shrimpsizemoose/dagbok/internal/models"
	"github.com/shrimpsizemoose/dagbok/internal/scoring"
)

const (
	adminID int64 = 42
	staffID int64 = 77
)

const testConfig = `
[server]
port = ":9999"

[database]
dsn = "memory://"

[bot]
admin_ids = [42]

[bot.staff]
"77" = 7
`

func newTestBot(t *testing.T) *Bot {
	t.Helper()

	config, err := app.ParseConfig([]byte(testConfig))
	require.NoError(t, err)
	st, err := app.NewStore(config.Database.DSN, "")
	require.NoError(t, err)

	now := time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)
	service := app.NewServiceWith(config, st, nil, journal.WithClock(func() time.Time { return now }))
	t.Cleanup(func() { service.Close() })

	return &Bot{config: service.Config, journal: service.Journal}
}

func command(from int64, text string) *tgbotapi.Message {
	length := len(text)
	for i, r := range text {
		if r == ' ' {
			length = i
			break
		}
	}
	return &tgbotapi.Message{
		Text:     text,
		From:     &tgbotapi.User{ID: from},
		Chat:     &tgbotapi.Chat{ID: from},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}
}

func TestParseAveragesArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    journal.AveragesQuery
		wantErr bool
	}{
		{
			name: "defaults to the whole year",
			args: []string{"8", "1045"},
			want: journal.AveragesQuery{ClassID: 8, StudentID: 1045, Period: scoring.Year},
		},
		{
			name: "period and year",
			args: []string{"8", "1045", "quarter2", "2024"},
			want: journal.AveragesQuery{ClassID: 8, StudentID: 1045, Period: scoring.Quarter2, AcademicYear: 2024},
		},
		{name: "missing student", args: []string{"8"}, wantErr: true},
		{name: "bad class", args: []string{"x", "1"}, wantErr: true},
		{name: "bad period", args: []string{"8", "1", "trimester"}, wantErr: true},
		{name: "bad year", args: []string{"8", "1", "year", "24x"}, wantErr: true},
		{name: "too many", args: []string{"8", "1", "year", "2024", "extra"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAveragesArgs(tt.args)
			if tt.wantErr {
				var usage usageError
				assert.ErrorAs(t, err, &usage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLessonsArgs(t *testing.T) {
	today := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)

	filter, err := parseLessonsArgs([]string{"8"}, today)
	require.NoError(t, err)
	assert.Equal(t, models.LessonFilter{ClassID: 8, DateFrom: "2024-09-02", DateTo: "2024-09-02"}, filter)

	filter, err = parseLessonsArgs([]string{"8", "2024-10-01"}, today)
	require.NoError(t, err)
	assert.Equal(t, "2024-10-01", filter.DateFrom)

	_, err = parseLessonsArgs([]string{"8", "01.10.2024"}, today)
	assert.Error(t, err)
	_, err = parseLessonsArgs(nil, today)
	assert.Error(t, err)
}

func TestReply(t *testing.T) {
	ctx := context.Background()
	b := newTestBot(t)

	start := time.Date(2024, 9, 2, 9, 0, 0, 0, time.UTC)
	lesson, err := b.journal.CreateLesson(ctx, models.NewLesson{
		ClassID:   8,
		SubjectID: 2,
		TeacherID: 3,
		Date:      "2024-09-02",
		StartsAt:  start.Unix(),
		EndsAt:    start.Add(45 * time.Minute).Unix(),
	})
	require.NoError(t, err)

	t.Run("help depends on role", func(t *testing.T) {
		assert.Equal(t, staffHelp, b.reply(command(staffID, "/help")))
		assert.Equal(t, adminHelp, b.reply(command(adminID, "/help")))
	})

	t.Run("plain text gets a hint", func(t *testing.T) {
		assert.Equal(t, helpHint, b.reply(&tgbotapi.Message{Text: "привет", From: &tgbotapi.User{ID: staffID}}))
	})

	t.Run("admin commands are hidden from staff", func(t *testing.T) {
		assert.Equal(t, helpHint, b.reply(command(staffID, "/conduct 1")))
	})

	t.Run("token without auth", func(t *testing.T) {
		assert.Contains(t, b.reply(command(staffID, "/token")), "отключена")
		assert.Contains(t, b.reply(command(1, "/token")), "не привязан")
	})

	t.Run("lessons for today", func(t *testing.T) {
		text := b.reply(command(adminID, "/lessons 8"))
		assert.Contains(t, text, "09:00-09:45")
		assert.Contains(t, text, "⏳")
	})

	t.Run("conduct", func(t *testing.T) {
		text := b.reply(command(adminID, "/conduct 999"))
		assert.Contains(t, text, "Не найдено")

		text = b.reply(command(adminID, "/conduct "+itoa(lesson.ID)))
		assert.Contains(t, text, "проведён")
	})

	t.Run("averages", func(t *testing.T) {
		_, err := b.journal.RecordGrade(ctx, models.NewGrade{
			StudentID: 1045,
			SubjectID: 2,
			ClassID:   8,
			TeacherID: 3,
			Value:     4,
			LessonID:  &lesson.ID,
		})
		require.NoError(t, err)

		text := b.reply(command(adminID, "/avg 8 1045 quarter1 2024"))
		assert.Contains(t, text, "предмет 2: 4.0 (оценок: 1)")
		assert.Contains(t, text, "Итого: 4.0")

		text = b.reply(command(adminID, "/avg 8 2000"))
		assert.Contains(t, text, "Итого: нет оценок")

		text = b.reply(command(adminID, "/avg 8"))
		assert.Contains(t, text, "Использование: /avg")
	})
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
