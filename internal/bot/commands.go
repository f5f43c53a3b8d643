package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dagbok/internal/journal"
	"github.com/shrimpsizemoose/dagbok/internal/models"
	"github.com/shrimpsizemoose/dagbok/internal/scoring"
)

const (
	staffHelp = `Доступные команды:
/token - Получить токен для доступа к API
/help - Показать это сообщение`

	adminHelp = `Доступные команды:
/token - Получить токен для доступа к API
/lessons <class> [date] - Уроки класса за день
/conduct <lesson> - Отметить урок проведённым
/avg <class> <student> [period] [year] - Средние ученика
/revoke <staff> - Отозвать токен сотрудника
/help - Показать это сообщение

Примеры:
/lessons 8 2024-09-02
/conduct 120
/avg 8 1045 quarter1 2024`

	commandTimeout = 10 * time.Second
)

type commandHandler func(ctx context.Context, msg *tgbotapi.Message) (string, error)

func (b *Bot) routeStaffCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"start": b.handleStart,
		"token": b.handleToken,
		"help":  b.handleHelp,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) routeAdminCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"lessons": b.handleLessons,
		"conduct": b.handleConduct,
		"avg":     b.handleAverages,
		"revoke":  b.handleRevoke,
	}
	handler, found := commands[cmd]
	return handler, found
}

// reply runs the command in msg and returns the text to answer with.
func (b *Bot) reply(msg *tgbotapi.Message) string {
	if !msg.IsCommand() || msg.From == nil {
		return helpHint
	}

	cmd := msg.Command()
	handler, ok := b.routeStaffCommands(cmd)
	if !ok && b.config.IsAdmin(msg.From.ID) {
		handler, ok = b.routeAdminCommands(cmd)
	}
	if !ok {
		return helpHint
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	text, err := handler(ctx, msg)
	if err != nil {
		return errorText(cmd, err)
	}
	return text
}

const helpHint = "Используйте команды для взаимодействия с ботом. Отправьте /help для списка команд."

func errorText(cmd string, err error) string {
	var jerr *journal.Error
	if errors.As(err, &jerr) {
		switch jerr.Kind {
		case journal.KindNotFound:
			return "❌ Не найдено: " + jerr.Message
		case journal.KindInvalidTransition:
			return "❌ Нельзя: " + jerr.Message
		default:
			return "❌ Ошибка: " + jerr.Message
		}
	}
	var usage usageError
	if errors.As(err, &usage) {
		return "Использование: " + string(usage)
	}
	logger.Error.Printf("Command %s failed: %v", cmd, err)
	return "❌ Внутренняя ошибка, попробуйте позже"
}

func (b *Bot) handleHelp(_ context.Context, msg *tgbotapi.Message) (string, error) {
	if b.config.IsAdmin(msg.From.ID) {
		return adminHelp, nil
	}
	return staffHelp, nil
}

func (b *Bot) handleStart(_ context.Context, msg *tgbotapi.Message) (string, error) {
	text := "Привет! Я помогу с электронным журналом.\n\n"
	if b.config.IsAdmin(msg.From.ID) {
		text += "Ты администратор журнала. Используй /help для списка команд."
	} else {
		text += "Используй /token чтобы получить токен."
	}
	return text, nil
}

func (b *Bot) handleToken(ctx context.Context, msg *tgbotapi.Message) (string, error) {
	staffID, ok := b.config.Bot.Staff[strconv.FormatInt(msg.From.ID, 10)]
	if !ok {
		return "Твой аккаунт не привязан к сотруднику. Обратись к администратору.", nil
	}
	if b.tokens == nil {
		return "Авторизация API отключена, токен не нужен.", nil
	}

	info, err := b.tokens.FetchOrCreateStaffToken(ctx, staffID)
	if err != nil {
		return "", err
	}

	text := fmt.Sprintf("Твой токен:\n%s\n\nВыдан: %s\nЗапросов: %d",
		info.Token,
		info.IssuedAt.In(b.config.Location()).Format("2006-01-02 15:04"),
		info.RequestCount,
	)
	if info.Fresh() {
		text = "🔑 Новый токен создан.\n" + text
	}
	return text, nil
}

func (b *Bot) handleRevoke(ctx context.Context, msg *tgbotapi.Message) (string, error) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		return "", usageError("/revoke <staff>")
	}
	staffID, err := parseID(args[0])
	if err != nil {
		return "", usageError("/revoke <staff>")
	}
	if b.tokens == nil {
		return "Авторизация API отключена.", nil
	}

	revoked, err := b.tokens.RevokeStaffToken(ctx, staffID)
	if err != nil {
		return "", err
	}
	if !revoked {
		return fmt.Sprintf("У сотрудника %d нет токена", staffID), nil
	}
	return fmt.Sprintf("✅ Токен сотрудника %d отозван", staffID), nil
}

func (b *Bot) handleLessons(ctx context.Context, msg *tgbotapi.Message) (string, error) {
	filter, err := parseLessonsArgs(strings.Fields(msg.CommandArguments()), b.journal.Now().In(b.journal.Location()))
	if err != nil {
		return "", err
	}

	lessons, err := b.journal.ListLessons(ctx, filter)
	if err != nil {
		return "", err
	}
	if len(lessons) == 0 {
		return fmt.Sprintf("Уроков класса %d на %s нет", filter.ClassID, filter.DateFrom), nil
	}

	var text strings.Builder
	text.WriteString(fmt.Sprintf("Уроки класса %d на %s:\n\n", filter.ClassID, filter.DateFrom))
	for _, l := range lessons {
		mark := "⏳"
		if l.Status == models.LessonConducted {
			mark = "✅"
		}
		text.WriteString(fmt.Sprintf("%s #%d предмет %d, %s-%s",
			mark,
			l.ID,
			l.SubjectID,
			time.Unix(l.StartsAt, 0).In(b.journal.Location()).Format("15:04"),
			time.Unix(l.EndsAt, 0).In(b.journal.Location()).Format("15:04"),
		))
		if l.SubgroupID != nil {
			text.WriteString(fmt.Sprintf(" (подгруппа %d)", *l.SubgroupID))
		}
		text.WriteString("\n")
	}
	return text.String(), nil
}

func (b *Bot) handleConduct(ctx context.Context, msg *tgbotapi.Message) (string, error) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		return "", usageError("/conduct <lesson>")
	}
	lessonID, err := parseID(args[0])
	if err != nil {
		return "", usageError("/conduct <lesson>")
	}

	lesson, err := b.journal.SetLessonStatus(ctx, lessonID, models.LessonConducted)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Урок #%d (%s) проведён", lesson.ID, lesson.Date), nil
}

func (b *Bot) handleAverages(ctx context.Context, msg *tgbotapi.Message) (string, error) {
	query, err := parseAveragesArgs(strings.Fields(msg.CommandArguments()))
	if err != nil {
		return "", err
	}
	if query.AcademicYear == 0 {
		query.AcademicYear = scoring.AcademicYear(b.journal.Now().In(b.journal.Location()))
	}

	averages, err := b.journal.Averages(ctx, query)
	if err != nil {
		return "", err
	}
	return formatAverages(query, averages[query.StudentID]), nil
}

func formatAverages(query journal.AveragesQuery, results map[string]scoring.Result) string {
	var text strings.Builder
	text.WriteString(fmt.Sprintf("Ученик %d, класс %d, %s %d/%d:\n\n",
		query.StudentID, query.ClassID, query.Period, query.AcademicYear, query.AcademicYear+1))

	keys := make([]string, 0, len(results))
	for key := range results {
		if key != journal.OverallKey {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		text.WriteString(fmt.Sprintf("📘 предмет %s: %s\n", key, formatResult(results[key])))
	}
	text.WriteString(fmt.Sprintf("\nИтого: %s", formatResult(results[journal.OverallKey])))
	return text.String()
}

func formatResult(r scoring.Result) string {
	switch {
	case r.NoData:
		return "нет оценок"
	case r.Percentage != nil:
		return fmt.Sprintf("%.1f%% (оценок: %d)", *r.Percentage, r.GradeCount)
	case r.Average != nil:
		return fmt.Sprintf("%.1f (оценок: %d)", *r.Average, r.GradeCount)
	default:
		return "нет оценок"
	}
}
