package bot

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dagbok/internal/app"
	"github.com/shrimpsizemoose/dagbok/internal/journal"
)

type Bot struct {
	config  *app.Config
	journal *journal.Engine
	tokens  *app.TokenManager
	api     *tgbotapi.BotAPI
}

// New connects to telegram. tokens may be nil when auth is disabled.
func New(service *app.Service, tokens *app.TokenManager) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(service.Config.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	logger.Info.Printf("Authorized on account %s", api.Self.UserName)

	return &Bot{
		config:  service.Config,
		journal: service.Journal,
		tokens:  tokens,
		api:     api,
	}, nil
}

func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case update := <-updates:
			if update.Message == nil {
				continue
			}

			go b.handleMessage(update.Message)

		case <-sigChan:
			logger.Info.Println("Shutting down bot...")
			b.api.StopReceivingUpdates()
			return nil
		}
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	text := b.reply(msg)
	if text == "" {
		return
	}
	if err := b.sendMessage(msg.Chat.ID, text); err != nil {
		logger.Error.Printf("Failed to send message to chat %d: %v", msg.Chat.ID, err)
	}
}

func (b *Bot) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}
