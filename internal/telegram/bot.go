package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"life-os/internal/database"
	"life-os/internal/services"
)

type handlerFunc func(ctx context.Context, msg *tgbotapi.Message, user *database.User)

type Bot struct {
	bot      *tgbotapi.BotAPI
	services *services.ServiceManager
	handlers map[string]handlerFunc
	// public commands answer unlinked chats too
	public map[string]bool
	logger *zap.Logger
}

func NewBot(token string, serviceManager *services.ServiceManager, logger *zap.Logger) (*Bot, error) {
	return NewBotWithEndpoint(token, tgbotapi.APIEndpoint, http.DefaultClient, serviceManager, logger)
}

// NewBotWithEndpoint talks to a Bot API compatible server at endpoint, a
// format string taking the token and the method name.
func NewBotWithEndpoint(token, endpoint string, client tgbotapi.HTTPClient, serviceManager *services.ServiceManager, logger *zap.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:      botAPI,
		services: serviceManager,
		handlers: make(map[string]handlerFunc),
		public:   map[string]bool{"start": true, "help": true},
		logger:   logger,
	}

	bot.registerHandlers()
	logger.Info("telegram bot initialized", zap.String("username", botAPI.Self.UserName))
	return bot, nil
}

func (b *Bot) registerHandlers() {
	b.handlers["start"] = b.handleStart
	b.handlers["today"] = b.handleToday
	b.handlers["upcoming"] = b.handleUpcoming
	b.handlers["habits"] = b.handleHabits
	b.handlers["summary"] = b.handleSummary
	b.handlers["week"] = b.handleWeek
	b.handlers["add"] = b.handleAddTask
	b.handlers["help"] = b.handleHelp
}

func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.bot.Send(msg)
	return err
}

// SendTaskNotification sends one task with a completion button.
func (b *Bot) SendTaskNotification(chatID int64, task *database.Task) error {
	msg := tgbotapi.NewMessage(chatID, "🔔 "+services.TaskLine(task))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = taskKeyboard([]*database.Task{task})
	_, err := b.bot.Send(msg)
	return err
}

func (b *Bot) GetUsername() string {
	return b.bot.Self.UserName
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)
	defer b.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil || update.Message.Chat == nil {
		return
	}
	b.handleMessage(ctx, update.Message)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		return
	}
	command := strings.ToLower(msg.Command())
	handler, exists := b.handlers[command]
	if !exists {
		b.reply(msg.Chat.ID, "❌ Unknown command. Try /help")
		return
	}

	user, err := b.userFor(ctx, msg.Chat.ID)
	if err != nil && !b.public[command] {
		b.reply(msg.Chat.ID, notLinkedMessage(msg.Chat.ID))
		return
	}
	handler(ctx, msg, user)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	defer func() {
		if _, err := b.bot.Request(tgbotapi.NewCallback(callback.ID, "✅")); err != nil {
			b.logger.Warn("callback answer failed", zap.Error(err))
		}
	}()

	if callback.Message == nil || callback.Message.Chat == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	user, err := b.userFor(ctx, chatID)
	if err != nil {
		b.reply(chatID, notLinkedMessage(chatID))
		return
	}

	data := callback.Data
	b.logger.Debug("callback received", zap.String("data", data), zap.Int64("chat", chatID))

	switch {
	case strings.HasPrefix(data, "complete_"):
		b.handleCompleteTask(ctx, chatID, user, strings.TrimPrefix(data, "complete_"))
	case strings.HasPrefix(data, "habit_"):
		b.handleToggleHabit(ctx, chatID, user, strings.TrimPrefix(data, "habit_"))
	}
}

func (b *Bot) userFor(ctx context.Context, chatID int64) (*database.User, error) {
	user, err := b.services.Repository().Users.GetByChatID(ctx, chatID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		b.logger.Error("resolve chat", zap.Int64("chat", chatID), zap.Error(err))
	}
	return user, err
}

// reply sends text and logs a failure instead of stopping the bot.
func (b *Bot) reply(chatID int64, text string) {
	if err := b.SendMessage(chatID, text); err != nil {
		b.logger.Error("send message failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}
