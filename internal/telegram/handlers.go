package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"life-os/internal/database"
	"life-os/internal/services"
	"life-os/internal/utils"
)

var trailingTime = regexp.MustCompile(`\s+([01][0-9]|2[0-3]):([0-5][0-9])$`)

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message, user *database.User) {
	if user == nil {
		b.reply(msg.Chat.ID, notLinkedMessage(msg.Chat.ID))
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("👋 Hi %s!\n\n%s", html.EscapeString(displayName(user)), helpMessage))
}

func (b *Bot) handleHelp(ctx context.Context, msg *tgbotapi.Message, user *database.User) {
	b.reply(msg.Chat.ID, helpMessage)
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message, user *database.User) {
	today := b.services.Clock.Today()
	tasks, err := b.services.Task.Due(ctx, user.ID, today)
	if err != nil {
		b.fail(msg.Chat.ID, "❌ Could not load tasks", err)
		return
	}
	if len(tasks) == 0 {
		b.reply(msg.Chat.ID, "📭 Nothing due today")
		return
	}

	var message strings.Builder
	fmt.Fprintf(&message, "📅 <b>Tasks for %s</b>\n\n", today.Format("Monday, January 2"))
	var open []*database.Task
	for _, t := range tasks {
		status := "⬜"
		if t.Completed {
			status = "✅"
		} else {
			open = append(open, t)
		}
		fmt.Fprintf(&message, "%s %s\n", status, services.TaskLine(t))
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, message.String())
	out.ParseMode = tgbotapi.ModeHTML
	if len(open) > 0 {
		out.ReplyMarkup = taskKeyboard(open)
	}
	if _, err := b.bot.Send(out); err != nil {
		b.logger.Error("send today failed", zap.Error(err))
	}
}

func (b *Bot) handleUpcoming(ctx context.Context, msg *tgbotapi.Message, user *database.User) {
	today := b.services.Clock.Today()
	upcoming, err := b.services.Task.Upcoming(ctx, user.ID, today)
	if err != nil {
		b.fail(msg.Chat.ID, "❌ Could not load upcoming tasks", err)
		return
	}
	b.reply(msg.Chat.ID, services.UpcomingMessage(today, upcoming))
}

func (b *Bot) handleHabits(ctx context.Context, msg *tgbotapi.Message, user *database.User) {
	view, err := b.services.Habit.Summary(ctx, user.ID, b.services.Clock.Today())
	if err != nil {
		b.fail(msg.Chat.ID, "❌ Could not load habits", err)
		return
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, services.HabitsMessage(view))
	out.ParseMode = tgbotapi.ModeHTML
	if len(view.Habits) > 0 {
		out.ReplyMarkup = habitKeyboard(view)
	}
	if _, err := b.bot.Send(out); err != nil {
		b.logger.Error("send habits failed", zap.Error(err))
	}
}

func (b *Bot) handleSummary(ctx context.Context, msg *tgbotapi.Message, user *database.User) {
	today := b.services.Clock.Today()
	tasks, err := b.services.Task.Due(ctx, user.ID, today)
	if err != nil {
		b.fail(msg.Chat.ID, "❌ Could not load summary", err)
		return
	}
	habits, err := b.services.Habit.Summary(ctx, user.ID, today)
	if err != nil {
		b.fail(msg.Chat.ID, "❌ Could not load summary", err)
		return
	}
	b.reply(msg.Chat.ID, services.SummaryMessage(today, tasks, habits))
}

func (b *Bot) handleWeek(ctx context.Context, msg *tgbotapi.Message, user *database.User) {
	analytics, err := b.services.Analytics.Weekly(ctx, user.ID, b.services.Clock.Today())
	if err != nil {
		b.fail(msg.Chat.ID, "❌ Could not load weekly analytics", err)
		return
	}

	var message strings.Builder
	fmt.Fprintf(&message,
		"📈 <b>Week %d</b>\n📅 %s - %s\n\n✅ Done: %d/%d (%.0f%%)\n🔁 Habits: %.0f%%\n",
		analytics.WeekNumber, analytics.Start, analytics.End,
		analytics.TotalDone, analytics.TotalTasks, analytics.CompletionRate,
		analytics.HabitRate,
	)
	if len(analytics.CategoryStats) > 0 {
		message.WriteString("\n<b>By category:</b>\n")
		for _, name := range sortedKeys(analytics.CategoryStats) {
			st := analytics.CategoryStats[name]
			fmt.Fprintf(&message, "• %s: %d/%d (%.0f%%)\n", html.EscapeString(name), st.Completed, st.Total, st.Rate)
		}
	}
	if len(analytics.Insights) > 0 {
		fmt.Fprintf(&message, "\n<b>💡 Insights:</b>\n%s", strings.Join(analytics.Insights, "\n"))
	}
	b.reply(msg.Chat.ID, message.String())
}

// handleAddTask adds a task due today: /add Call the bank 14:30
func (b *Bot) handleAddTask(ctx context.Context, msg *tgbotapi.Message, user *database.User) {
	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		b.reply(msg.Chat.ID, "❌ Usage: /add [title] [HH:MM]")
		return
	}

	today := utils.FormatDate(b.services.Clock.Today())
	task := &database.Task{Title: text, DueDate: &today}
	if m := trailingTime.FindStringSubmatchIndex(text); m != nil {
		due := text[m[2]:m[5]]
		task.Title = strings.TrimSpace(text[:m[0]])
		task.DueTime = &due
	}

	if err := b.services.Task.Create(ctx, user.ID, task); err != nil {
		b.fail(msg.Chat.ID, "❌ Could not add the task", err)
		return
	}
	b.reply(msg.Chat.ID, "✅ Added: "+services.TaskLine(task))
}

func (b *Bot) handleCompleteTask(ctx context.Context, chatID int64, user *database.User, taskID string) {
	task, err := b.services.Task.Complete(ctx, user.ID, taskID)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(chatID, "🤷 That task no longer exists")
		return
	}
	if err != nil {
		b.fail(chatID, "❌ Could not update the task", err)
		return
	}
	b.reply(chatID, "✅ Done: "+services.TaskLine(task))
}

func (b *Bot) handleToggleHabit(ctx context.Context, chatID int64, user *database.User, habitID string) {
	res, err := b.services.Habit.Toggle(ctx, user.ID, habitID, b.services.Clock.Today())
	if errors.Is(err, database.ErrNotFound) {
		b.reply(chatID, "🤷 That habit no longer exists")
		return
	}
	if err != nil {
		b.fail(chatID, "❌ Could not update the habit", err)
		return
	}

	name := html.EscapeString(res.Habit.Name)
	if res.Completed {
		b.reply(chatID, fmt.Sprintf("%s %s done! 🔥 %d", res.Habit.Emoji, name, res.Habit.Streak))
		return
	}
	b.reply(chatID, fmt.Sprintf("↩️ %s unmarked for today", name))
}

func (b *Bot) fail(chatID int64, text string, err error) {
	b.logger.Error(text, zap.Int64("chat", chatID), zap.Error(err))
	b.reply(chatID, text)
}
