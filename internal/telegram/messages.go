package telegram

import (
	"fmt"
	"sort"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"life-os/internal/database"
	"life-os/internal/planner"
)

const helpMessage = `📚 <b>Commands</b>

/today - tasks due today
/upcoming - today, tomorrow and the next 7 days
/habits - habits with streaks, tap to mark done
/summary - how today went
/week - weekly analytics
/add [title] [HH:MM] - add a task for today
/help - this message`

func notLinkedMessage(chatID int64) string {
	return fmt.Sprintf("🔗 This chat is not linked yet.\n\nRun on the server:\n<code>lifeos user link [email] %d</code>", chatID)
}

func displayName(u *database.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

func taskKeyboard(tasks []*database.Task) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ "+truncate(t.Title, 40), "complete_"+t.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func habitKeyboard(view planner.HabitsView) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(view.Habits))
	for _, h := range view.Habits {
		mark := "⬜"
		if h.CompletedToday {
			mark = "✅"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(mark+" "+h.Habit.Emoji+" "+truncate(h.Habit.Name, 40), "habit_"+h.Habit.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
