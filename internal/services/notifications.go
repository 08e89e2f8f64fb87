package services

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"life-os/internal/database"
	"life-os/internal/planner"
	"life-os/internal/utils"
)

// NotificationSender delivers messages to a linked chat.
type NotificationSender interface {
	SendMessage(chatID int64, text string) error
	SendTaskNotification(chatID int64, task *database.Task) error
}

type NotificationService struct {
	sender NotificationSender
	sm     *ServiceManager
	logger *zap.Logger
}

func NewNotificationService(sender NotificationSender, sm *ServiceManager, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		sender: sender,
		sm:     sm,
		logger: logger,
	}
}

// SendMorningDigest sends every linked user their upcoming tasks and habits,
// followed by one actionable message per open task due today.
func (ns *NotificationService) SendMorningDigest(ctx context.Context) {
	today := ns.sm.Clock.Today()
	ns.forEachLinked(ctx, func(user *database.User) error {
		upcoming, err := ns.sm.Task.Upcoming(ctx, user.ID, today)
		if err != nil {
			return err
		}
		habits, err := ns.sm.Habit.Summary(ctx, user.ID, today)
		if err != nil {
			return err
		}
		if err := ns.send(*user.TelegramChatID, DigestMessage(today, upcoming, habits)); err != nil {
			return err
		}

		for _, item := range upcoming.Today {
			if ns.sender == nil {
				continue
			}
			if err := ns.sender.SendTaskNotification(*user.TelegramChatID, item.Task); err != nil {
				ns.logger.Warn("task notification failed", zap.String("task", item.Task.ID), zap.Error(err))
			}
		}
		return nil
	})
}

// SendDailySummary sends every linked user the day's completion ratio.
func (ns *NotificationService) SendDailySummary(ctx context.Context) {
	today := ns.sm.Clock.Today()
	ns.forEachLinked(ctx, func(user *database.User) error {
		tasks, err := ns.sm.Task.Due(ctx, user.ID, today)
		if err != nil {
			return err
		}
		habits, err := ns.sm.Habit.Summary(ctx, user.ID, today)
		if err != nil {
			return err
		}
		return ns.send(*user.TelegramChatID, SummaryMessage(today, tasks, habits))
	})
}

func (ns *NotificationService) forEachLinked(ctx context.Context, fn func(*database.User) error) {
	users, err := ns.sm.Repository().Users.ListLinked(ctx)
	if err != nil {
		ns.logger.Error("list linked users", zap.Error(err))
		return
	}
	for _, u := range users {
		if err := fn(u); err != nil {
			ns.logger.Error("notification failed", zap.String("user", u.ID), zap.Error(err))
		}
	}
}

func (ns *NotificationService) send(chatID int64, text string) error {
	if ns.sender == nil {
		ns.logger.Info("notification (no sender configured)", zap.Int64("chat", chatID), zap.String("text", text))
		return nil
	}
	return ns.sender.SendMessage(chatID, text)
}

// DigestMessage renders the morning digest as Telegram HTML.
func DigestMessage(today time.Time, upcoming planner.Buckets[planner.UpcomingItem], habits planner.HabitsView) string {
	return UpcomingMessage(today, upcoming) + HabitsMessage(habits)
}

// UpcomingMessage lists open tasks by bucket.
func UpcomingMessage(today time.Time, upcoming planner.Buckets[planner.UpcomingItem]) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 <b>Plan for %s</b>\n\n", today.Format("Monday, January 2"))

	section := func(title string, items []planner.UpcomingItem) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "<b>%s</b>\n", title)
		for _, it := range items {
			b.WriteString(TaskLine(it.Task))
			if it.Badge != "" {
				fmt.Fprintf(&b, " [%s]", it.Badge)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if upcoming.Len() == 0 {
		b.WriteString("Nothing due this week 🎉\n\n")
	}
	section("Today", upcoming.Today)
	section("Tomorrow", upcoming.Tomorrow)
	section("Next 7 days", upcoming.Next7Days)
	return b.String()
}

// SummaryMessage renders the evening summary.
func SummaryMessage(today time.Time, tasks []*database.Task, habits planner.HabitsView) string {
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	return fmt.Sprintf(
		"📊 <b>Summary for %s</b>\n\n"+
			"✅ Tasks: %d/%d (%.0f%%)\n"+
			"🔁 Habits: %d/%d\n"+
			"🔥 Total streak: %d\n\n"+
			"Tomorrow is a new day! 🌅",
		utils.FormatDate(today),
		done, len(tasks), planner.CompletionRatio(done, len(tasks)),
		habits.Totals.TodayDone, habits.Totals.ActiveHabits,
		habits.Totals.TotalStreak,
	)
}

// HabitsMessage lists habits with today's state and streaks.
func HabitsMessage(habits planner.HabitsView) string {
	if len(habits.Habits) == 0 {
		return "No habits yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Habits</b> (%d/%d today)\n", habits.Totals.TodayDone, habits.Totals.ActiveHabits)
	for _, h := range habits.Habits {
		mark := "⬜"
		if h.CompletedToday {
			mark = "✅"
		}
		fmt.Fprintf(&b, "%s %s %s: 🔥%d (best %d)\n", mark, h.Habit.Emoji, html.EscapeString(h.Habit.Name), h.CurrentStreak, h.BestStreak)
	}
	return b.String()
}

// TaskLine renders a single task with its priority and due time.
func TaskLine(t *database.Task) string {
	priority := ""
	if t.Priority != nil {
		priority = string(*t.Priority)
	}
	line := utils.GetPriorityEmoji(priority) + " " + html.EscapeString(t.Title)
	if due := utils.FormatDueTime(t.DueTime); due != "" {
		line += " ⏰ " + due
	}
	if t.Completed {
		line = "<s>" + line + "</s>"
	}
	return line
}
