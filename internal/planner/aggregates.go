package planner

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"life-os/internal/database"
	"life-os/internal/utils"
)

var hundred = decimal.NewFromInt(100)

// PercentChange is (cur-prev)/prev*100 rounded to two places, and 0 when
// there is no previous value to compare against.
func PercentChange(cur, prev decimal.Decimal) float64 {
	if prev.IsZero() {
		return 0
	}
	return cur.Sub(prev).Div(prev).Mul(hundred).Round(2).InexactFloat64()
}

// CompletionRatio is done/total as a percentage, 0 for an empty set.
func CompletionRatio(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(done)/float64(total)*1000) / 10
}

type FinanceSummary struct {
	Month         string          `json:"month"`
	Income        decimal.Decimal `json:"income"`
	Expense       decimal.Decimal `json:"expense"`
	Balance       decimal.Decimal `json:"balance"`
	LastIncome    decimal.Decimal `json:"last_income"`
	LastExpense   decimal.Decimal `json:"last_expense"`
	IncomeChange  float64         `json:"income_change"`
	ExpenseChange float64         `json:"expense_change"`
}

// FinanceWindow is the fetch window SummarizeFinance needs: the first day of
// last month through the last day of this month.
func FinanceWindow(today time.Time) (from, to time.Time) {
	this := utils.StartOfMonth(today)
	return this.AddDate(0, -1, 0), utils.EndOfMonth(this)
}

// SummarizeFinance totals this calendar month against the previous one.
// Rows outside both months and rows without a date are ignored.
func SummarizeFinance(rows []*database.Transaction, today time.Time) FinanceSummary {
	this := utils.StartOfMonth(today)
	last := this.AddDate(0, -1, 0)
	thisKey, lastKey := this.Format(utils.MonthLayout), last.Format(utils.MonthLayout)

	s := FinanceSummary{Month: thisKey}
	for _, r := range rows {
		if r.TransactionDate == nil || len(*r.TransactionDate) < len(utils.MonthLayout) {
			continue
		}
		month := (*r.TransactionDate)[:len(utils.MonthLayout)]
		switch {
		case month == thisKey && r.TransactionType == database.Income:
			s.Income = s.Income.Add(r.Amount)
		case month == thisKey && r.TransactionType == database.Expense:
			s.Expense = s.Expense.Add(r.Amount)
		case month == lastKey && r.TransactionType == database.Income:
			s.LastIncome = s.LastIncome.Add(r.Amount)
		case month == lastKey && r.TransactionType == database.Expense:
			s.LastExpense = s.LastExpense.Add(r.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	s.IncomeChange = PercentChange(s.Income, s.LastIncome)
	s.ExpenseChange = PercentChange(s.Expense, s.LastExpense)
	return s
}

type HealthTargets struct {
	WaterGlasses int     `yaml:"water_glasses" json:"water_glasses"`
	SleepHours   float64 `yaml:"sleep_hours" json:"sleep_hours"`
	Steps        int     `yaml:"steps" json:"steps"`
}

func DefaultHealthTargets() HealthTargets {
	return HealthTargets{WaterGlasses: 8, SleepHours: 8, Steps: 10000}
}

type HealthScore struct {
	Date  string  `json:"date"`
	Score int     `json:"score"`
	Water float64 `json:"water"`
	Sleep float64 `json:"sleep"`
	Steps float64 `json:"steps"`
}

// ScoreHealth weighs the water, sleep and steps ratios equally, each capped
// at its target. A missing log or metric scores 0 for that part.
func ScoreHealth(log *database.HealthLog, targets HealthTargets, day time.Time) HealthScore {
	hs := HealthScore{Date: utils.FormatDate(day)}
	if log == nil {
		return hs
	}
	if log.WaterGlasses != nil {
		hs.Water = ratio(float64(*log.WaterGlasses), float64(targets.WaterGlasses))
	}
	if log.SleepHours != nil {
		hs.Sleep = ratio(*log.SleepHours, targets.SleepHours)
	}
	if log.Steps != nil {
		hs.Steps = ratio(float64(*log.Steps), float64(targets.Steps))
	}
	hs.Score = int(math.Round((hs.Water + hs.Sleep + hs.Steps) / 3 * 100))
	return hs
}

func ratio(v, target float64) float64 {
	if target <= 0 || v <= 0 {
		return 0
	}
	return math.Min(v/target, 1)
}

// GoalProgress derives progress from milestones when the goal has any,
// otherwise falls back to the stored value.
func GoalProgress(goal *database.Goal, milestones []*database.GoalMilestone) int {
	total, done := 0, 0
	for _, m := range milestones {
		if m.GoalID != goal.ID {
			continue
		}
		total++
		if m.Completed {
			done++
		}
	}
	if total == 0 {
		return min(max(goal.Progress, 0), 100)
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

type GoalStatus struct {
	Goal       *database.Goal            `json:"goal"`
	Milestones []*database.GoalMilestone `json:"milestones"`
	Progress   int                       `json:"progress"`
	Category   string                    `json:"category"`
	Color      string                    `json:"color"`
	TargetDate string                    `json:"target_date"`
}

// GoalStatuses attaches milestones to their goals and derives progress.
func GoalStatuses(goals []*database.Goal, milestones []*database.GoalMilestone) []GoalStatus {
	byGoal := make(map[string][]*database.GoalMilestone)
	for _, m := range milestones {
		byGoal[m.GoalID] = append(byGoal[m.GoalID], m)
	}

	out := make([]GoalStatus, 0, len(goals))
	for _, g := range goals {
		ms := byGoal[g.ID]
		sort.SliceStable(ms, func(i, j int) bool { return ms[i].SortOrder < ms[j].SortOrder })
		if ms == nil {
			ms = []*database.GoalMilestone{}
		}
		out = append(out, GoalStatus{
			Goal:       g,
			Milestones: ms,
			Progress:   GoalProgress(g, ms),
			Category:   utils.CategoryName(g.Category, utils.DefaultCategory),
			Color:      utils.CategoryColor(g.CategoryColor),
			TargetDate: utils.FormatLongDate(g.TargetDate),
		})
	}
	return out
}

type CategoryStats struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Rate      float64 `json:"rate"`
}

type WeeklyAnalytics struct {
	WeekNumber     int                      `json:"week_number"`
	Start          string                   `json:"start"`
	End            string                   `json:"end"`
	TotalTasks     int                      `json:"total_tasks"`
	TotalDone      int                      `json:"total_done"`
	CompletionRate float64                  `json:"completion_rate"`
	CategoryStats  map[string]CategoryStats `json:"category_stats"`
	HabitRate      float64                  `json:"habit_rate"`
	Insights       []string                 `json:"insights"`
}

// WeekRange returns Monday and Sunday of the ISO week containing day.
func WeekRange(day time.Time) (start, end time.Time) {
	start = utils.StartOfWeek(day)
	return start, start.AddDate(0, 0, 6)
}

// Weekly summarizes the ISO week containing today. tasks and completions
// should already be limited to that week.
func Weekly(tasks []*database.Task, categories []*database.Category, habits []*database.Habit, completions []*database.HabitCompletion, today time.Time) *WeeklyAnalytics {
	start, end := WeekRange(today)
	_, week := today.ISOWeek()

	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	wa := &WeeklyAnalytics{
		WeekNumber:    week,
		Start:         utils.FormatDate(start),
		End:           utils.FormatDate(end),
		CategoryStats: make(map[string]CategoryStats),
	}
	for _, t := range tasks {
		name := utils.DefaultCategory
		if t.CategoryID != nil {
			if n, ok := names[*t.CategoryID]; ok {
				name = n
			}
		}
		st := wa.CategoryStats[name]
		st.Total++
		wa.TotalTasks++
		if t.Completed {
			st.Completed++
			wa.TotalDone++
		}
		wa.CategoryStats[name] = st
	}
	for name, st := range wa.CategoryStats {
		st.Rate = CompletionRatio(st.Completed, st.Total)
		wa.CategoryStats[name] = st
	}
	wa.CompletionRate = CompletionRatio(wa.TotalDone, wa.TotalTasks)

	// Days elapsed in the week so far; future days cannot be completed yet.
	elapsed := int(utils.DayOf(today, time.UTC).Sub(start).Hours()/24) + 1
	last := utils.FormatDate(today)
	done := 0
	for _, c := range completions {
		if c.CompletedDate >= wa.Start && c.CompletedDate <= last {
			done++
		}
	}
	wa.HabitRate = CompletionRatio(done, len(habits)*elapsed)
	wa.Insights = weeklyInsights(wa)
	return wa
}

func weeklyInsights(wa *WeeklyAnalytics) []string {
	if wa.TotalTasks == 0 && wa.HabitRate == 0 {
		return []string{"📊 Not enough data yet. Keep tracking!"}
	}

	var insights []string
	switch {
	case wa.TotalTasks == 0:
	case wa.CompletionRate < 50:
		insights = append(insights, "💪 More focus needed on finishing tasks")
	case wa.CompletionRate > 80:
		insights = append(insights, "🎯 Great week! Keep it up")
	default:
		insights = append(insights, "📈 Good progress, room to grow")
	}

	names := make([]string, 0, len(wa.CategoryStats))
	for name := range wa.CategoryStats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if st := wa.CategoryStats[name]; st.Rate < 40 {
			insights = append(insights, fmt.Sprintf("⚠️ %s needs attention: %.0f%% done", name, st.Rate))
		}
	}

	if wa.HabitRate >= 80 {
		insights = append(insights, "🔥 Habits are on fire this week!")
	} else if wa.HabitRate < 30 {
		insights = append(insights, "🌱 Habits slipped this week. Start with one")
	}
	return insights
}
