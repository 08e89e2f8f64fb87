package planner

import (
	"sort"
	"time"

	"life-os/internal/database"
	"life-os/internal/utils"
)

// DaySet is the set of days a habit was completed, keyed YYYY-MM-DD.
type DaySet map[string]struct{}

func NewDaySet(days ...string) DaySet {
	s := make(DaySet, len(days))
	for _, d := range days {
		s[d] = struct{}{}
	}
	return s
}

func (s DaySet) Has(day time.Time) bool {
	_, ok := s[utils.FormatDate(day)]
	return ok
}

// Toggle adds day when absent and removes it when present. It reports
// whether day is present afterwards.
func (s DaySet) Toggle(day time.Time) bool {
	key := utils.FormatDate(day)
	if _, ok := s[key]; ok {
		delete(s, key)
		return false
	}
	s[key] = struct{}{}
	return true
}

// Sorted returns the days in ascending order.
func (s DaySet) Sorted() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// CompletionsByHabit groups completion records into one set per habit.
func CompletionsByHabit(completions []*database.HabitCompletion) map[string]DaySet {
	out := make(map[string]DaySet)
	for _, c := range completions {
		set, ok := out[c.HabitID]
		if !ok {
			set = DaySet{}
			out[c.HabitID] = set
		}
		set[c.CompletedDate] = struct{}{}
	}
	return out
}

// CurrentStreak counts consecutive completed days walking back from today.
// A habit not completed today has no current streak.
func CurrentStreak(days DaySet, today time.Time) int {
	n := 0
	for d := today; days.Has(d); d = d.AddDate(0, 0, -1) {
		n++
	}
	return n
}

// LongestRun is the longest run of consecutive completed days.
func LongestRun(days DaySet) int {
	best, run := 0, 0
	var prev time.Time
	for _, key := range days.Sorted() {
		d, err := utils.ParseDate(key)
		if err != nil {
			continue
		}
		if run > 0 && prev.AddDate(0, 0, 1).Equal(d) {
			run++
		} else {
			run = 1
		}
		prev = d
		best = max(best, run)
	}
	return best
}

// BestStreak applies the stored-best rule: the best streak only grows.
func BestStreak(stored, current int) int {
	return max(stored, current)
}

// WeekProgress reports completion for the seven days from weekStart.
func WeekProgress(days DaySet, weekStart time.Time) [7]bool {
	var week [7]bool
	for i := range week {
		week[i] = days.Has(weekStart.AddDate(0, 0, i))
	}
	return week
}

type HabitStatus struct {
	Habit          *database.Habit `json:"habit"`
	CompletedToday bool            `json:"completed_today"`
	CurrentStreak  int             `json:"current_streak"`
	BestStreak     int             `json:"best_streak"`
	Week           [7]bool         `json:"week"`
}

type HabitTotals struct {
	TotalStreak  int `json:"total_streak"`
	ActiveHabits int `json:"active_habits"`
	TodayDone    int `json:"today_done"`
	BestStreak   int `json:"best_streak"`
}

type HabitsView struct {
	Date   string        `json:"date"`
	Habits []HabitStatus `json:"habits"`
	Totals HabitTotals   `json:"totals"`
}

// SummarizeHabits derives the Habits page from completion records. The
// cached streak columns on each habit are ignored except for the stored best.
func SummarizeHabits(habits []*database.Habit, completions []*database.HabitCompletion, today time.Time) HabitsView {
	byHabit := CompletionsByHabit(completions)
	weekStart := utils.StartOfWeek(today)

	view := HabitsView{
		Date:   utils.FormatDate(today),
		Habits: make([]HabitStatus, 0, len(habits)),
	}
	for _, h := range habits {
		days := byHabit[h.ID]
		if days == nil {
			days = DaySet{}
		}
		st := HabitStatus{
			Habit:          h,
			CompletedToday: days.Has(today),
			CurrentStreak:  CurrentStreak(days, today),
			Week:           WeekProgress(days, weekStart),
		}
		st.BestStreak = BestStreak(h.BestStreak, st.CurrentStreak)
		view.Habits = append(view.Habits, st)

		view.Totals.TotalStreak += st.CurrentStreak
		view.Totals.BestStreak = max(view.Totals.BestStreak, st.BestStreak)
		if st.CompletedToday {
			view.Totals.TodayDone++
		}
	}
	view.Totals.ActiveHabits = len(habits)
	return view
}
