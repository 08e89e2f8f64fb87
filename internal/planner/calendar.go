package planner

import (
	"time"

	"life-os/internal/database"
	"life-os/internal/utils"
)

// GridCells is six full weeks; the grid never changes size with the month.
const GridCells = 42

var WeekDays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Event is a dated task as shown inside a calendar cell.
type Event struct {
	TaskID    string `json:"task_id"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Color     string `json:"color"`
	DueTime   string `json:"due_time,omitempty"`
	Completed bool   `json:"completed"`
}

type Cell struct {
	Date    string  `json:"date"`
	Day     int     `json:"day"`
	InMonth bool    `json:"in_month"`
	IsToday bool    `json:"is_today"`
	Events  []Event `json:"events"`
}

type Month struct {
	Month    string   `json:"month"`
	Title    string   `json:"title"`
	WeekDays []string `json:"week_days"`
	Leading  int      `json:"leading"`
	Trailing int      `json:"trailing"`
	Cells    []Cell   `json:"cells"`
}

// MonthRange returns the first and last day of month.
func MonthRange(month time.Time) (first, last time.Time) {
	return utils.StartOfMonth(month), utils.EndOfMonth(month)
}

// MonthGrid lays out month as a Monday-first grid padded with the adjacent
// months. Only in-month cells carry events.
func MonthGrid(month, today time.Time, events map[string][]Event) Month {
	first := utils.StartOfMonth(month)
	days := utils.DaysInMonth(first)
	leading := utils.MondayIndex(first.Weekday())
	trailing := GridCells - (leading + days)

	grid := Month{
		Month:    first.Format(utils.MonthLayout),
		Title:    first.Format("January 2006"),
		WeekDays: WeekDays,
		Leading:  leading,
		Trailing: trailing,
		Cells:    make([]Cell, 0, GridCells),
	}

	start := first.AddDate(0, 0, -leading)
	for i := 0; i < GridCells; i++ {
		day := start.AddDate(0, 0, i)
		key := utils.FormatDate(day)
		cell := Cell{
			Date:    key,
			Day:     day.Day(),
			InMonth: day.Month() == first.Month() && day.Year() == first.Year(),
			IsToday: utils.SameDay(day, today),
			Events:  []Event{},
		}
		if cell.InMonth && events[key] != nil {
			cell.Events = events[key]
		}
		grid.Cells = append(grid.Cells, cell)
	}
	return grid
}

// TaskEvents indexes tasks by due date. Categories are resolved through
// categories by id; tasks without one get the calendar's default label.
func TaskEvents(tasks []*database.Task, categories []*database.Category) map[string][]Event {
	byID := make(map[string]*database.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	sorted := append([]*database.Task(nil), tasks...)
	SortTasks(sorted)
	out := make(map[string][]Event)
	for _, t := range sorted {
		due, ok := TaskDue(t)
		if !ok {
			continue
		}
		ev := Event{
			TaskID:    t.ID,
			Title:     t.Title,
			Category:  utils.DefaultCalendarLabel,
			Color:     utils.DefaultCategoryColor,
			DueTime:   utils.FormatDueTime(t.DueTime),
			Completed: t.Completed,
		}
		if t.CategoryID != nil {
			if c, ok := byID[*t.CategoryID]; ok {
				ev.Category = utils.CategoryName(&c.Name, utils.DefaultCalendarLabel)
				ev.Color = utils.CategoryColor(c.Color)
			}
		}
		key := utils.FormatDate(due)
		out[key] = append(out[key], ev)
	}
	return out
}
