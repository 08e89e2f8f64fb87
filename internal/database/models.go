package database

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"life-os/internal/utils"
)

// Meta is the bookkeeping every owner-scoped row carries.
type Meta struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Meta) RowMeta() *Meta { return m }

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// priorityRank orders high before medium before low; missing sorts last.
var priorityRank = map[Priority]int{
	PriorityHigh:   0,
	PriorityMedium: 1,
	PriorityLow:    2,
}

func (p Priority) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return len(priorityRank)
}

type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodNeutral Mood = "neutral"
	MoodSad     Mood = "sad"
)

type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	PasswordHash   string    `json:"-"`
	TelegramChatID *int64    `json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Category struct {
	Meta
	Name  string  `json:"name"`
	Color *string `json:"color"`
	Icon  *string `json:"icon"`
}

func (c *Category) fields() []any { return []any{&c.Name, &c.Color, &c.Icon} }

func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name", "must not be empty")
	}
	return nil
}

type Task struct {
	Meta
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *string    `json:"due_date"`
	DueTime     *string    `json:"due_time"`
	Priority    *Priority  `json:"priority"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CategoryID  *string    `json:"category_id"`
}

func (t *Task) fields() []any {
	return []any{&t.Title, &t.Description, &t.DueDate, &t.DueTime, &t.Priority, &t.Completed, &t.CompletedAt, &t.CategoryID}
}

func (t *Task) ApplyDefaults(today string) {
	if strings.TrimSpace(t.Title) == "" {
		t.Title = "New task"
	}
	if t.Priority == nil {
		p := PriorityMedium
		t.Priority = &p
	}
}

func (t *Task) Validate() error {
	if t.Priority != nil {
		if _, ok := priorityRank[*t.Priority]; !ok {
			return invalid("priority", "must be low, medium or high")
		}
	}
	if err := validDate("due_date", t.DueDate); err != nil {
		return err
	}
	if t.DueTime != nil && *t.DueTime != "" {
		if _, err := time.Parse(utils.TimeLayout, utils.FormatDueTime(t.DueTime)); err != nil {
			return invalid("due_time", "must be HH:MM")
		}
	}
	return nil
}

// Toggle flips completion and keeps completed_at consistent with it.
func (t *Task) Toggle(now time.Time) {
	t.SetCompleted(!t.Completed, now)
}

func (t *Task) SetCompleted(done bool, now time.Time) {
	t.Completed = done
	if done {
		at := now.UTC()
		t.CompletedAt = &at
	} else {
		t.CompletedAt = nil
	}
}

type Habit struct {
	Meta
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	TargetCount int    `json:"target_count"`
	// Streak and BestStreak are caches; completion records are authoritative.
	Streak     int `json:"streak"`
	BestStreak int `json:"best_streak"`
}

func (h *Habit) fields() []any {
	return []any{&h.Name, &h.Emoji, &h.Category, &h.Description, &h.Frequency, &h.TargetCount, &h.Streak, &h.BestStreak}
}

func (h *Habit) ApplyDefaults(today string) {
	if strings.TrimSpace(h.Name) == "" {
		h.Name = "New Habit"
	}
	if h.Emoji == "" {
		h.Emoji = "✅"
	}
	if h.Frequency == "" {
		h.Frequency = "daily"
	}
	if h.TargetCount <= 0 {
		h.TargetCount = 1
	}
}

type HabitCompletion struct {
	Meta
	HabitID       string `json:"habit_id"`
	CompletedDate string `json:"completed_date"`
	Count         int    `json:"count"`
	Notes         string `json:"notes"`
}

func (c *HabitCompletion) fields() []any {
	return []any{&c.HabitID, &c.CompletedDate, &c.Count, &c.Notes}
}

func (c *HabitCompletion) ApplyDefaults(today string) {
	if c.CompletedDate == "" {
		c.CompletedDate = today
	}
	if c.Count <= 0 {
		c.Count = 1
	}
}

func (c *HabitCompletion) Validate() error {
	if c.HabitID == "" {
		return invalid("habit_id", "is required")
	}
	return validDate("completed_date", &c.CompletedDate)
}

type JournalEntry struct {
	Meta
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Mood      *Mood   `json:"mood"`
	EntryDate *string `json:"entry_date"`
	Tags      Tags    `json:"tags"`
}

func (j *JournalEntry) fields() []any {
	return []any{&j.Title, &j.Content, &j.Mood, &j.EntryDate, &j.Tags}
}

func (j *JournalEntry) ApplyDefaults(today string) {
	if strings.TrimSpace(j.Title) == "" {
		j.Title = "New Entry"
	}
	if j.Mood == nil {
		m := MoodNeutral
		j.Mood = &m
	}
	if j.EntryDate == nil {
		j.EntryDate = &today
	}
	if j.Tags == nil {
		j.Tags = Tags{}
	}
}

func (j *JournalEntry) Validate() error {
	if j.Mood != nil {
		switch *j.Mood {
		case MoodHappy, MoodNeutral, MoodSad:
		default:
			return invalid("mood", "must be happy, neutral or sad")
		}
	}
	return validDate("entry_date", j.EntryDate)
}

type Goal struct {
	Meta
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Progress      int     `json:"progress"`
	Status        string  `json:"status"`
	TargetDate    *string `json:"target_date"`
	Category      *string `json:"category"`
	CategoryColor *string `json:"category_color"`
}

func (g *Goal) fields() []any {
	return []any{&g.Title, &g.Description, &g.Progress, &g.Status, &g.TargetDate, &g.Category, &g.CategoryColor}
}

func (g *Goal) ApplyDefaults(today string) {
	if strings.TrimSpace(g.Title) == "" {
		g.Title = "New Goal"
	}
	if g.Status == "" {
		g.Status = "active"
	}
}

func (g *Goal) Validate() error {
	if g.Progress < 0 || g.Progress > 100 {
		return invalid("progress", "must be between 0 and 100")
	}
	return validDate("target_date", g.TargetDate)
}

type GoalMilestone struct {
	Meta
	GoalID      string     `json:"goal_id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
	SortOrder   int        `json:"sort_order"`
}

func (m *GoalMilestone) fields() []any {
	return []any{&m.GoalID, &m.Title, &m.Completed, &m.CompletedAt, &m.SortOrder}
}

func (m *GoalMilestone) ApplyDefaults(today string) {
	if strings.TrimSpace(m.Title) == "" {
		m.Title = "New Milestone"
	}
}

func (m *GoalMilestone) Validate() error {
	if m.GoalID == "" {
		return invalid("goal_id", "is required")
	}
	return nil
}

func (m *GoalMilestone) Toggle(now time.Time) {
	m.Completed = !m.Completed
	if m.Completed {
		at := now.UTC()
		m.CompletedAt = &at
	} else {
		m.CompletedAt = nil
	}
}

type MealPlan struct {
	Meta
	Title     string `json:"title"`
	MealDate  string `json:"meal_date"`
	MealType  string `json:"meal_type"`
	Calories  *int   `json:"calories"`
	Recipe    string `json:"recipe"`
	Notes     string `json:"notes"`
	Completed bool   `json:"completed"`
}

func (m *MealPlan) fields() []any {
	return []any{&m.Title, &m.MealDate, &m.MealType, &m.Calories, &m.Recipe, &m.Notes, &m.Completed}
}

func (m *MealPlan) ApplyDefaults(today string) {
	if m.MealType == "" {
		m.MealType = "meal"
	}
	if strings.TrimSpace(m.Title) == "" {
		m.Title = "New " + m.MealType
	}
	if m.MealDate == "" {
		m.MealDate = today
	}
}

func (m *MealPlan) Validate() error {
	return validDate("meal_date", &m.MealDate)
}

func (m *MealPlan) Toggle(time.Time) { m.Completed = !m.Completed }

type WorkoutPlan struct {
	Meta
	Title           string   `json:"title"`
	WorkoutDate     *string  `json:"workout_date"`
	WorkoutType     string   `json:"workout_type"`
	DurationMinutes *int     `json:"duration_minutes"`
	Exercises       Document `json:"exercises"`
	Description     string   `json:"description"`
	Completed       bool     `json:"completed"`
}

func (w *WorkoutPlan) fields() []any {
	return []any{&w.Title, &w.WorkoutDate, &w.WorkoutType, &w.DurationMinutes, &w.Exercises, &w.Description, &w.Completed}
}

func (w *WorkoutPlan) ApplyDefaults(today string) {
	if w.WorkoutType == "" {
		w.WorkoutType = "strength"
	}
	if strings.TrimSpace(w.Title) == "" {
		w.Title = strings.ToUpper(w.WorkoutType[:1]) + w.WorkoutType[1:] + " Workout"
	}
	if w.DurationMinutes == nil {
		d := 45
		w.DurationMinutes = &d
	}
	if w.WorkoutDate == nil {
		w.WorkoutDate = &today
	}
}

func (w *WorkoutPlan) Validate() error {
	return validDate("workout_date", w.WorkoutDate)
}

func (w *WorkoutPlan) Toggle(time.Time) { w.Completed = !w.Completed }

type TravelPlan struct {
	Meta
	Destination string              `json:"destination"`
	Description string              `json:"description"`
	StartDate   *string             `json:"start_date"`
	EndDate     *string             `json:"end_date"`
	Budget      decimal.NullDecimal `json:"budget"`
	Currency    string              `json:"currency"`
	Status      string              `json:"status"`
	Itinerary   Document            `json:"itinerary"`
	Notes       string              `json:"notes"`
}

func (t *TravelPlan) fields() []any {
	return []any{&t.Destination, &t.Description, &t.StartDate, &t.EndDate, &t.Budget, &t.Currency, &t.Status, &t.Itinerary, &t.Notes}
}

func (t *TravelPlan) ApplyDefaults(today string) {
	if strings.TrimSpace(t.Destination) == "" {
		t.Destination = "New Destination"
	}
	if t.Status == "" {
		t.Status = "planning"
	}
}

func (t *TravelPlan) Validate() error {
	if err := validDate("start_date", t.StartDate); err != nil {
		return err
	}
	if err := validDate("end_date", t.EndDate); err != nil {
		return err
	}
	if t.StartDate != nil && t.EndDate != nil && *t.EndDate < *t.StartDate {
		return invalid("end_date", "must not be before start_date")
	}
	return nil
}

type Transaction struct {
	Meta
	Title           string          `json:"title"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType TransactionType `json:"transaction_type"`
	Category        string          `json:"category"`
	TransactionDate *string         `json:"transaction_date"`
	Notes           string          `json:"notes"`
}

func (t *Transaction) fields() []any {
	return []any{&t.Title, &t.Amount, &t.TransactionType, &t.Category, &t.TransactionDate, &t.Notes}
}

func (t *Transaction) ApplyDefaults(today string) {
	if t.TransactionType == "" {
		t.TransactionType = Expense
	}
	if strings.TrimSpace(t.Title) == "" {
		if t.TransactionType == Income {
			t.Title = "New Income"
		} else {
			t.Title = "New Expense"
		}
	}
	if t.TransactionDate == nil {
		t.TransactionDate = &today
	}
}

func (t *Transaction) Validate() error {
	switch t.TransactionType {
	case Income, Expense:
	default:
		return invalid("transaction_type", "must be income or expense")
	}
	if t.Amount.IsNegative() {
		return invalid("amount", "must not be negative")
	}
	return validDate("transaction_date", t.TransactionDate)
}

type Book struct {
	Meta
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Status      string  `json:"status"`
	Rating      *int    `json:"rating"`
	CurrentPage *int    `json:"current_page"`
	TotalPages  *int    `json:"total_pages"`
	StartedAt   *string `json:"started_at"`
	FinishedAt  *string `json:"finished_at"`
	Notes       string  `json:"notes"`
}

func (b *Book) fields() []any {
	return []any{&b.Title, &b.Author, &b.Status, &b.Rating, &b.CurrentPage, &b.TotalPages, &b.StartedAt, &b.FinishedAt, &b.Notes}
}

func (b *Book) ApplyDefaults(today string) {
	if strings.TrimSpace(b.Title) == "" {
		b.Title = "New Book"
	}
	if b.Status == "" {
		b.Status = "to-read"
	}
}

func (b *Book) Validate() error {
	switch b.Status {
	case "to-read", "reading", "completed":
	default:
		return invalid("status", "must be to-read, reading or completed")
	}
	return validRating(b.Rating)
}

type Media struct {
	Meta
	Title          string `json:"title"`
	MediaType      string `json:"media_type"`
	Status         string `json:"status"`
	Rating         *int   `json:"rating"`
	CurrentEpisode *int   `json:"current_episode"`
	TotalEpisodes  *int   `json:"total_episodes"`
	Notes          string `json:"notes"`
}

func (m *Media) fields() []any {
	return []any{&m.Title, &m.MediaType, &m.Status, &m.Rating, &m.CurrentEpisode, &m.TotalEpisodes, &m.Notes}
}

func (m *Media) ApplyDefaults(today string) {
	if m.MediaType == "" {
		m.MediaType = "movie"
	}
	if strings.TrimSpace(m.Title) == "" {
		m.Title = "New " + m.MediaType
	}
	if m.Status == "" {
		m.Status = "watchlist"
	}
}

func (m *Media) Validate() error {
	switch m.Status {
	case "watchlist", "watching", "completed":
	default:
		return invalid("status", "must be watchlist, watching or completed")
	}
	return validRating(m.Rating)
}

type VisionItem struct {
	Meta
	Title     string `json:"title"`
	Vision    string `json:"vision"`
	Category  string `json:"category"`
	Timeframe string `json:"timeframe"`
	Icon      string `json:"icon"`
	SortOrder int    `json:"sort_order"`
}

func (v *VisionItem) fields() []any {
	return []any{&v.Title, &v.Vision, &v.Category, &v.Timeframe, &v.Icon, &v.SortOrder}
}

func (v *VisionItem) ApplyDefaults(today string) {
	if strings.TrimSpace(v.Title) == "" {
		v.Title = "New Vision"
	}
}

type HealthLog struct {
	Meta
	LogDate      string   `json:"log_date"`
	WaterGlasses *int     `json:"water_glasses"`
	SleepHours   *float64 `json:"sleep_hours"`
	Steps        *int     `json:"steps"`
	Weight       *float64 `json:"weight"`
	Mood         string   `json:"mood"`
	Notes        string   `json:"notes"`
}

func (h *HealthLog) fields() []any {
	return []any{&h.LogDate, &h.WaterGlasses, &h.SleepHours, &h.Steps, &h.Weight, &h.Mood, &h.Notes}
}

func (h *HealthLog) ApplyDefaults(today string) {
	if h.LogDate == "" {
		h.LogDate = today
	}
}

func (h *HealthLog) Validate() error {
	if h.WaterGlasses != nil && *h.WaterGlasses < 0 {
		return invalid("water_glasses", "must not be negative")
	}
	if h.SleepHours != nil && (*h.SleepHours < 0 || *h.SleepHours > 24) {
		return invalid("sleep_hours", "must be between 0 and 24")
	}
	if h.Steps != nil && *h.Steps < 0 {
		return invalid("steps", "must not be negative")
	}
	return validDate("log_date", &h.LogDate)
}

type Activity struct {
	Meta
	Title           string   `json:"title"`
	ActivityType    string   `json:"activity_type"`
	ActivityDate    *string  `json:"activity_date"`
	DurationMinutes *int     `json:"duration_minutes"`
	CaloriesBurned  *int     `json:"calories_burned"`
	Distance        *float64 `json:"distance"`
	Notes           string   `json:"notes"`
}

func (a *Activity) fields() []any {
	return []any{&a.Title, &a.ActivityType, &a.ActivityDate, &a.DurationMinutes, &a.CaloriesBurned, &a.Distance, &a.Notes}
}

func (a *Activity) ApplyDefaults(today string) {
	if strings.TrimSpace(a.Title) == "" {
		a.Title = "New Activity"
	}
	if a.ActivityDate == nil {
		a.ActivityDate = &today
	}
}

func validDate(field string, s *string) error {
	if s == nil || *s == "" {
		return nil
	}
	if _, err := time.Parse(utils.DateLayout, *s); err != nil {
		return invalid(field, "must be YYYY-MM-DD")
	}
	return nil
}

func validRating(r *int) error {
	if r != nil && (*r < 1 || *r > 5) {
		return invalid("rating", "must be between 1 and 5")
	}
	return nil
}
