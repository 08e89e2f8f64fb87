package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	categoryColumns   = []string{"name", "color", "icon"}
	taskColumns       = []string{"title", "description", "due_date", "due_time", "priority", "completed", "completed_at", "category_id"}
	habitColumns      = []string{"name", "emoji", "category", "description", "frequency", "target_count", "streak", "best_streak"}
	completionColumns = []string{"habit_id", "completed_date", "count", "notes"}
	journalColumns    = []string{"title", "content", "mood", "entry_date", "tags"}
	goalColumns       = []string{"title", "description", "progress", "status", "target_date", "category", "category_color"}
	milestoneColumns  = []string{"goal_id", "title", "completed", "completed_at", "sort_order"}
	mealColumns       = []string{"title", "meal_date", "meal_type", "calories", "recipe", "notes", "completed"}
	workoutColumns    = []string{"title", "workout_date", "workout_type", "duration_minutes", "exercises", "description", "completed"}
	travelColumns     = []string{"destination", "description", "start_date", "end_date", "budget", "currency", "status", "itinerary", "notes"}
	transactionCols   = []string{"title", "amount", "transaction_type", "category", "transaction_date", "notes"}
	bookColumns       = []string{"title", "author", "status", "rating", "current_page", "total_pages", "started_at", "finished_at", "notes"}
	mediaColumns      = []string{"title", "media_type", "status", "rating", "current_episode", "total_episodes", "notes"}
	visionColumns     = []string{"title", "vision", "category", "timeframe", "icon", "sort_order"}
	healthColumns     = []string{"log_date", "water_glasses", "sleep_hours", "steps", "weight", "mood", "notes"}
	activityColumns   = []string{"title", "activity_type", "activity_date", "duration_minutes", "calories_burned", "distance", "notes"}
)

// Repository groups the owner-scoped tables and the user directory.
type Repository struct {
	Db *Database

	Users            *UserRepo
	Categories       *Table[*Category]
	Tasks            *Table[*Task]
	Habits           *Table[*Habit]
	HabitCompletions *Table[*HabitCompletion]
	Journal          *Table[*JournalEntry]
	Goals            *Table[*Goal]
	Milestones       *Table[*GoalMilestone]
	Meals            *Table[*MealPlan]
	Workouts         *Table[*WorkoutPlan]
	Travel           *Table[*TravelPlan]
	Transactions     *Table[*Transaction]
	Books            *Table[*Book]
	Media            *Table[*Media]
	Vision           *Table[*VisionItem]
	Health           *Table[*HealthLog]
	Activities       *Table[*Activity]
}

func NewRepository(db *Database) *Repository {
	sqlDB := db.db
	return &Repository{
		Db:               db,
		Users:            &UserRepo{db: sqlDB},
		Categories:       NewTable(sqlDB, "categories", categoryColumns, func() *Category { return &Category{} }),
		Tasks:            NewTable(sqlDB, "tasks", taskColumns, func() *Task { return &Task{} }),
		Habits:           NewTable(sqlDB, "habits", habitColumns, func() *Habit { return &Habit{} }),
		HabitCompletions: NewTable(sqlDB, "habit_completions", completionColumns, func() *HabitCompletion { return &HabitCompletion{} }),
		Journal:          NewTable(sqlDB, "journal_entries", journalColumns, func() *JournalEntry { return &JournalEntry{Tags: Tags{}} }),
		Goals:            NewTable(sqlDB, "goals", goalColumns, func() *Goal { return &Goal{} }),
		Milestones:       NewTable(sqlDB, "goal_milestones", milestoneColumns, func() *GoalMilestone { return &GoalMilestone{} }),
		Meals:            NewTable(sqlDB, "meal_plans", mealColumns, func() *MealPlan { return &MealPlan{} }),
		Workouts:         NewTable(sqlDB, "workout_plans", workoutColumns, func() *WorkoutPlan { return &WorkoutPlan{} }),
		Travel:           NewTable(sqlDB, "travel_plans", travelColumns, func() *TravelPlan { return &TravelPlan{} }),
		Transactions:     NewTable(sqlDB, "transactions", transactionCols, func() *Transaction { return &Transaction{} }),
		Books:            NewTable(sqlDB, "books", bookColumns, func() *Book { return &Book{} }),
		Media:            NewTable(sqlDB, "media", mediaColumns, func() *Media { return &Media{} }),
		Vision:           NewTable(sqlDB, "vision_items", visionColumns, func() *VisionItem { return &VisionItem{} }),
		Health:           NewTable(sqlDB, "health_logs", healthColumns, func() *HealthLog { return &HealthLog{} }),
		Activities:       NewTable(sqlDB, "activities", activityColumns, func() *Activity { return &Activity{} }),
	}
}

// UserRepo is the identity directory. Users are not owner-scoped.
type UserRepo struct {
	db *sql.DB
}

const userSelect = `SELECT id, email, full_name, password_hash, telegram_chat_id, created_at, updated_at FROM users`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.TelegramChatID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, email, fullName, passwordHash string) (*User, error) {
	now := time.Now().UTC()
	u := &User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if u.Email == "" {
		return nil, invalid("email", "is required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, full_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.FullName, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, invalid("email", "is already registered")
		}
		return nil, fmt.Errorf("user insert: %w", err)
	}
	return u, nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (*User, error) {
	return r.one(ctx, userSelect+` WHERE id = ?`, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.one(ctx, userSelect+` WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepo) GetByChatID(ctx context.Context, chatID int64) (*User, error) {
	return r.one(ctx, userSelect+` WHERE telegram_chat_id = ?`, chatID)
}

func (r *UserRepo) one(ctx context.Context, query string, arg any) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("user get: %w", err)
	}
	return u, nil
}

// LinkTelegram binds a chat to a user; a chat belongs to at most one user.
func (r *UserRepo) LinkTelegram(ctx context.Context, id string, chatID int64) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET telegram_chat_id = NULL WHERE telegram_chat_id = ?`, chatID); err != nil {
			return fmt.Errorf("user unlink: %w", err)
		}
		res, err := tx.ExecContext(ctx, `UPDATE users SET telegram_chat_id = ?, updated_at = ? WHERE id = ?`, chatID, time.Now().UTC(), id)
		if err != nil {
			return fmt.Errorf("user link: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// ListLinked returns users with a linked Telegram chat.
func (r *UserRepo) ListLinked(ctx context.Context) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx, userSelect+` WHERE telegram_chat_id IS NOT NULL ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("user list: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("user scan: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) List(ctx context.Context) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx, userSelect+` ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("user list: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("user scan: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
