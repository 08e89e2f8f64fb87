package database

const ownerColumns = `
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,`

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			full_name TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			telegram_chat_id INTEGER,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

	`CREATE TABLE IF NOT EXISTS categories (` + ownerColumns + `
			name TEXT NOT NULL,
			color TEXT,
			icon TEXT
		)`,

	`CREATE TABLE IF NOT EXISTS tasks (` + ownerColumns + `
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			due_date TEXT,
			due_time TEXT,
			priority TEXT CHECK(priority IN ('low', 'medium', 'high')),
			completed BOOLEAN NOT NULL DEFAULT 0,
			completed_at DATETIME,
			category_id TEXT REFERENCES categories(id) ON DELETE SET NULL
		)`,

	`CREATE TABLE IF NOT EXISTS habits (` + ownerColumns + `
			name TEXT NOT NULL,
			emoji TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			frequency TEXT NOT NULL DEFAULT 'daily',
			target_count INTEGER NOT NULL DEFAULT 1,
			streak INTEGER NOT NULL DEFAULT 0,
			best_streak INTEGER NOT NULL DEFAULT 0
		)`,

	`CREATE TABLE IF NOT EXISTS habit_completions (` + ownerColumns + `
			habit_id TEXT NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
			completed_date TEXT NOT NULL,
			count INTEGER NOT NULL DEFAULT 1,
			notes TEXT NOT NULL DEFAULT '',
			UNIQUE(habit_id, completed_date)
		)`,

	`CREATE TABLE IF NOT EXISTS journal_entries (` + ownerColumns + `
			title TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			mood TEXT CHECK(mood IN ('happy', 'neutral', 'sad')),
			entry_date TEXT,
			tags TEXT NOT NULL DEFAULT '[]'
		)`,

	`CREATE TABLE IF NOT EXISTS goals (` + ownerColumns + `
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			progress INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'active',
			target_date TEXT,
			category TEXT,
			category_color TEXT
		)`,

	`CREATE TABLE IF NOT EXISTS goal_milestones (` + ownerColumns + `
			goal_id TEXT NOT NULL REFERENCES goals(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT 0,
			completed_at DATETIME,
			sort_order INTEGER NOT NULL DEFAULT 0
		)`,

	`CREATE TABLE IF NOT EXISTS meal_plans (` + ownerColumns + `
			title TEXT NOT NULL,
			meal_date TEXT NOT NULL,
			meal_type TEXT NOT NULL DEFAULT '',
			calories INTEGER,
			recipe TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			completed BOOLEAN NOT NULL DEFAULT 0
		)`,

	`CREATE TABLE IF NOT EXISTS workout_plans (` + ownerColumns + `
			title TEXT NOT NULL,
			workout_date TEXT,
			workout_type TEXT NOT NULL DEFAULT '',
			duration_minutes INTEGER,
			exercises TEXT NOT NULL DEFAULT 'null',
			description TEXT NOT NULL DEFAULT '',
			completed BOOLEAN NOT NULL DEFAULT 0
		)`,

	`CREATE TABLE IF NOT EXISTS travel_plans (` + ownerColumns + `
			destination TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			start_date TEXT,
			end_date TEXT,
			budget TEXT,
			currency TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'planning',
			itinerary TEXT NOT NULL DEFAULT 'null',
			notes TEXT NOT NULL DEFAULT ''
		)`,

	`CREATE TABLE IF NOT EXISTS transactions (` + ownerColumns + `
			title TEXT NOT NULL,
			amount TEXT NOT NULL DEFAULT '0',
			transaction_type TEXT NOT NULL CHECK(transaction_type IN ('income', 'expense')),
			category TEXT NOT NULL DEFAULT '',
			transaction_date TEXT,
			notes TEXT NOT NULL DEFAULT ''
		)`,

	`CREATE TABLE IF NOT EXISTS books (` + ownerColumns + `
			title TEXT NOT NULL,
			author TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'to-read',
			rating INTEGER CHECK(rating IS NULL OR (rating >= 1 AND rating <= 5)),
			current_page INTEGER,
			total_pages INTEGER,
			started_at TEXT,
			finished_at TEXT,
			notes TEXT NOT NULL DEFAULT ''
		)`,

	`CREATE TABLE IF NOT EXISTS media (` + ownerColumns + `
			title TEXT NOT NULL,
			media_type TEXT NOT NULL DEFAULT 'movie',
			status TEXT NOT NULL DEFAULT 'watchlist',
			rating INTEGER CHECK(rating IS NULL OR (rating >= 1 AND rating <= 5)),
			current_episode INTEGER,
			total_episodes INTEGER,
			notes TEXT NOT NULL DEFAULT ''
		)`,

	`CREATE TABLE IF NOT EXISTS vision_items (` + ownerColumns + `
			title TEXT NOT NULL,
			vision TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			timeframe TEXT NOT NULL DEFAULT '',
			icon TEXT NOT NULL DEFAULT '',
			sort_order INTEGER NOT NULL DEFAULT 0
		)`,

	`CREATE TABLE IF NOT EXISTS health_logs (` + ownerColumns + `
			log_date TEXT NOT NULL,
			water_glasses INTEGER,
			sleep_hours REAL,
			steps INTEGER,
			weight REAL,
			mood TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT ''
		)`,

	`CREATE TABLE IF NOT EXISTS activities (` + ownerColumns + `
			title TEXT NOT NULL,
			activity_type TEXT NOT NULL DEFAULT '',
			activity_date TEXT,
			duration_minutes INTEGER,
			calories_burned INTEGER,
			distance REAL,
			notes TEXT NOT NULL DEFAULT ''
		)`,

	`CREATE INDEX IF NOT EXISTS idx_tasks_user_due ON tasks(user_id, due_date)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(user_id, completed)`,
	`CREATE INDEX IF NOT EXISTS idx_habits_user ON habits(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_completions_user_date ON habit_completions(user_id, completed_date)`,
	`CREATE INDEX IF NOT EXISTS idx_milestones_goal ON goal_milestones(goal_id, sort_order)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, transaction_date)`,
	`CREATE INDEX IF NOT EXISTS idx_meals_user_date ON meal_plans(user_id, meal_date)`,
	`CREATE INDEX IF NOT EXISTS idx_health_user_date ON health_logs(user_id, log_date)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_user_date ON journal_entries(user_id, entry_date)`,
}
