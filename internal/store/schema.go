package store

// sqliteSchema mirrors db/*.sql for the SQLite backend. Timestamps are TEXT in
// timeLayout (UTC) so they sort lexically; dates are TEXT YYYY-MM-DD.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	username   TEXT NOT NULL UNIQUE,
	email      TEXT NOT NULL DEFAULT '',
	auth_token TEXT NOT NULL UNIQUE,
	password   TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	user_id         INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	display_name    TEXT NOT NULL DEFAULT '',
	weight_kg       REAL,
	height_cm       REAL,
	age             INTEGER,
	gender          TEXT NOT NULL DEFAULT '',
	activity_level  TEXT NOT NULL DEFAULT '',
	goal            TEXT NOT NULL DEFAULT '',
	biotype         TEXT NOT NULL DEFAULT '',
	water_target_ml INTEGER NOT NULL DEFAULT 2500,
	setup_complete  INTEGER NOT NULL DEFAULT 0,
	current_streak  INTEGER NOT NULL DEFAULT 0,
	longest_streak  INTEGER NOT NULL DEFAULT 0,
	total_flow_days INTEGER NOT NULL DEFAULT 0,
	level           TEXT NOT NULL DEFAULT 'seed',
	updated_at      TEXT
);

CREATE TABLE IF NOT EXISTS meals (
	id         TEXT PRIMARY KEY,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	client_id  TEXT,
	name       TEXT NOT NULL,
	logged_at  TEXT NOT NULL,
	calories   INTEGER NOT NULL,
	protein    REAL NOT NULL,
	carbs      REAL NOT NULL,
	fats       REAL NOT NULL,
	source     TEXT NOT NULL DEFAULT 'manual',
	items      TEXT NOT NULL DEFAULT '[]',
	image_url  TEXT,
	created_at TEXT NOT NULL,
	UNIQUE (user_id, client_id)
);
CREATE INDEX IF NOT EXISTS idx_meals_user_logged ON meals(user_id, logged_at);

CREATE TABLE IF NOT EXISTS flow_stats (
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	date       TEXT NOT NULL,
	flow_score INTEGER NOT NULL,
	PRIMARY KEY (user_id, date)
);

CREATE TABLE IF NOT EXISTS daily_logs (
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	date       TEXT NOT NULL,
	water_ml   INTEGER NOT NULL DEFAULT 0,
	mood       INTEGER,
	journal    TEXT,
	updated_at TEXT,
	PRIMARY KEY (user_id, date)
);

CREATE TABLE IF NOT EXISTS quarterly_plans (
	id               TEXT PRIMARY KEY,
	user_id          INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	calories         INTEGER NOT NULL,
	protein          REAL NOT NULL,
	carbs            REAL NOT NULL,
	fats             REAL NOT NULL,
	optimization_tag TEXT NOT NULL,
	phases           TEXT NOT NULL,
	start_date       TEXT NOT NULL,
	end_date         TEXT NOT NULL,
	status           TEXT NOT NULL CHECK (status IN ('active', 'archived')),
	created_at       TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_plans_one_active ON quarterly_plans(user_id) WHERE status = 'active';

CREATE TABLE IF NOT EXISTS posts (
	id         TEXT PRIMARY KEY,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	caption    TEXT NOT NULL DEFAULT '',
	image_url  TEXT,
	card       TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_at);

CREATE TABLE IF NOT EXISTS post_likes (
	post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	PRIMARY KEY (post_id, user_id)
);

CREATE TABLE IF NOT EXISTS weight_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	date       TEXT NOT NULL,
	weight_kg  REAL NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE (user_id, date)
);
`
