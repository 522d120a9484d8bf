package database

// migrations[i] upgrades the schema from user_version i to i+1.
var migrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			color TEXT,
			weekly_target_minutes INTEGER NOT NULL DEFAULT 0 CHECK (weekly_target_minutes BETWEEN 0 AND 100000),
			active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE (user_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS schedule_segments (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			weekday INTEGER NOT NULL CHECK (weekday BETWEEN 1 AND 7),
			start_minute INTEGER NOT NULL CHECK (start_minute >= 0),
			end_minute INTEGER NOT NULL CHECK (end_minute <= 1440),
			activity_id TEXT REFERENCES activities(id) ON DELETE SET NULL,
			notes TEXT,
			effective_from TEXT NOT NULL,
			effective_to TEXT,
			previous_id TEXT REFERENCES schedule_segments(id) ON DELETE SET NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			CHECK (start_minute < end_minute),
			CHECK (effective_to IS NULL OR effective_to >= effective_from)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_segments_user_weekday ON schedule_segments(user_id, weekday, start_minute)`,
		`CREATE INDEX IF NOT EXISTS idx_segments_user_effective ON schedule_segments(user_id, effective_from, effective_to)`,
		`CREATE TRIGGER IF NOT EXISTS trg_segments_overlap_insert
		BEFORE INSERT ON schedule_segments
		WHEN NEW.effective_to IS NULL AND EXISTS (
			SELECT 1 FROM schedule_segments s
			WHERE s.user_id = NEW.user_id
				AND s.weekday = NEW.weekday
				AND s.effective_to IS NULL
				AND NEW.start_minute < s.end_minute
				AND NEW.end_minute > s.start_minute
		)
		BEGIN
			SELECT RAISE(ABORT, 'segment overlap');
		END`,
		`CREATE TRIGGER IF NOT EXISTS trg_segments_overlap_update
		BEFORE UPDATE ON schedule_segments
		WHEN NEW.effective_to IS NULL AND EXISTS (
			SELECT 1 FROM schedule_segments s
			WHERE s.user_id = NEW.user_id
				AND s.weekday = NEW.weekday
				AND s.effective_to IS NULL
				AND s.id <> NEW.id
				AND NEW.start_minute < s.end_minute
				AND NEW.end_minute > s.start_minute
		)
		BEGIN
			SELECT RAISE(ABORT, 'segment overlap');
		END`,
		`CREATE TABLE IF NOT EXISTS time_logs (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			activity_id TEXT REFERENCES activities(id) ON DELETE SET NULL,
			segment_id TEXT REFERENCES schedule_segments(id) ON DELETE SET NULL,
			date TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			minutes INTEGER NOT NULL DEFAULT 0 CHECK (minutes >= 0),
			partial INTEGER NOT NULL DEFAULT 0,
			source TEXT NOT NULL CHECK (source IN ('PLANNED', 'ADHOC', 'MAKEUP')),
			comment TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			CHECK (ended_at IS NULL OR ended_at > started_at)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_time_logs_user_date ON time_logs(user_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_time_logs_user_started ON time_logs(user_id, started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_time_logs_segment ON time_logs(segment_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_time_logs_single_active ON time_logs(user_id) WHERE ended_at IS NULL`,
	},
}
