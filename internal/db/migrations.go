package db

var migrations = []Migration{
	{
		Version: "001_jobs",
		SQL: `
			CREATE TABLE IF NOT EXISTS print_jobs (
				id TEXT PRIMARY KEY,
				printer TEXT NOT NULL DEFAULT '',
				kind TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				error_message TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				completed_at DATETIME
			);
			CREATE INDEX IF NOT EXISTS idx_print_jobs_status ON print_jobs(status);
			CREATE INDEX IF NOT EXISTS idx_print_jobs_created ON print_jobs(created_at);
		`,
	},
	{
		Version: "002_settings",
		SQL: `
			CREATE TABLE IF NOT EXISTS settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
	{
		Version: "003_connections",
		SQL: `
			CREATE TABLE IF NOT EXISTS connection_log (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				ip TEXT NOT NULL,
				event TEXT NOT NULL,
				occurred_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
}
