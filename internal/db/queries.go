package db

const (
	InsertJob = `
		INSERT OR REPLACE INTO print_jobs (id, printer, kind, status, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	UpdateJobStatus = `
		UPDATE print_jobs SET status = ?, error_message = ?, completed_at = ? WHERE id = ?
	`

	GetJobByID = `
		SELECT id, printer, kind, status, error_message, created_at, completed_at
		FROM print_jobs WHERE id = ?
	`

	ListJobs = `
		SELECT id, printer, kind, status, error_message, created_at, completed_at
		FROM print_jobs
	`

	CountJobsByStatus = `
		SELECT status, COUNT(*) FROM print_jobs GROUP BY status
	`
)

const (
	GetSetting = `SELECT value FROM settings WHERE key = ?`

	UpsertSetting = `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
)

const (
	InsertConnectionEvent = `
		INSERT INTO connection_log (ip, event, occurred_at) VALUES (?, ?, ?)
	`
)
