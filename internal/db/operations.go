package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/orrn/printbridge/internal/bridge"
)

var (
	Jobs        = &JobOperations{}
	Settings    = &SettingOperations{}
	Connections = &ConnectionOperations{}
)

// JobRecord mirrors one print_jobs row.
type JobRecord struct {
	ID          string     `json:"id"`
	Printer     string     `json:"printer"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

type JobFilter struct {
	Status string
	Kind   string
	Limit  int
	Offset int
}

// JobOperations persists job history. It satisfies bridge.JobStore.
type JobOperations struct{}

func (o *JobOperations) InsertJob(job *bridge.PrintJob) error {
	_, err := GetDB().Exec(InsertJob,
		job.ID, job.Printer, string(job.Kind), string(job.Status), job.Error, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

func (o *JobOperations) UpdateJobStatus(id string, status bridge.JobStatus, errMsg string, completedAt *time.Time) error {
	_, err := GetDB().Exec(UpdateJobStatus, string(status), errMsg, completedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

func (o *JobOperations) GetJobByID(ctx context.Context, id string) (*JobRecord, error) {
	j := &JobRecord{}
	err := GetDB().QueryRowContext(ctx, GetJobByID, id).Scan(
		&j.ID, &j.Printer, &j.Kind, &j.Status, &j.Error, &j.CreatedAt, &j.CompletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

func (o *JobOperations) ListJobs(ctx context.Context, filter JobFilter) ([]*JobRecord, error) {
	query := ListJobs
	var conds []string
	var args []any

	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, filter.Kind)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*JobRecord
	for rows.Next() {
		j := &JobRecord{}
		if err := rows.Scan(
			&j.ID, &j.Printer, &j.Kind, &j.Status, &j.Error, &j.CreatedAt, &j.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (o *JobOperations) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := GetDB().QueryContext(ctx, CountJobsByStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan job count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

type SettingOperations struct{}

func (o *SettingOperations) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := GetDB().QueryRowContext(ctx, GetSetting, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", sql.ErrNoRows
		}
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

func (o *SettingOperations) Set(ctx context.Context, key, value string) error {
	_, err := GetDB().ExecContext(ctx, UpsertSetting, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// ConnectionOperations records client connect/disconnect events for the
// admin view.
type ConnectionOperations struct{}

func (o *ConnectionOperations) LogEvent(ip, event string, at time.Time) error {
	_, err := GetDB().Exec(InsertConnectionEvent, ip, event, at)
	if err != nil {
		return fmt.Errorf("failed to log connection event: %w", err)
	}
	return nil
}
