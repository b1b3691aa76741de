package reports

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"

	"paystub/internal/domain/audit"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) TokenStats(ctx context.Context, since, now time.Time) (TokenStats, error) {
	var stats TokenStats
	err := s.DB.QueryRow(ctx, `
    SELECT
      COUNT(*),
      COUNT(*) FILTER (WHERE is_paid),
      COUNT(*) FILTER (WHERE is_used),
      COUNT(*) FILTER (WHERE NOT is_paid AND expires_at <= $2)
    FROM payment_tokens
    WHERE created_at >= $1
  `, since, now).Scan(&stats.Total, &stats.Paid, &stats.Used, &stats.Expired)
	return stats, err
}

func (s *Store) BatchStats(ctx context.Context, since time.Time) (BatchStats, error) {
	var stats BatchStats
	err := s.DB.QueryRow(ctx, `
    SELECT
      COUNT(*) FILTER (WHERE action = $2),
      COUNT(*) FILTER (WHERE action = $3)
    FROM audit_events
    WHERE created_at >= $1
  `, since, audit.ActionBatchGenerated, audit.ActionBatchFailed).Scan(&stats.Generated, &stats.Failed)
	return stats, err
}

func (s *Store) CountJobRuns(ctx context.Context, filter JobRunFilter) (int, error) {
	query, args := buildJobRunsBaseQuery(filter)
	var total int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(*) FROM ("+query+") runs", args...).Scan(&total)
	return total, err
}

func (s *Store) ListJobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, error) {
	query, args := buildJobRunsBaseQuery(filter)
	query += " ORDER BY started_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JobRun
	for rows.Next() {
		var run JobRun
		var detailsRaw []byte
		if err := rows.Scan(&run.ID, &run.JobType, &run.Status, &detailsRaw, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, err
		}
		run.Details = decodeDetails(detailsRaw)
		out = append(out, run)
	}
	return out, rows.Err()
}

func buildJobRunsBaseQuery(filter JobRunFilter) (string, []any) {
	query := `
    SELECT id, job_type, status, COALESCE(details_json, '{}'::jsonb), started_at, completed_at
    FROM job_runs
    WHERE 1=1
  `
	var args []any
	if value := strings.TrimSpace(filter.JobType); value != "" {
		args = append(args, value)
		query += " AND job_type = $" + strconv.Itoa(len(args))
	}
	if value := strings.TrimSpace(filter.Status); value != "" {
		args = append(args, value)
		query += " AND status = $" + strconv.Itoa(len(args))
	}
	return query, args
}

func decodeDetails(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	details := map[string]any{}
	if err := json.Unmarshal(raw, &details); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	return details
}
