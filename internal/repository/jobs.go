package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/incubatech/proposal-screener/constants"
	"github.com/incubatech/proposal-screener/internal/entity"
)

// JobOutcome closes one classification_job row.
type JobOutcome struct {
	Status         constants.JobStatus
	ExtractionPath string
	Label          *int
	Confidence     *float64
	Message        string
	ErrorMessage   string
	TextLength     *int
}

type JobRepository interface {
	Start(ctx context.Context, mode, source string, tenantID *uuid.UUID) (uuid.UUID, error)
	MarkExtracted(ctx context.Context, jobID uuid.UUID, method string, chars int) error
	Finish(ctx context.Context, jobID uuid.UUID, out JobOutcome) error
	Recent(ctx context.Context, limit int) ([]*entity.ClassificationJob, error)
}

type jobRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewJobRepository(pool *pgxpool.Pool, log *slog.Logger) JobRepository {
	return &jobRepository{pool: pool, log: log}
}

func (r *jobRepository) Start(ctx context.Context, mode, source string, tenantID *uuid.UUID) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO classification_job (id, tenant_id, mode, source, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, tenantID, mode, source, constants.JobStatusRunning)
	if err != nil {
		r.log.Error("classification_job start failed", "mode", mode, "error", err)
		return uuid.Nil, err
	}
	r.log.Info("classification_job started", "job_id", id, "mode", mode)
	return id, nil
}

func (r *jobRepository) MarkExtracted(ctx context.Context, jobID uuid.UUID, method string, chars int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE classification_job
		 SET status = $2, extract_method = $3, text_length = $4
		 WHERE id = $1`,
		jobID, constants.JobStatusExtractOK, method, chars)
	if err != nil {
		r.log.Error("classification_job mark extracted failed", "job_id", jobID, "error", err)
		return err
	}
	return nil
}

func (r *jobRepository) Finish(ctx context.Context, jobID uuid.UUID, out JobOutcome) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE classification_job
		 SET status = $2,
		     extraction_path = NULLIF($3, ''),
		     label = $4,
		     confidence = $5,
		     message = NULLIF($6, ''),
		     error_message = NULLIF($7, ''),
		     text_length = COALESCE($8, text_length),
		     finished_at = now()
		 WHERE id = $1`,
		jobID, out.Status, out.ExtractionPath, out.Label, out.Confidence, out.Message, out.ErrorMessage, out.TextLength)
	if err != nil {
		r.log.Error("classification_job finish failed", "job_id", jobID, "status", out.Status, "error", err)
		return err
	}
	if out.Status == constants.JobStatusFailed {
		r.log.Warn("classification_job finished (FAILED)", "job_id", jobID, "error", out.ErrorMessage)
	} else {
		r.log.Info("classification_job finished", "job_id", jobID, "status", out.Status)
	}
	return nil
}

func (r *jobRepository) Recent(ctx context.Context, limit int) ([]*entity.ClassificationJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, mode, source, status, extract_method, extraction_path,
		        label, confidence, message, error_message, text_length, started_at, finished_at
		 FROM classification_job
		 ORDER BY started_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		r.log.Error("classification_job list failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	var jobs []*entity.ClassificationJob
	for rows.Next() {
		j := &entity.ClassificationJob{}
		err := rows.Scan(&j.ID, &j.TenantID, &j.Mode, &j.Source, &j.Status,
			&j.ExtractMethod, &j.ExtractionPath, &j.Label, &j.Confidence,
			&j.Message, &j.ErrorMessage, &j.TextLength, &j.StartedAt, &j.FinishedAt)
		if err != nil {
			r.log.Error("classification_job scan failed", "error", err)
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
