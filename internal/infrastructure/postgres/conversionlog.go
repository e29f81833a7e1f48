package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ConversionRecord is one logged conversion: the source message
// identity, the outcome, and the produced bundle.
type ConversionRecord struct {
	ID            string          `json:"id"`
	MessageType   string          `json:"messageType"`
	ControlID     string          `json:"controlId"`
	Status        string          `json:"status"`
	ResourceCount int             `json:"resourceCount"`
	Warnings      []string        `json:"warnings,omitempty"`
	Bundle        json.RawMessage `json:"bundle,omitempty"`
	ErrorDetail   string          `json:"error,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Conversion statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrConversionNotFound is returned by Get for unknown ids.
var ErrConversionNotFound = errors.New("conversion not found")

// ConversionStore persists conversion records and their outbox events.
type ConversionStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

// NewConversionStore creates a store over the given pool.
func NewConversionStore(pool *pgxpool.Pool, logger *zap.Logger) *ConversionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversionStore{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("conversion-store"),
	}
}

// Save writes the record and its outbox events in one transaction, so
// the events exist iff the record was committed.
func (s *ConversionStore) Save(ctx context.Context, rec *ConversionRecord, events []*OutboxEntry) error {
	ctx, span := s.tracer.Start(ctx, "conversion_save",
		trace.WithAttributes(
			attribute.String("conversion_id", rec.ID),
			attribute.String("status", rec.Status),
		))
	defer span.End()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	warnings, err := json.Marshal(rec.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	query := `
		INSERT INTO conversions (id, message_type, control_id, status, resource_count, warnings, bundle, error_detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET status = $4, resource_count = $5, warnings = $6, bundle = $7, error_detail = $8
		RETURNING created_at
	`
	err = tx.QueryRow(ctx, query,
		rec.ID, rec.MessageType, rec.ControlID, rec.Status,
		rec.ResourceCount, warnings, rec.Bundle, rec.ErrorDetail,
	).Scan(&rec.CreatedAt)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("insert conversion: %w", err)
	}

	for _, event := range events {
		event.ConversionID = rec.ID
		if err := WriteEntry(ctx, tx, event); err != nil {
			span.RecordError(err)
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("conversion saved",
		zap.String("id", rec.ID),
		zap.String("status", rec.Status),
		zap.Int("events", len(events)))

	return nil
}

// Get loads one conversion with its bundle.
func (s *ConversionStore) Get(ctx context.Context, id string) (*ConversionRecord, error) {
	query := `
		SELECT id, message_type, control_id, status, resource_count, warnings, bundle, error_detail, created_at
		FROM conversions
		WHERE id = $1
	`

	rec := &ConversionRecord{}
	var warnings []byte
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.MessageType, &rec.ControlID, &rec.Status,
		&rec.ResourceCount, &warnings, &rec.Bundle, &rec.ErrorDetail, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversionNotFound
		}
		return nil, fmt.Errorf("query conversion: %w", err)
	}
	if len(warnings) > 0 {
		if err := json.Unmarshal(warnings, &rec.Warnings); err != nil {
			return nil, fmt.Errorf("unmarshal warnings: %w", err)
		}
	}
	return rec, nil
}

// List returns recent conversions, newest first, without bundles.
func (s *ConversionStore) List(ctx context.Context, limit, offset int) ([]*ConversionRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, message_type, control_id, status, resource_count, warnings, error_detail, created_at
		FROM conversions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query conversions: %w", err)
	}
	defer rows.Close()

	var out []*ConversionRecord
	for rows.Next() {
		rec := &ConversionRecord{}
		var warnings []byte
		err := rows.Scan(
			&rec.ID, &rec.MessageType, &rec.ControlID, &rec.Status,
			&rec.ResourceCount, &warnings, &rec.ErrorDetail, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan conversion: %w", err)
		}
		if len(warnings) > 0 {
			if err := json.Unmarshal(warnings, &rec.Warnings); err != nil {
				return nil, fmt.Errorf("unmarshal warnings: %w", err)
			}
		}
		out = append(out, rec)
	}

	return out, rows.Err()
}

// ConversionStats aggregates the conversion log.
type ConversionStats struct {
	Total       int64 `json:"total"`
	Completed   int64 `json:"completed"`
	Failed      int64 `json:"failed"`
	Resources   int64 `json:"resources"`
	Last24Hours int64 `json:"last24Hours"`
}

// GetStats returns counters over the whole conversion log.
func (s *ConversionStore) GetStats(ctx context.Context) (*ConversionStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COALESCE(SUM(resource_count), 0),
			COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '24 hours')
		FROM conversions
	`

	stats := &ConversionStats{}
	err := s.pool.QueryRow(ctx, query).Scan(
		&stats.Total, &stats.Completed, &stats.Failed,
		&stats.Resources, &stats.Last24Hours,
	)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	return stats, nil
}
