package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pomodisc/backend/internal/model"
)

type PhaseRepository struct {
	db *sql.DB
}

func NewPhaseRepository(db *sql.DB) *PhaseRepository {
	return &PhaseRepository{db: db}
}

func (r *PhaseRepository) Insert(ctx context.Context, record *model.PhaseRecord) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO phase_history (
			id, session_type, cycle, planned_seconds, actual_seconds,
			started_at, ended_at, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		string(record.SessionType),
		record.Cycle,
		record.PlannedSeconds,
		record.ActualSeconds,
		formatTime(record.StartedAt),
		formatTime(record.EndedAt),
		record.Status,
	)
	if err != nil {
		return fmt.Errorf("insert phase: %w", err)
	}
	return nil
}

func (r *PhaseRepository) Get(ctx context.Context, id string) (*model.PhaseRecord, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, session_type, cycle, planned_seconds, actual_seconds,
		        started_at, ended_at, status
		 FROM phase_history
		 WHERE id = ?`,
		id,
	)
	return scanPhaseRecord(row)
}

// List returns the most recent phases first.
func (r *PhaseRepository) List(ctx context.Context, limit int) ([]model.PhaseRecord, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, session_type, cycle, planned_seconds, actual_seconds,
		        started_at, ended_at, status
		 FROM phase_history
		 ORDER BY started_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list phases: %w", err)
	}
	defer rows.Close()

	records := make([]model.PhaseRecord, 0, limit)
	for rows.Next() {
		record, scanErr := scanPhaseRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate phases: %w", err)
	}
	return records, nil
}

func scanPhaseRecord(s scanner) (*model.PhaseRecord, error) {
	record := model.PhaseRecord{}
	var sessionType, startedAt, endedAt string
	err := s.Scan(
		&record.ID,
		&sessionType,
		&record.Cycle,
		&record.PlannedSeconds,
		&record.ActualSeconds,
		&startedAt,
		&endedAt,
		&record.Status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan phase: %w", err)
	}
	record.SessionType = model.SessionType(sessionType)

	parsedStartedAt, err := parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse phase started_at: %w", err)
	}
	record.StartedAt = parsedStartedAt

	parsedEndedAt, err := parseTime(endedAt)
	if err != nil {
		return nil, fmt.Errorf("parse phase ended_at: %w", err)
	}
	record.EndedAt = parsedEndedAt

	return &record, nil
}
