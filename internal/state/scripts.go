package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RecordScriptRun records a script execution within a run. The caller
// sets Status to running for scripts about to execute, or skipped for
// scripts the runner never reached. An empty ID and zero StartedAt are
// filled in.
func (s *Store) RecordScriptRun(sr *ScriptRun) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if sr.ID == "" {
		sr.ID = generateID()
	}
	if sr.StartedAt.IsZero() {
		sr.StartedAt = time.Now().UTC()
	}

	s.logger.Debug("recording script run",
		slog.String("id", sr.ID),
		slog.String("topic", sr.Topic),
		slog.String("status", string(sr.Status)))

	_, err := s.db.Exec(
		`INSERT INTO script_runs (id, run_id, topic, stage, status, statements_ok, statements_failed, statements_tolerated, started_at, error, execution_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sr.ID, sr.RunID, sr.Topic, sr.Stage, sr.Status, sr.StatementsOK, sr.StatementsFailed, sr.StatementsTolerated, sr.StartedAt, sr.Error, sr.ExecutionMS,
	)
	if err != nil {
		return fmt.Errorf("failed to record script run: %w", err)
	}

	return nil
}

// UpdateScriptRun marks a script run as finished, stamping the
// completion time and computing the execution duration from the
// recorded start time.
func (s *Store) UpdateScriptRun(id string, status ScriptRunStatus, ok, failed, tolerated int, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	var startedAt time.Time
	err := s.db.QueryRow(`SELECT started_at FROM script_runs WHERE id = ?`, id).Scan(&startedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("script run not found: %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to get script run start time: %w", err)
	}

	executionMS := now.Sub(startedAt).Milliseconds()

	s.logger.Debug("updating script run",
		slog.String("id", id),
		slog.String("status", string(status)),
		slog.Int64("execution_ms", executionMS))

	_, err = s.db.Exec(
		`UPDATE script_runs SET status = ?, statements_ok = ?, statements_failed = ?, statements_tolerated = ?, completed_at = ?, error = ?, execution_ms = ? WHERE id = ?`,
		status, ok, failed, tolerated, now, errorPtr, executionMS, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update script run: %w", err)
	}

	return nil
}

// GetScriptRunsForRun retrieves all script runs for a run in execution
// order.
func (s *Store) GetScriptRunsForRun(runID string) ([]*ScriptRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, topic, stage, status, statements_ok, statements_failed, statements_tolerated, started_at, completed_at, error, execution_ms
		 FROM script_runs WHERE run_id = ? ORDER BY started_at`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get script runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var scriptRuns []*ScriptRun
	for rows.Next() {
		sr := &ScriptRun{}
		var completedAt sql.NullTime
		var errMsg sql.NullString

		if err := rows.Scan(&sr.ID, &sr.RunID, &sr.Topic, &sr.Stage, &sr.Status, &sr.StatementsOK, &sr.StatementsFailed, &sr.StatementsTolerated, &sr.StartedAt, &completedAt, &errMsg, &sr.ExecutionMS); err != nil {
			return nil, fmt.Errorf("failed to scan script run: %w", err)
		}

		if completedAt.Valid {
			sr.CompletedAt = &completedAt.Time
		}
		if errMsg.Valid {
			sr.Error = errMsg.String
		}
		scriptRuns = append(scriptRuns, sr)
	}

	return scriptRuns, rows.Err()
}

// GetLatestScriptRun retrieves the most recent execution of a topic.
// Returns nil without error when the topic has never run.
func (s *Store) GetLatestScriptRun(topic string) (*ScriptRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	sr := &ScriptRun{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := s.db.QueryRow(
		`SELECT id, run_id, topic, stage, status, statements_ok, statements_failed, statements_tolerated, started_at, completed_at, error, execution_ms
		 FROM script_runs WHERE topic = ? ORDER BY started_at DESC LIMIT 1`,
		topic,
	).Scan(&sr.ID, &sr.RunID, &sr.Topic, &sr.Stage, &sr.Status, &sr.StatementsOK, &sr.StatementsFailed, &sr.StatementsTolerated, &sr.StartedAt, &completedAt, &errMsg, &sr.ExecutionMS)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest script run: %w", err)
	}

	if completedAt.Valid {
		sr.CompletedAt = &completedAt.Time
	}
	if errMsg.Valid {
		sr.Error = errMsg.String
	}

	return sr, nil
}
