package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/reviewspace/pkg/models"
)

// EngineReport is one progress report from the external processing engine.
// Delivery is at-least-once, so Apply must tolerate duplicates.
type EngineReport struct {
	HistoryID   string
	Status      QaStatus
	Outcome     json.RawMessage
	ErrorDetail *string
}

// TransitionService applies engine progress reports to qa history records.
// Writes go through a compare-and-set on the observed status: a losing racer
// gets ErrStatusConflict, never a silent overwrite.
type TransitionService struct {
	histories HistoryRepository
	logger    zerolog.Logger
}

func NewTransitionService(histories HistoryRepository, logger zerolog.Logger) *TransitionService {
	return &TransitionService{histories: histories, logger: logger}
}

// Apply validates and persists one report. Re-delivering a report the record
// already reflects is a no-op success as long as the payload is identical;
// a contradictory payload against a terminal record is a conflict.
func (s *TransitionService) Apply(ctx context.Context, report EngineReport) error {
	if err := validateReport(report); err != nil {
		return err
	}

	history, err := s.histories.FindByID(ctx, report.HistoryID)
	if err != nil {
		s.logger.Error().Err(err).Str("history_id", report.HistoryID).Msg("failed to load qa history")
		return fmt.Errorf("load qa history: %w", err)
	}
	if history == nil {
		return ErrNotFound
	}

	current := ReconstructQaStatus(history.Status)

	if report.Status.IsPending() {
		// Only the explicit retry operation may move a record back to pending.
		return &TransitionError{From: current.String(), To: report.Status.String()}
	}

	if current == report.Status {
		return s.checkDuplicate(history, report)
	}

	if _, err := current.Transition(report.Status); err != nil {
		if current.IsTerminal() {
			// The record already finished with a different outcome.
			return ErrStatusConflict
		}
		return err
	}

	ok, err := s.histories.UpdateStatusCAS(ctx, history.ID, current, report.Status, report.Outcome, report.ErrorDetail)
	if err != nil {
		s.logger.Error().Err(err).Str("history_id", history.ID).Msg("failed to persist status transition")
		return fmt.Errorf("persist transition: %w", err)
	}
	if !ok {
		return ErrStatusConflict
	}

	s.logger.Info().
		Str("history_id", history.ID).
		Str("from", current.String()).
		Str("to", report.Status.String()).
		Msg("qa status transition applied")
	return nil
}

// validateReport rejects terminal reports missing the payload their status
// implies, before any record is touched.
func validateReport(report EngineReport) error {
	if report.Status.IsCompleted() && len(bytes.TrimSpace(report.Outcome)) == 0 {
		return &ValidationError{Code: "report.outcome", Message: "completed report requires an outcome payload"}
	}
	if report.Status.IsError() && (report.ErrorDetail == nil || strings.TrimSpace(*report.ErrorDetail) == "") {
		return &ValidationError{Code: "report.error_detail", Message: "error report requires error detail"}
	}
	return nil
}

// checkDuplicate decides whether a same-status re-delivery is the idempotent
// duplicate of the original report or a contradiction.
func (s *TransitionService) checkDuplicate(history *models.QaHistory, report EngineReport) error {
	switch {
	case report.Status.IsCompleted():
		if !equalPayload(history.Outcome, report.Outcome) {
			return ErrStatusConflict
		}
	case report.Status.IsError():
		if !equalDetail(history.ErrorDetail, report.ErrorDetail) {
			return ErrStatusConflict
		}
	}

	s.logger.Debug().
		Str("history_id", history.ID).
		Str("status", report.Status.String()).
		Msg("duplicate engine report ignored")
	return nil
}

// equalPayload compares outcome payloads structurally so formatting
// differences between deliveries don't count as contradictions.
func equalPayload(a, b json.RawMessage) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(bytes.TrimSpace(a)) == 0 && len(bytes.TrimSpace(b)) == 0
	}

	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		return bytes.Equal(a, b)
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}

	ac, err := json.Marshal(av)
	if err != nil {
		return false
	}
	bc, err := json.Marshal(bv)
	if err != nil {
		return false
	}
	return bytes.Equal(ac, bc)
}

func equalDetail(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
