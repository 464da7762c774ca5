// Package feedback stores clinician feedback on calculator results: whether
// the clinician agreed with the interpretation and what they would have
// concluded instead.
package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/neurocalc-mcp-server/internal/domain"
)

// Feedback represents a clinician's feedback on one calculation.
type Feedback struct {
	ID                      int64            `json:"id,omitempty"`
	CalculatorID            string           `json:"calculator_id"`
	AnswersFingerprint      string           `json:"answers_fingerprint"`
	Answers                 domain.AnswerSet `json:"answers"`
	SuggestedInterpretation string           `json:"suggested_interpretation"` // Calculator output
	ClinicianInterpretation string           `json:"clinician_interpretation,omitempty"`
	Agreed                  bool             `json:"agreed"`
	Notes                   string           `json:"notes,omitempty"`
	CreatedAt               time.Time        `json:"created_at"`
	UpdatedAt               time.Time        `json:"updated_at"`
}

// Normalize fills the fingerprint from the answers and checks required fields.
func (f *Feedback) Normalize() error {
	if f.CalculatorID == "" {
		return domain.NewValidationError("calculator_id", "is required", f.CalculatorID)
	}
	if f.Answers == nil {
		f.Answers = domain.AnswerSet{}
	}
	f.AnswersFingerprint = f.Answers.Fingerprint()
	if f.SuggestedInterpretation == "" {
		return domain.NewValidationError("suggested_interpretation", "is required", f.SuggestedInterpretation)
	}
	return nil
}

// Store defines the interface for feedback storage operations.
type Store interface {
	// Save stores or updates feedback. Feedback for the same calculator and
	// answer fingerprint is updated in place.
	Save(ctx context.Context, feedback *Feedback) error

	// Get returns the feedback for a calculator and fingerprint, or nil.
	Get(ctx context.Context, calculatorID, fingerprint string) (*Feedback, error)

	// List returns feedback entries, newest first.
	List(ctx context.Context, limit, offset int) ([]*Feedback, error)

	// Count returns the total number of feedback entries.
	Count(ctx context.Context) (int64, error)

	// Delete removes a feedback entry by ID. Returns domain.ErrNotFound when
	// no row matched.
	Delete(ctx context.Context, id int64) error

	// ExportJSON exports all feedback to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON imports feedback from a JSON reader, skipping entries that
	// already exist. Returns the number of imported and skipped entries.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// FeedbackExport represents the JSON export format.
type FeedbackExport struct {
	Version    string      `json:"version"`
	ExportedAt time.Time   `json:"exported_at"`
	Count      int         `json:"count"`
	Feedback   []*Feedback `json:"feedback"`
}

// exportVersion is written into every export.
const exportVersion = "1.0"

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanFeedback scans a row into a Feedback struct.
func scanFeedback(s scanner) (*Feedback, error) {
	fb := &Feedback{}
	var answers string

	err := s.Scan(
		&fb.ID, &fb.CalculatorID, &fb.AnswersFingerprint, &answers,
		&fb.SuggestedInterpretation, &fb.ClinicianInterpretation, &fb.Agreed,
		&fb.Notes, &fb.CreatedAt, &fb.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(answers), &fb.Answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers: %w", err)
	}
	return fb, nil
}

func encodeAnswers(a domain.AnswerSet) (string, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("failed to encode answers: %w", err)
	}
	return string(data), nil
}

// writeExport lists every entry from store and encodes it to writer.
func writeExport(ctx context.Context, store Store, writer io.Writer) error {
	all, err := store.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list feedback: %w", err)
	}

	export := &FeedbackExport{
		Version:    exportVersion,
		ExportedAt: time.Now(),
		Count:      len(all),
		Feedback:   all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// readImport decodes an export from reader and saves entries not yet present.
func readImport(ctx context.Context, store Store, reader io.Reader) (imported int, skipped int, err error) {
	var export FeedbackExport
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, domain.NewValidationError("feedback", "invalid export document: "+err.Error(), nil)
	}

	for _, fb := range export.Feedback {
		if fb == nil {
			return imported, skipped, domain.NewValidationError("feedback", "null entry in export", nil)
		}
		if err := fb.Normalize(); err != nil {
			return imported, skipped, fmt.Errorf("invalid feedback entry: %w", err)
		}

		existing, err := store.Get(ctx, fb.CalculatorID, fb.AnswersFingerprint)
		if err != nil {
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}
		if existing != nil {
			skipped++
			continue
		}

		if err := store.Save(ctx, fb); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}
