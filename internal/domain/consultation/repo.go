package consultation

import (
	"context"

	"github.com/google/uuid"

	"github.com/ariesclinic/consult/pkg/pagination"
)

// Repository persists consultation records.
type Repository interface {
	Insert(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	// List returns consultations newest first. An empty patientID lists
	// across all patients (admin and doctor views).
	List(ctx context.Context, patientID string, p pagination.Params) ([]Consultation, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// MessageStore persists a consultation's message history. Two storage
// strategies implement it; exactly one is wired in production.
type MessageStore interface {
	// ListByConsultation returns the stored messages sorted ascending by
	// timestamp, stable on ties, with author metadata resolved.
	ListByConsultation(ctx context.Context, consultationID uuid.UUID) ([]Message, error)
	// Append persists a single new message.
	Append(ctx context.Context, m *Message) error
	// SeedIfEmpty materializes the consultation's description as the
	// first stored message, attributed to the patient at booking time.
	// A no-op when the thread already has any stored message.
	SeedIfEmpty(ctx context.Context, c *Consultation) error
}
