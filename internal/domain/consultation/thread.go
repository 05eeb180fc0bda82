package consultation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/ariesclinic/consult/internal/platform/auth"
)

// ThreadManager owns a consultation's message history: loading it as an
// ordered sequence, appending to it, and driving the status lifecycle.
// Identity is always passed in as an explicit Actor; the manager never
// reads it from ambient state.
type ThreadManager struct {
	consultations Repository
	store         MessageStore
	log           zerolog.Logger
	now           func() time.Time
}

func NewThreadManager(consultations Repository, store MessageStore, log zerolog.Logger) *ThreadManager {
	return &ThreadManager{
		consultations: consultations,
		store:         store,
		log:           log,
		now:           time.Now,
	}
}

func (t *ThreadManager) get(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	c, err := t.consultations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: load consultation: %v", ErrPersistence, err)
	}
	return c, nil
}

// Load returns the consultation and its messages sorted ascending by
// timestamp, stable on ties. When no message has been stored yet and the
// booking carried a description, a single seed message is synthesized
// from it so the thread view never starts empty. The seed is a read-only
// presentation fallback; Load never writes.
func (t *ThreadManager) Load(ctx context.Context, id uuid.UUID) (*Consultation, []Message, error) {
	c, err := t.get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	messages, err := t.store.ListByConsultation(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: load messages: %v", ErrPersistence, err)
	}

	if len(messages) == 0 && strings.TrimSpace(c.Description) != "" {
		messages = []Message{t.seedMessage(c)}
	}
	return c, messages, nil
}

func (t *ThreadManager) seedMessage(c *Consultation) Message {
	return Message{
		ID:             seedID(c.ID),
		ConsultationID: c.ID,
		Content:        c.Description,
		CreatedAt:      c.CreatedAt,
		UserID:         c.PatientID,
		AuthorName:     "Patient",
		AuthorRole:     auth.RolePatient,
	}
}

// Append validates and persists a new message authored by the actor. The
// role is stamped doctor only when the actor's role claim is exactly
// "doctor"; every other claim stamps patient. On the first write to a
// thread whose booking carried a description, the seed message is
// materialized as a real row first, so the intake text keeps its place
// at the head of the history.
func (t *ThreadManager) Append(ctx context.Context, id uuid.UUID, actor auth.Actor, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: message body must not be empty", ErrValidation)
	}

	c, err := t.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == StatusClosed {
		return nil, ErrThreadClosed
	}

	if strings.TrimSpace(c.Description) != "" {
		if err := t.store.SeedIfEmpty(ctx, c); err != nil {
			return nil, fmt.Errorf("%w: seed message: %v", ErrPersistence, err)
		}
	}

	role := auth.RolePatient
	if actor.IsDoctor() {
		role = auth.RoleDoctor
	}

	m := &Message{
		ID:             uuid.New(),
		ConsultationID: c.ID,
		Content:        body,
		CreatedAt:      t.now().UTC(),
		UserID:         actor.ID,
		AuthorName:     actor.DisplayName,
		AuthorRole:     role,
	}
	if actor.AvatarURL != "" {
		m.AuthorAvatar = &actor.AvatarURL
	}

	if err := t.store.Append(ctx, m); err != nil {
		return nil, fmt.Errorf("%w: append message: %v", ErrPersistence, err)
	}
	return m, nil
}

// Close marks the thread closed. Doctor-only; idempotent on an already
// closed thread.
func (t *ThreadManager) Close(ctx context.Context, id uuid.UUID, actor auth.Actor) (*Consultation, error) {
	if !actor.IsDoctor() {
		return nil, fmt.Errorf("%w: only a doctor can close a thread", ErrForbidden)
	}
	c, err := t.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == StatusClosed {
		return c, nil
	}
	if err := t.consultations.UpdateStatus(ctx, id, StatusClosed); err != nil {
		return nil, fmt.Errorf("%w: close thread: %v", ErrPersistence, err)
	}
	c.Status = StatusClosed
	t.log.Info().Str("consultation_id", id.String()).Str("actor_id", actor.ID).Msg("thread closed")
	return c, nil
}

// Complete marks the consultation resolved while leaving the thread open
// for follow-up messages. Doctor-only; rejected once the thread is
// closed; idempotent on an already completed consultation.
func (t *ThreadManager) Complete(ctx context.Context, id uuid.UUID, actor auth.Actor) (*Consultation, error) {
	if !actor.IsDoctor() {
		return nil, fmt.Errorf("%w: only a doctor can complete a consultation", ErrForbidden)
	}
	c, err := t.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == StatusClosed {
		return nil, ErrThreadClosed
	}
	if c.Status == StatusCompleted {
		return c, nil
	}
	if err := t.consultations.UpdateStatus(ctx, id, StatusCompleted); err != nil {
		return nil, fmt.Errorf("%w: complete consultation: %v", ErrPersistence, err)
	}
	c.Status = StatusCompleted
	return c, nil
}
