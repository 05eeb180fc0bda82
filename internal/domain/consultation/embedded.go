package consultation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariesclinic/consult/internal/platform/db"
)

// EmbeddedArrayStore keeps the full message sequence as a jsonb array
// on the consultation row (requires the optional consultations.messages
// column from the embedded-store migration). It exists as a migration
// path only and is not wired in production: its append is a whole-array
// read-modify-write, so two concurrent appends can both read the same
// prior array and the last writer silently drops the other's message.
// The normalized table store has no such hazard and is the strategy the
// server runs with.
type EmbeddedArrayStore struct {
	pool *pgxpool.Pool
}

func NewEmbeddedArrayStore(pool *pgxpool.Pool) *EmbeddedArrayStore {
	return &EmbeddedArrayStore{pool: pool}
}

type embeddedMessage struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Avatar    *string   `json:"avatar,omitempty"`
}

func (s *EmbeddedArrayStore) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func (s *EmbeddedArrayStore) readArray(ctx context.Context, consultationID uuid.UUID) ([]embeddedMessage, error) {
	var raw []byte
	if err := s.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(messages, '[]'::jsonb) FROM consultations WHERE id = $1`,
		consultationID).Scan(&raw); err != nil {
		return nil, err
	}
	var arr []embeddedMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, err
	}
	return arr, nil
}

func (s *EmbeddedArrayStore) writeArray(ctx context.Context, consultationID uuid.UUID, arr []embeddedMessage) error {
	raw, err := json.Marshal(arr)
	if err != nil {
		return err
	}
	_, err = s.conn(ctx).Exec(ctx,
		`UPDATE consultations SET messages = $2 WHERE id = $1`, consultationID, raw)
	return err
}

func (s *EmbeddedArrayStore) ListByConsultation(ctx context.Context, consultationID uuid.UUID) ([]Message, error) {
	arr, err := s.readArray(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	// The array is ordered by construction: appends always write to the
	// tail, so no re-sort happens on read.
	messages := make([]Message, 0, len(arr))
	for i, em := range arr {
		messages = append(messages, Message{
			ID:             em.ID,
			ConsultationID: consultationID,
			Content:        em.Content,
			CreatedAt:      em.CreatedAt,
			UserID:         em.UserID,
			Seq:            int64(i),
			AuthorName:     em.Name,
			AuthorRole:     em.Role,
			AuthorAvatar:   em.Avatar,
		})
	}
	return messages, nil
}

func (s *EmbeddedArrayStore) Append(ctx context.Context, m *Message) error {
	arr, err := s.readArray(ctx, m.ConsultationID)
	if err != nil {
		return err
	}
	m.Seq = int64(len(arr))
	arr = append(arr, embeddedMessage{
		ID:        m.ID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		UserID:    m.UserID,
		Name:      m.AuthorName,
		Role:      m.AuthorRole,
		Avatar:    m.AuthorAvatar,
	})
	return s.writeArray(ctx, m.ConsultationID, arr)
}

func (s *EmbeddedArrayStore) SeedIfEmpty(ctx context.Context, c *Consultation) error {
	arr, err := s.readArray(ctx, c.ID)
	if err != nil {
		return err
	}
	if len(arr) > 0 {
		return nil
	}
	return s.writeArray(ctx, c.ID, []embeddedMessage{{
		ID:        seedID(c.ID),
		Content:   c.Description,
		CreatedAt: c.CreatedAt,
		UserID:    c.PatientID,
		Name:      "Patient",
		Role:      "patient",
	}})
}
