package consultation

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariesclinic/consult/internal/platform/db"
	"github.com/ariesclinic/consult/pkg/pagination"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const consultationCols = `id, created_at, title, description, patient_id, doctor_id, status, payment_reference`

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(&c.ID, &c.CreatedAt, &c.Title, &c.Description,
		&c.PatientID, &c.DoctorID, &c.Status, &c.PaymentReference)
	return &c, err
}

func (r *repoPG) Insert(ctx context.Context, c *Consultation) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consultations (id, title, description, patient_id, doctor_id, status, payment_reference)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		c.ID, c.Title, c.Description, c.PatientID, c.DoctorID, c.Status, c.PaymentReference,
	).Scan(&c.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return scanConsultation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+consultationCols+` FROM consultations WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, patientID string, p pagination.Params) ([]Consultation, int, error) {
	where := ``
	args := []interface{}{}
	if patientID != "" {
		where = ` WHERE patient_id = $1`
		args = append(args, patientID)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM consultations`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+consultationCols+` FROM consultations`+where+` ORDER BY created_at DESC `+p.SQL(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	consultations := make([]Consultation, 0)
	for rows.Next() {
		var c Consultation
		if err := rows.Scan(&c.ID, &c.CreatedAt, &c.Title, &c.Description,
			&c.PatientID, &c.DoctorID, &c.Status, &c.PaymentReference); err != nil {
			return nil, 0, err
		}
		consultations = append(consultations, c)
	}
	return consultations, total, rows.Err()
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE consultations SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// NormalizedTableStore keeps one row per message. Appends are plain
// inserts, so concurrent writers cannot clobber each other's messages.
// Reads order by (created_at, seq): seq is a bigserial assigned at
// insert, which keeps equal-timestamp messages in arrival order.
type NormalizedTableStore struct {
	pool *pgxpool.Pool
}

func NewNormalizedTableStore(pool *pgxpool.Pool) *NormalizedTableStore {
	return &NormalizedTableStore{pool: pool}
}

func (s *NormalizedTableStore) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func (s *NormalizedTableStore) ListByConsultation(ctx context.Context, consultationID uuid.UUID) ([]Message, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT m.id, m.consultation_id, m.content, m.created_at, m.user_id, m.seq,
		       COALESCE(p.display_name, m.user_id),
		       COALESCE(p.role, 'patient'),
		       p.avatar_url
		FROM messages m
		LEFT JOIN profiles p ON p.user_id = m.user_id
		WHERE m.consultation_id = $1
		ORDER BY m.created_at, m.seq`, consultationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConsultationID, &m.Content, &m.CreatedAt,
			&m.UserID, &m.Seq, &m.AuthorName, &m.AuthorRole, &m.AuthorAvatar); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *NormalizedTableStore) Append(ctx context.Context, m *Message) error {
	return s.conn(ctx).QueryRow(ctx, `
		INSERT INTO messages (id, consultation_id, content, created_at, user_id)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING seq`,
		m.ID, m.ConsultationID, m.Content, m.CreatedAt, m.UserID,
	).Scan(&m.Seq)
}

func (s *NormalizedTableStore) SeedIfEmpty(ctx context.Context, c *Consultation) error {
	// NOT EXISTS skips threads that already have history. That check is
	// per-statement-snapshot, so two racing first appends can both pass
	// it; the deterministic seed ID makes the second insert hit the
	// primary key and turn into a no-op instead of a duplicate seed.
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO messages (id, consultation_id, content, created_at, user_id)
		SELECT $1, $2, $3, $4, $5
		WHERE NOT EXISTS (SELECT 1 FROM messages WHERE consultation_id = $2)
		ON CONFLICT (id) DO NOTHING`,
		seedID(c.ID), c.ID, c.Description, c.CreatedAt, c.PatientID)
	return err
}
