package consultation

import (
	"time"

	"github.com/google/uuid"
)

// Consultation status lifecycle: pending -> completed -> closed, or
// pending -> closed. Closed is terminal; no transition leaves it.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusClosed    = "closed"
)

// Consultation is one paid patient-doctor case. Title, description,
// patient, doctor and payment reference are immutable after booking;
// only status and the message history change afterwards.
type Consultation struct {
	ID               uuid.UUID `db:"id" json:"id"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	Title            string    `db:"title" json:"title"`
	Description      string    `db:"description" json:"description"`
	PatientID        string    `db:"patient_id" json:"patient_id"`
	DoctorID         uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Status           string    `db:"status" json:"status"`
	PaymentReference string    `db:"payment_reference" json:"payment_reference"`
}

// Message is one immutable entry in a consultation thread. AuthorName,
// AuthorRole and AuthorAvatar are joined from the author's profile at
// read time; they are not stored on the message row.
type Message struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConsultationID uuid.UUID `db:"consultation_id" json:"consultation_id"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UserID         string    `db:"user_id" json:"user_id"`
	Seq            int64     `db:"seq" json:"-"`
	AuthorName     string    `json:"author_name"`
	AuthorRole     string    `json:"author_role"`
	AuthorAvatar   *string   `json:"author_avatar,omitempty"`
}

// Thread is the read view returned by Load: the consultation plus its
// ordered message sequence.
type Thread struct {
	Consultation *Consultation `json:"consultation"`
	Messages     []Message     `json:"messages"`
}

// seedID derives the seed message's ID from the consultation ID. The
// synthesized view and the materialized row share this identity, and
// racing first appends collide on it instead of inserting twice.
func seedID(consultationID uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, consultationID[:])
}
