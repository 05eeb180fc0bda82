package doctor

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is a directory entry for a consulting physician. The directory
// is read-mostly: rows are seeded by migration or admin tooling, and the
// booking flow only ever references them by ID.
type Doctor struct {
	ID             uuid.UUID `db:"id" json:"id"`
	DisplayName    string    `db:"display_name" json:"display_name"`
	Specialization string    `db:"specialization" json:"specialization"`
	Credentials    *string   `db:"credentials" json:"credentials,omitempty"`
	AvatarURL      *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	Email          *string   `db:"email" json:"-"`
	WhatsApp       *string   `db:"whatsapp" json:"-"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
