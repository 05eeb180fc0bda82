package profile

import "time"

// Profile is the locally persisted mirror of an identity-provider user.
// Message rows reference users by id only; display name, avatar and role are
// joined from here at read time so the thread always shows current metadata.
type Profile struct {
	UserID      string    `db:"user_id" json:"user_id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	AvatarURL   *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	Role        string    `db:"role" json:"role"`
	Email       *string   `db:"email" json:"email,omitempty"`
	Phone       *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
