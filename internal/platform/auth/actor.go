package auth

import "context"

// Role values carried in the identity provider's role claim.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// Actor is the authenticated caller as asserted by the identity provider.
// It is resolved once by the auth middleware and passed explicitly into
// domain operations; domain code never reads identity from ambient state.
type Actor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

// IsDoctor reports whether the role claim is exactly "doctor". Any other
// claim value is treated as a patient for message stamping.
func (a Actor) IsDoctor() bool {
	return a.Role == RoleDoctor
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type contextKey string

const actorKey contextKey = "actor"

// WithActor returns a context carrying the authenticated actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext retrieves the authenticated actor from context. The zero
// Actor (empty ID) means the request was not authenticated.
func ActorFromContext(ctx context.Context) Actor {
	a, _ := ctx.Value(actorKey).(Actor)
	return a
}
