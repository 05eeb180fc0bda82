package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ariesclinic/consult/internal/platform/auth"
)

var ErrNotFound = errors.New("profile not found")

// Service keeps the patient/doctor directory current. A profile row is
// written on every booking and on explicit updates, so message author
// metadata can be joined without calling back to the identity provider.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Sync writes the actor's identity snapshot. Missing display names fall
// back to the user ID so joined message authors are never blank.
func (s *Service) Sync(ctx context.Context, actor auth.Actor) (*Profile, error) {
	p := &Profile{
		UserID:      actor.ID,
		DisplayName: strings.TrimSpace(actor.DisplayName),
		Role:        actor.Role,
	}
	if p.DisplayName == "" {
		p.DisplayName = actor.ID
	}
	if actor.AvatarURL != "" {
		p.AvatarURL = &actor.AvatarURL
	}
	if actor.Email != "" {
		p.Email = &actor.Email
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return s.Get(ctx, actor.ID)
}

// Update applies caller-supplied fields on top of the identity snapshot.
// Role is never taken from the request body.
func (s *Service) Update(ctx context.Context, actor auth.Actor, req UpdateRequest) (*Profile, error) {
	p := &Profile{
		UserID:      actor.ID,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        actor.Role,
	}
	if p.DisplayName == "" {
		p.DisplayName = strings.TrimSpace(actor.DisplayName)
	}
	if p.DisplayName == "" {
		p.DisplayName = actor.ID
	}
	if req.AvatarURL != nil && *req.AvatarURL != "" {
		p.AvatarURL = req.AvatarURL
	} else if actor.AvatarURL != "" {
		p.AvatarURL = &actor.AvatarURL
	}
	if req.Email != nil && *req.Email != "" {
		p.Email = req.Email
	} else if actor.Email != "" {
		p.Email = &actor.Email
	}
	if req.Phone != nil && *req.Phone != "" {
		p.Phone = req.Phone
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return s.Get(ctx, actor.ID)
}

func (s *Service) Get(ctx context.Context, userID string) (*Profile, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

type UpdateRequest struct {
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
}
