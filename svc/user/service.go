package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service exposes user lookup and find-or-create semantics shared by the
// OAuth sign-in flow and the billing webhook path.
type Service struct {
	store Store
}

// NewService creates a user service backed by the given store.
func NewService(store Store) *Service {
	if store == nil {
		panic("user: Store is required")
	}
	return &Service{store: store}
}

// Get retrieves a user by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.store.Get(ctx, id)
}

// FindOrCreate returns the user with the given email, creating one when none
// exists. Name and avatar are only applied on creation; an existing user's
// profile is not overwritten by a billing event. A concurrent create racing
// on the email unique constraint falls back to reading the winner's row.
func (s *Service) FindOrCreate(ctx context.Context, email, name, avatarURL string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmptyEmail
	}

	u, err := s.store.GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	u = &User{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		AvatarURL: avatarURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return s.store.GetByEmail(ctx, email)
		}
		return nil, err
	}
	return u, nil
}

// UpdateProfile sets the user's display name and avatar.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, name, avatarURL string) (*User, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	u.Name = name
	u.AvatarURL = avatarURL
	u.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
