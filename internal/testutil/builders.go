package testutil

import (
	"time"

	"github.com/target/userdeck/internal/domain/model"
)

// UserBuilder provides a fluent interface for building model.User values for testing.
type UserBuilder struct {
	u model.User
}

// NewUser creates a UserBuilder with sensible defaults (the "a@b.com" fixture user).
func NewUser() *UserBuilder {
	created := TestTime()
	return &UserBuilder{
		u: model.User{
			ID:        "u1",
			Name:      "Ada Lovelace",
			Email:     "a@b.com",
			Age:       25,
			Gender:    model.GenderFemale,
			Provider:  model.ProviderLocal,
			CreatedAt: &created,
		},
	}
}

// WithID sets the user id.
func (b *UserBuilder) WithID(id string) *UserBuilder {
	b.u.ID = id
	return b
}

// WithName sets the display name.
func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.u.Name = name
	return b
}

// WithEmail sets the email.
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.u.Email = email
	return b
}

// WithAvatar sets the avatar URL.
func (b *UserBuilder) WithAvatar(url string) *UserBuilder {
	b.u.AvatarURL = url
	return b
}

// WithProvider sets the sign-in provider.
func (b *UserBuilder) WithProvider(p string) *UserBuilder {
	b.u.Provider = p
	return b
}

// CreatedAt sets the creation time.
func (b *UserBuilder) CreatedAt(t time.Time) *UserBuilder {
	b.u.CreatedAt = &t
	return b
}

// Build returns the user.
func (b *UserBuilder) Build() model.User {
	return b.u
}

// RecentFrom projects users into the analytics "recent" shape.
func RecentFrom(users ...model.User) []model.RecentUser {
	out := make([]model.RecentUser, 0, len(users))
	for _, u := range users {
		out = append(out, model.RecentUser{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			CreatedAt: u.CreatedAt,
			Provider:  u.Provider,
		})
	}
	return out
}
