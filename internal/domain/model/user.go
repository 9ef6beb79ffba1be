package model

import (
	"strings"
	"time"
)

// Gender values accepted by the signup form. Empty means not provided.
const (
	GenderMale           = "male"
	GenderFemale         = "female"
	GenderOther          = "other"
	GenderPreferNotToSay = "prefer-not-to-say"
)

// Genders lists the selectable gender values in display order.
func Genders() []string {
	return []string{GenderMale, GenderFemale, GenderOther, GenderPreferNotToSay}
}

// Authentication providers reported by the remote API.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User is a profile as returned by the remote user API.
type User struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Age            int        `json:"age,omitempty"`
	Gender         string     `json:"gender,omitempty"`
	Provider       string     `json:"provider,omitempty"`
	AvatarURL      string     `json:"avatarUrl,omitempty"`
	ProfilePicture string     `json:"profilePicture,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}

// IsZero reports whether u carries no identity.
func (u User) IsZero() bool {
	return u.ID == "" && u.Email == ""
}

// DisplayAvatar returns the best available avatar URL.
func (u User) DisplayAvatar() string {
	if u.AvatarURL != "" {
		return u.AvatarURL
	}
	return u.ProfilePicture
}

// Initial returns an upper-case letter for avatar placeholders.
func (u User) Initial() string {
	name := strings.TrimSpace(u.Name)
	if name == "" {
		name = strings.TrimSpace(u.Email)
	}
	if name == "" {
		return "?"
	}
	return strings.ToUpper(string([]rune(name)[0]))
}

// AuthResult is the body returned by the login and Google exchange endpoints.
type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// UserEnvelope wraps single-user responses ({"user": {...}}).
type UserEnvelope struct {
	User User `json:"user"`
}

// UserList wraps the directory response ({"users": [...]}).
type UserList struct {
	Users []User `json:"users"`
}
