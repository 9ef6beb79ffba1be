package viewmodel

import "github.com/target/userdeck/internal/domain/model"

// User represents the signed-in user exposed to the navbar.
type User struct {
	ID        string
	Name      string
	Email     string
	AvatarURL string
	Initial   string
}

// UserFrom projects the cached session user for display.
func UserFrom(u model.User) *User {
	return &User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.DisplayAvatar(),
		Initial:   u.Initial(),
	}
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	PageTitle       string
	CurrentPage     string
	CSRFToken       string
	IsAuthenticated bool
	User            *User
}
