package service

import (
	"errors"

	"github.com/target/userdeck/internal/domain/model"
	apperrors "github.com/target/userdeck/internal/errors"
	"github.com/target/userdeck/internal/validation"
)

// DefaultMaxUploadBytes bounds avatar uploads when no limit is configured.
const DefaultMaxUploadBytes = 5 << 20

// MinSignupAge is the youngest age accepted at signup.
const MinSignupAge = 13

// ValidateLogin checks the login form.
func ValidateLogin(req model.LoginRequest) error {
	return validation.New().
		Validate("email", req.Email, validation.Required("Email", 0), validation.Email()).
		Validate("password", req.Password, validation.Required("Password", 0)).
		Err()
}

// ValidateSignup checks the signup form, including the optional avatar.
func ValidateSignup(req model.SignupRequest, maxUpload int64) error {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return validation.New().
		Validate("name", req.Name, validation.Required("Name", 100)).
		Validate("email", req.Email, validation.Required("Email", 254), validation.Email()).
		Validate("password", req.Password,
			validation.Required("Password", 0),
			validation.MinLength("Password", 6)).
		Validate("age", req.Age,
			validation.Required("Age", 0),
			validation.MinInt("Age", MinSignupAge, "You must be at least 13 years old")).
		Validate("gender", req.Gender, validation.OneOf("Gender", model.Genders())).
		Add("profilePicture", validation.Image(req.Avatar, maxUpload)).
		Err()
}

// ValidateProfile checks the profile edit form.
func ValidateProfile(req model.UpdateProfileRequest, maxUpload int64) error {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return validation.New().
		Validate("name", req.Name, validation.Required("Name", 100)).
		Validate("email", req.Email, validation.Required("Email", 254), validation.Email()).
		Add("profilePicture", validation.Image(req.Avatar, maxUpload)).
		Err()
}

// bufferAvatar copies a validated avatar into memory. Gated submissions may
// outlive the request whose multipart temp files back the original upload.
func bufferAvatar(up *model.Upload, maxUpload int64) (*model.Upload, error) {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	buffered, err := up.Buffered(maxUpload)
	if errors.Is(err, model.ErrUploadTooLarge) {
		return nil, apperrors.ValidationField("profilePicture", validation.TooLarge(maxUpload))
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "read upload")
	}
	return buffered, nil
}
