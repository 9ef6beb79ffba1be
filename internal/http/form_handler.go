package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/target/userdeck/internal/domain/model"
	apperrors "github.com/target/userdeck/internal/errors"
)

// Form field names shared by the templates and the parsers below.
const (
	fieldName           = "name"
	fieldEmail          = "email"
	fieldPassword       = "password"
	fieldAge            = "age"
	fieldGender         = "gender"
	fieldProfilePicture = "profilePicture"
	fieldRedirectURI    = "redirect_uri"
)

// errRequestTooLarge is rendered when the body exceeds the upload limit.
var errRequestTooLarge = apperrors.ValidationField(fieldProfilePicture, "Request is too large. Please choose a smaller file.")

// FormParser parses a submitted form into a request and the values to echo
// back when the form is re-rendered. Passwords are never echoed.
type FormParser[T any] func(r *http.Request) (T, map[string]string)

// parseRequestForm parses url-encoded and multipart bodies. Multipart parts
// beyond maxMemory spill to temporary files that ReleaseMultipart removes.
func parseRequestForm(r *http.Request, maxMemory int64) error {
	if maxMemory <= 0 {
		maxMemory = DefaultMultipartMemory
	}
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxMemory)
	} else {
		err = r.ParseForm()
	}
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errRequestTooLarge
	}
	return apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid form submission.")
}

func formValue(r *http.Request, field string) string {
	return strings.TrimSpace(r.PostFormValue(field))
}

// formUpload returns the chosen file for field, or nil when none was chosen.
func formUpload(r *http.Request, field string) *model.Upload {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil
	}
	return model.UploadFromHeader(files[0])
}

func parseLoginForm(r *http.Request) (model.LoginRequest, map[string]string) {
	req := model.LoginRequest{
		Email:    formValue(r, fieldEmail),
		Password: r.PostFormValue(fieldPassword),
	}
	return req, map[string]string{fieldEmail: req.Email}
}

func parseSignupForm(r *http.Request) (model.SignupRequest, map[string]string) {
	req := model.SignupRequest{
		Name:     formValue(r, fieldName),
		Email:    formValue(r, fieldEmail),
		Password: r.PostFormValue(fieldPassword),
		Age:      formValue(r, fieldAge),
		Gender:   formValue(r, fieldGender),
		Avatar:   formUpload(r, fieldProfilePicture),
	}
	return req, map[string]string{
		fieldName:   req.Name,
		fieldEmail:  req.Email,
		fieldAge:    req.Age,
		fieldGender: req.Gender,
	}
}

func parseProfileForm(r *http.Request) (model.UpdateProfileRequest, map[string]string) {
	req := model.UpdateProfileRequest{
		Name:   formValue(r, fieldName),
		Email:  formValue(r, fieldEmail),
		Avatar: formUpload(r, fieldProfilePicture),
	}
	return req, map[string]string{fieldName: req.Name, fieldEmail: req.Email}
}

// profileValues pre-fills the profile form from the stored user.
func profileValues(u model.User) map[string]string {
	return map[string]string{fieldName: u.Name, fieldEmail: u.Email}
}

// readForm parses the request body and applies parser.
func readForm[T any](r *http.Request, maxMemory int64, parser FormParser[T]) (T, map[string]string, error) {
	if err := parseRequestForm(r, maxMemory); err != nil {
		var zero T
		return zero, map[string]string{}, err
	}
	req, values := parser(r)
	return req, values, nil
}
