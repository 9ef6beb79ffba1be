package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
)

// ErrUploadTooLarge is returned by Buffered when the file exceeds the limit.
var ErrUploadTooLarge = errors.New("upload exceeds size limit")

// LoginRequest is the JSON body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginRequest is the JSON body for POST /api/auth/google.
type GoogleLoginRequest struct {
	AccessToken string `json:"access_token"`
}

// SignupRequest carries the multipart fields for POST /api/auth/signup.
// Age is kept as the raw form string and validated before submission.
type SignupRequest struct {
	Name     string
	Email    string
	Password string
	Age      string
	Gender   string
	Avatar   *Upload
}

// UpdateProfileRequest carries the multipart fields for PUT /api/users/me.
type UpdateProfileRequest struct {
	Name   string
	Email  string
	Avatar *Upload
}

// Upload is a file chosen in a browser form and forwarded to the remote API.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)

	// sum is the SHA-256 of the content, set by Buffered.
	sum string
}

// IsImage reports whether the declared content type is an image.
func (u *Upload) IsImage() bool {
	return u != nil && strings.HasPrefix(strings.ToLower(u.ContentType), "image/")
}

// UploadFromHeader adapts a parsed multipart file header. It returns nil when
// no file was chosen.
func UploadFromHeader(fh *multipart.FileHeader) *Upload {
	if fh == nil || fh.Filename == "" {
		return nil
	}
	return &Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// Buffered reads the file into memory and returns a copy whose Open serves
// that memory. The copy stays readable after the request's multipart temp
// files are removed. A nil upload buffers to nil.
func (u *Upload) Buffered(limit int64) (*Upload, error) {
	if u == nil || u.Open == nil {
		return u, nil
	}
	src, err := u.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	reader := io.Reader(src)
	if limit > 0 {
		reader = io.LimitReader(src, limit+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, ErrUploadTooLarge
	}

	digest := sha256.Sum256(data)
	return &Upload{
		Filename:    u.Filename,
		ContentType: u.ContentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
		sum: hex.EncodeToString(digest[:]),
	}, nil
}

// Digest identifies the upload's name, type and content. It is empty for a
// nil upload. Content is only covered once the upload has been buffered.
func (u *Upload) Digest() string {
	if u == nil {
		return ""
	}
	return fmt.Sprintf("%s|%s|%d|%s", u.Filename, u.ContentType, u.Size, u.sum)
}
