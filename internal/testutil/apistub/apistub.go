// Package apistub runs an in-process fake of the remote user API for tests.
package apistub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/target/userdeck/internal/domain/model"
)

// Fixture credentials accepted by a new Server.
const (
	FixtureEmail       = "a@b.com"
	FixturePassword    = "secret1"
	FixtureUserID      = "u1"
	FixtureToken       = "t1"
	GoogleAccessToken  = "google-access-token"
	GoogleToken        = "tg"
	maxMultipartMemory = 8 << 20
)

// Request is a recorded inbound request.
type Request struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	Form          map[string]string
	Files         map[string]string
}

type failure struct {
	status int
	body   string
}

// Server is a fake remote API backed by httptest.Server.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	users     map[string]model.User
	passwords map[string]string
	tokens    map[string]string
	overview  model.AnalyticsOverview
	requests  []Request
	failures  map[string]failure
	delay     time.Duration
	nextID    int
}

// New starts a Server seeded with the fixture user. It is closed via t.Cleanup
// when cleanup is non-nil.
func New(cleanup func(func())) *Server {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &Server{
		users: map[string]model.User{
			FixtureUserID: {
				ID:        FixtureUserID,
				Name:      "Ada Lovelace",
				Email:     FixtureEmail,
				Age:       25,
				Gender:    model.GenderFemale,
				Provider:  model.ProviderLocal,
				CreatedAt: &created,
			},
		},
		passwords: map[string]string{FixtureEmail: FixturePassword},
		tokens:    map[string]string{FixtureToken: FixtureUserID},
		overview:  model.AnalyticsOverview{TotalUsers: 1, NewUsers: 1, WeeklyUsers: 1, TodayUsers: 0},
		failures:  map[string]failure{},
		nextID:    2,
	}
	s.Server = httptest.NewServer(s.routes())
	if cleanup != nil {
		cleanup(s.Close)
	}
	return s
}

// BaseURL returns the server URL with a trailing slash.
func (s *Server) BaseURL() string { return s.URL + "/" }

// FailWith makes every request to "METHOD /path" answer status and body.
func (s *Server) FailWith(methodPath string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[methodPath] = failure{status: status, body: body}
}

// SetDelay delays every response.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// AddUser seeds another user reachable with token.
func (s *Server) AddUser(u model.User, password, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	if password != "" {
		s.passwords[u.Email] = password
	}
	if token != "" {
		s.tokens[token] = u.ID
	}
}

// User returns the stored user by id.
func (s *Server) User(id string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// Requests returns every recorded request.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests hit "METHOD /path".
func (s *Server) Count(methodPath string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method+" "+r.Path == methodPath {
			n++
		}
	}
	return n
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("POST /api/auth/signup", s.signup)
	mux.HandleFunc("POST /api/auth/google", s.google)
	mux.HandleFunc("GET /api/users", s.authed(s.listUsers))
	mux.HandleFunc("GET /api/users/me", s.authed(s.me))
	mux.HandleFunc("PUT /api/users/me", s.authed(s.updateMe))
	mux.HandleFunc("GET /api/users/analytics/overview", s.authed(s.analyticsOverview))
	mux.HandleFunc("GET /api/users/analytics/recent", s.authed(s.analyticsRecent))
	mux.HandleFunc("GET /api/users/{id}", s.getUser)
	return s.record(mux)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
		}
		if strings.HasPrefix(rec.ContentType, "multipart/form-data") {
			if err := r.ParseMultipartForm(maxMultipartMemory); err == nil {
				rec.Form = map[string]string{}
				for k, v := range r.MultipartForm.Value {
					rec.Form[k] = v[0]
				}
				rec.Files = map[string]string{}
				for k, v := range r.MultipartForm.File {
					rec.Files[k] = v[0].Filename
				}
			}
		}

		s.mu.Lock()
		s.requests = append(s.requests, rec)
		f, failing := s.failures[r.Method+" "+r.URL.Path]
		delay := s.delay
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authed(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		uid, ok := s.tokens[token]
		s.mu.Unlock()
		if token == "" || !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		next(w, r, uid)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if pw, ok := s.passwords[req.Email]; !ok || pw != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}
	for tok, uid := range s.tokens {
		if s.users[uid].Email == req.Email {
			writeJSON(w, http.StatusOK, model.AuthResult{User: s.users[uid], Token: tok})
			return
		}
	}
	u := s.findByEmailLocked(req.Email)
	tok := "t-" + u.ID
	s.tokens[tok] = u.ID
	writeJSON(w, http.StatusOK, model.AuthResult{User: u, Token: tok})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	if r.MultipartForm == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart body required"})
		return
	}
	email := r.FormValue("email")
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.passwords[email]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Email already registered"})
		return
	}
	now := time.Now().UTC()
	u := model.User{
		ID:        fmt.Sprintf("u%d", s.nextID),
		Name:      r.FormValue("name"),
		Email:     email,
		Gender:    r.FormValue("gender"),
		Provider:  model.ProviderLocal,
		CreatedAt: &now,
	}
	_, _ = fmt.Sscanf(r.FormValue("age"), "%d", &u.Age)
	if files := r.MultipartForm.File["profilePicture"]; len(files) > 0 {
		u.AvatarURL = "/uploads/" + files[0].Filename
	}
	s.nextID++
	s.users[u.ID] = u
	s.passwords[email] = r.FormValue("password")
	writeJSON(w, http.StatusCreated, map[string]any{"message": "User created successfully", "user": u})
}

func (s *Server) google(w http.ResponseWriter, r *http.Request) {
	var req model.GoogleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccessToken != GoogleAccessToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Google authentication failed"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users["g1"]
	if !ok {
		now := time.Now().UTC()
		u = model.User{ID: "g1", Name: "Grace Hopper", Email: "grace@example.com", Provider: model.ProviderGoogle, CreatedAt: &now}
		s.users[u.ID] = u
	}
	s.tokens[GoogleToken] = u.ID
	writeJSON(w, http.StatusOK, model.AuthResult{User: u, Token: GoogleToken})
}

func (s *Server) listUsers(w http.ResponseWriter, _ *http.Request, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, model.UserList{Users: s.sortedUsersLocked()})
}

func (s *Server) me(w http.ResponseWriter, _ *http.Request, uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, model.UserEnvelope{User: s.users[uid]})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[r.PathValue("id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, model.UserEnvelope{User: u})
}

func (s *Server) updateMe(w http.ResponseWriter, r *http.Request, uid string) {
	if r.MultipartForm == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart body required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.users[uid]
	if v := r.FormValue("name"); v != "" {
		u.Name = v
	}
	if v := r.FormValue("email"); v != "" {
		u.Email = v
	}
	if files := r.MultipartForm.File["profilePicture"]; len(files) > 0 {
		u.AvatarURL = "/uploads/" + files[0].Filename
	}
	s.users[uid] = u
	writeJSON(w, http.StatusOK, model.UserEnvelope{User: u})
}

func (s *Server) analyticsOverview(w http.ResponseWriter, _ *http.Request, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ov := s.overview
	ov.TotalUsers = len(s.users)
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) analyticsRecent(w http.ResponseWriter, _ *http.Request, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.sortedUsersLocked()
	out := make([]model.RecentUser, 0, len(users))
	for _, u := range users {
		out = append(out, model.RecentUser{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt, Provider: u.Provider})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) sortedUsersLocked() []model.User {
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) findByEmailLocked(email string) model.User {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return model.User{}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
