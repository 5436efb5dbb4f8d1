// Package stub implements a development stand-in for the RAG backend.
//
// It speaks the same HTTP surface the client consumes — /token, /users/me,
// /register, /ask, /upload — with an in-memory user table and a naive
// keyword retriever over uploaded documents. It exists for local development
// and for exercising the gateway against a real HTTP server in tests.
package stub

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/studyrag/ragchat/internal/domain"
	"github.com/studyrag/ragchat/internal/middleware"
)

// FallbackAnswer is returned when no indexed document matches the question.
const FallbackAnswer = "I don't know based on the given context."

const maxUploadBytes = 10 << 20

type user struct {
	passwordHash []byte
	role         domain.Role
}

type document struct {
	name    string
	content string
}

// Server holds the stub's in-memory state.
type Server struct {
	logger *slog.Logger

	mu     sync.Mutex
	users  map[string]user   // username -> credentials
	tokens map[string]string // token -> username
	docs   []document
}

// New creates an empty stub server.
func New(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger: logger,
		users:  make(map[string]user),
		tokens: make(map[string]string),
	}
}

// Router builds the HTTP handler with the full endpoint surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	r.Get("/", s.handleHealth)
	r.Post("/token", s.handleToken)
	r.Post("/register", s.handleRegister)
	r.Get("/users/me", s.handleMe)
	r.Post("/ask", s.handleAsk)
	r.Post("/upload", s.handleUpload)
	return r
}

// Seed registers a user directly, bypassing the HTTP surface. Test helper.
func (s *Server) Seed(username, password string, role domain.Role) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = user{passwordHash: hash, role: role}
	return nil
}

// SeedDocument indexes a document directly. Test helper.
func (s *Server) SeedDocument(name, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, document{name: name, content: content})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "RAG stub is running"})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		// Plain urlencoded forms land here too.
		if err := r.ParseForm(); err != nil {
			Error(w, http.StatusBadRequest, "invalid form body")
			return
		}
	}
	username := r.FormValue("username")
	password := r.FormValue("password")

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) != nil {
		Detail(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}

	token := uuid.NewString()
	s.tokens[token] = username
	s.logger.Info("issued token", "username", username)
	JSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string      `json:"username"`
		Password string      `json:"password"`
		Role     domain.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Detail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		Detail(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if req.Role != domain.RoleStudent && req.Role != domain.RoleAdmin {
		Detail(w, http.StatusBadRequest, "role must be student or admin")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		Detail(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Username]; exists {
		Detail(w, http.StatusConflict, "username already registered")
		return
	}
	s.users[req.Username] = user{passwordHash: hash, role: req.Role}
	s.logger.Info("registered user", "username", req.Username, "role", req.Role)
	JSON(w, http.StatusCreated, map[string]string{"username": req.Username})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	username, u, ok := s.authenticate(r)
	if !ok {
		Detail(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"username": username, "role": string(u.role)})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Detail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		Detail(w, http.StatusBadRequest, "question is required")
		return
	}

	answer := s.retrieve(req.Question)
	JSON(w, http.StatusOK, map[string]string{"question": req.Question, "answer": answer})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	_, u, ok := s.authenticate(r)
	if !ok {
		Detail(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	if u.role != domain.RoleAdmin {
		Detail(w, http.StatusForbidden, "admin role required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		Detail(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		Detail(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		Detail(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	s.mu.Lock()
	s.docs = append(s.docs, document{name: header.Filename, content: string(content)})
	s.mu.Unlock()

	s.logger.Info("indexed document", "file", header.Filename, "bytes", len(content))
	JSON(w, http.StatusOK, map[string]string{"filename": header.Filename, "status": "indexed"})
}

// authenticate resolves the bearer credential to a user. Absence of a
// credential is never treated as anonymous success.
func (s *Server) authenticate(r *http.Request) (string, user, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return "", user{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.tokens[token]
	if !ok {
		return "", user{}, false
	}
	u, ok := s.users[username]
	return username, u, ok
}

// retrieve is the stub's stand-in for the retrieval pipeline: score indexed
// documents by keyword overlap with the question and answer from the best
// match, with the pipeline's canned fallback when nothing is relevant.
func (s *Server) retrieve(question string) string {
	terms := tokenize(question)
	if len(terms) == 0 {
		return FallbackAnswer
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type scored struct {
		doc   document
		score int
	}
	var matches []scored
	for _, d := range s.docs {
		content := strings.ToLower(d.content)
		score := 0
		for term := range terms {
			score += strings.Count(content, term)
		}
		if score > 0 {
			matches = append(matches, scored{doc: d, score: score})
		}
	}
	if len(matches) == 0 {
		return FallbackAnswer
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	best := matches[0].doc
	return "Based on " + best.name + ": " + excerpt(best.content, 400)
}

func tokenize(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, f := range strings.Fields(strings.ToLower(text)) {
		f = strings.Trim(f, ".,!?;:\"'()")
		if len(f) > 2 {
			terms[f] = struct{}{}
		}
	}
	return terms
}

// excerpt truncates text to at most limit bytes, backing off to a rune
// boundary so a multi-byte character is never split.
func excerpt(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
