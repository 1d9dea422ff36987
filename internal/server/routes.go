package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dori/tasktrackr/internal/backend"
	"github.com/dori/tasktrackr/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	userKey  contextKey = "user"
	tokenKey contextKey = "token"
)

// SignUpRequest is the body of POST /auth/signup
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// TokenRequest is the body of POST /auth/token
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RegisterRoutes builds the router
func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	// Bearer tokens, no cookies: credentials stay off
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.healthHandler)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", s.signUpHandler)
		r.Post("/token", s.tokenHandler)
		r.With(s.requireUser).Post("/logout", s.logoutHandler)
		r.With(s.requireUser).Get("/user", s.userHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)

		r.Route("/boards", func(r chi.Router) {
			r.Get("/", s.listBoardsHandler)
			r.Post("/", s.createBoardHandler)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.listTasksHandler)
			r.Post("/", s.createTaskHandler)
			r.Patch("/{id}", s.updateTaskHandler)
			r.Delete("/{id}", s.deleteTaskHandler)
		})
	})

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "up"})
}

func (s *Server) signUpHandler(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !s.decode(w, r, &req) {
		return
	}

	sess, err := s.backend.SignUp(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		s.respondWithBackendError(w, r, "sign up", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, sess)
}

func (s *Server) tokenHandler(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !s.decode(w, r, &req) {
		return
	}

	sess, err := s.backend.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondWithBackendError(w, r, "sign in", err)
		return
	}
	respondWithJSON(w, http.StatusOK, sess)
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	token, _ := r.Context().Value(tokenKey).(string)
	if err := s.backend.SignOut(r.Context(), token); err != nil {
		s.respondWithBackendError(w, r, "sign out", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) userHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, currentUser(r))
}

func (s *Server) listBoardsHandler(w http.ResponseWriter, r *http.Request) {
	boards, err := s.backend.ListBoards(r.Context(), currentUser(r).ID)
	if err != nil {
		s.respondWithBackendError(w, r, "list boards", err)
		return
	}
	respondWithJSON(w, http.StatusOK, boards)
}

func (s *Server) createBoardHandler(w http.ResponseWriter, r *http.Request) {
	var draft model.BoardDraft
	if !s.decode(w, r, &draft) {
		return
	}

	board, err := s.backend.InsertBoard(r.Context(), currentUser(r).ID, draft)
	if err != nil {
		s.respondWithBackendError(w, r, "create board", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, board)
}

func (s *Server) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.backend.ListTasks(r.Context(), currentUser(r).ID)
	if err != nil {
		s.respondWithBackendError(w, r, "list tasks", err)
		return
	}
	respondWithJSON(w, http.StatusOK, tasks)
}

func (s *Server) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	var draft model.TaskDraft
	if !s.decode(w, r, &draft) {
		return
	}

	task, err := s.backend.InsertTask(r.Context(), currentUser(r).ID, draft)
	if err != nil {
		s.respondWithBackendError(w, r, "create task", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, task)
}

func (s *Server) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch model.TaskPatch
	if !s.decode(w, r, &patch) {
		return
	}

	task, err := s.backend.UpdateTask(r.Context(), currentUser(r).ID, id, patch)
	if err != nil {
		s.respondWithBackendError(w, r, "update task", err)
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

func (s *Server) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.backend.DeleteTask(r.Context(), currentUser(r).ID, id); err != nil {
		s.respondWithBackendError(w, r, "delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireUser resolves the bearer token to a user and stores both in the request context
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Missing bearer token", backend.Code(backend.ErrUnauthorized))
			return
		}

		user, err := s.backend.GetUser(r.Context(), token)
		if err != nil {
			s.respondWithBackendError(w, r, "authenticate", err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs each request through logrus
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
		}).Info("request")
	})
}

func currentUser(r *http.Request) *model.User {
	u, _ := r.Context().Value(userKey).(*model.User)
	return u
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// decode reads a JSON body into v, writing a 400 response when it cannot
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	err := decoder.Decode(v)
	if err == nil {
		return true
	}

	code := backend.Code(backend.ErrInvalidInput)
	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		msg := fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset)
		respondWithError(w, http.StatusBadRequest, msg, code)
	case errors.Is(err, io.ErrUnexpectedEOF):
		respondWithError(w, http.StatusBadRequest, "Request body contains badly-formed JSON", code)
	case errors.As(err, &unmarshalTypeError):
		msg := fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset)
		respondWithError(w, http.StatusBadRequest, msg, code)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		respondWithError(w, http.StatusBadRequest, "Request body contains unknown field "+fieldName, code)
	case errors.Is(err, io.EOF):
		respondWithError(w, http.StatusBadRequest, "Request body must not be empty", code)
	default:
		s.log.WithError(err).Warn("failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request body", code)
	}
	return false
}

// respondWithBackendError maps backend sentinels to status codes; anything else is a 500
func (s *Server) respondWithBackendError(w http.ResponseWriter, r *http.Request, op string, err error) {
	code := backend.Code(err)

	status := http.StatusInternalServerError
	switch code {
	case "invalid_credentials", "unauthorized":
		status = http.StatusUnauthorized
	case "email_taken":
		status = http.StatusConflict
	case "not_found":
		status = http.StatusNotFound
	case "invalid_input":
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"op":         op,
		}).WithError(err).Error("backend call failed")
		respondWithError(w, status, "Failed to "+op, code)
		return
	}
	respondWithError(w, status, err.Error(), code)
}

func respondWithError(w http.ResponseWriter, status int, message, code string) {
	respondWithJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal server error preparing response","code":"internal"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
