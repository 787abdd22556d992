package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"webcore/internal/domain"
	"webcore/internal/platform/telemetry"
	"webcore/internal/webapi"
)

type handlers struct {
	issuer   TokenIssuer
	accounts webapi.Credentials
	metrics  *telemetry.Metrics
	validate *validator.Validate
}

type tokenRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileResponse describes the authenticated caller.
type ProfileResponse struct {
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

func (h *handlers) issueToken(w http.ResponseWriter, r *http.Request) error {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := h.validate.Struct(req); err != nil {
		return domain.WrapBadRequest("invalid token request", err, domain.CodeInvalidRequest)
	}

	acct, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return domain.WrapUnauthorized("invalid email or password", err, domain.CodeInvalidCredentials)
		}
		return fmt.Errorf("authenticating account: %w", err)
	}

	tok, err := h.issuer.IssueForUser(acct.Email, acct.ID, time.Time{})
	if err != nil {
		return fmt.Errorf("issuing token for user %d: %w", acct.ID, err)
	}
	if h.metrics != nil {
		h.metrics.RecordTokenIssued(r.Context(), "int")
	}

	w.Header().Set("Cache-Control", "no-store")
	return writeJSON(w, http.StatusOK, tok)
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) error {
	p, ok := webapi.PrincipalFromContext(r.Context())
	if !ok {
		return domain.Unauthorized("", domain.CodeUnauthorizedRequest)
	}
	return writeJSON(w, http.StatusOK, ProfileResponse{Email: p.Email, Subject: p.Subject})
}

// user returns an account. Callers may only read their own.
func (h *handlers) user(w http.ResponseWriter, r *http.Request) error {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return domain.BadRequest(fmt.Sprintf("invalid user id %q", raw), domain.CodeInvalidRequest)
	}

	p, ok := webapi.PrincipalFromContext(r.Context())
	if !ok {
		return domain.Unauthorized("", domain.CodeUnauthorizedRequest)
	}
	if !p.HasSubject() || p.Subject != strconv.Itoa(id) {
		return domain.Forbidden(fmt.Sprintf("user %d may only be read by its owner", id), domain.CodeForbiddenRequest)
	}

	acct, err := h.accounts.Account(r.Context(), id)
	if err != nil {
		return fmt.Errorf("loading user %d: %w", id, err)
	}
	return writeJSON(w, http.StatusOK, UserResponse{ID: acct.ID, Email: acct.Email})
}

func routeNotFound(w http.ResponseWriter, r *http.Request) error {
	return domain.NotFound(fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path), domain.CodeResourceNotFound)
}

// methodNotAllowed reports a known path with the wrong method. The taxonomy
// has no 405 variant, so it is a bad request.
func methodNotAllowed(w http.ResponseWriter, r *http.Request) error {
	return domain.BadRequest(fmt.Sprintf("method %s not allowed for %s", r.Method, r.URL.Path), domain.CodeInvalidRequest)
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return domain.WrapBadRequest("request body too large", err, domain.CodeInvalidRequest)
		}
		return domain.WrapBadRequest("malformed JSON body", err, domain.CodeInvalidRequest)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}
