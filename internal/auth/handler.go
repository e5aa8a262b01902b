package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
)

const minPasswordLen = 6

// UserStore defines the interface for user persistence.
type UserStore interface {
	// CreateUserWithProfile inserts the account and its profile row in one
	// transaction. u.Password holds the bcrypt hash.
	CreateUserWithProfile(ctx context.Context, u *models.User, p *models.Profile) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ConfirmEmail(ctx context.Context, userID string) error
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users               UserStore
	sessions            Sessions
	resolver            *Resolver
	tokens              *TokenIssuer
	log                 *zap.Logger
	requireConfirmation bool
}

func NewHandler(users UserStore, sessions Sessions, tokens *TokenIssuer, log *zap.Logger, requireConfirmation bool) *Handler {
	return &Handler{
		users:               users,
		sessions:            sessions,
		resolver:            NewResolver(sessions, tokens),
		tokens:              tokens,
		log:                 log,
		requireConfirmation: requireConfirmation,
	}
}

// Resolver exposes the request session lookup to the middleware.
func (h *Handler) Resolver() *Resolver { return h.resolver }

// SignUp creates the account and its profile. When email confirmation is
// required no session is started and a confirmation token is issued instead.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body","kind":"validation"}`, http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validateSignUp(req); err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.log.Error("password hash failed", zap.Error(err))
		apperr.WriteJSON(w, apperr.Wrap(apperr.Internal, "auth.SignUp", err))
		return
	}

	fullName := strings.TrimSpace(req.FullName)
	profile := &models.Profile{FullName: &fullName}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		profile.PhoneNumber = &phone
	}
	user, err := h.users.CreateUserWithProfile(r.Context(), &models.User{
		Email:          req.Email,
		Password:       string(hashed),
		EmailConfirmed: !h.requireConfirmation,
	}, profile)
	if err != nil {
		h.log.Info("sign-up failed", zap.String("email", req.Email), zap.Error(err))
		apperr.WriteJSON(w, err)
		return
	}

	resp := models.SignUpResponse{User: user}
	if h.requireConfirmation {
		token, err := h.sessions.CreateConfirmation(r.Context(), user.ID)
		if err != nil {
			apperr.WriteJSON(w, err)
			return
		}
		// Mail delivery is not wired; the link is logged for operators.
		h.log.Info("confirmation issued",
			zap.String("user_id", user.ID),
			zap.String("path", "/api/auth/confirm/"+token))
		resp.NeedsConfirmation = true
	} else {
		sid, access, err := h.startSession(w, r, user.ID)
		if err != nil {
			apperr.WriteJSON(w, err)
			return
		}
		h.log.Info("user signed up", zap.String("user_id", user.ID), zap.String("session", shortID(sid)))
		resp.AccessToken = access
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

func validateSignUp(req models.SignUpRequest) error {
	if req.Email == "" {
		return &apperr.Error{Kind: apperr.Validation, Op: "auth.SignUp", Field: "email", Message: "email is required"}
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return &apperr.Error{Kind: apperr.Validation, Op: "auth.SignUp", Field: "email", Message: "email is invalid"}
	}
	if len(req.Password) < minPasswordLen {
		return &apperr.Error{Kind: apperr.Validation, Op: "auth.SignUp", Field: "password", Message: "password must be at least 6 characters"}
	}
	if strings.TrimSpace(req.FullName) == "" {
		return &apperr.Error{Kind: apperr.Validation, Op: "auth.SignUp", Field: "full_name", Message: "please enter your full name"}
	}
	return nil
}

// SignIn authenticates a user and creates a session.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body","kind":"validation"}`, http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil && apperr.KindOf(err) != apperr.NotFound {
		apperr.WriteJSON(w, err)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		apperr.WriteJSON(w, apperr.New(apperr.Auth, "auth.SignIn", "invalid login credentials"))
		return
	}
	if !user.EmailConfirmed {
		apperr.WriteJSON(w, apperr.New(apperr.Auth, "auth.SignIn", "email not confirmed"))
		return
	}

	_, access, err := h.startSession(w, r, user.ID)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.SessionResponse{User: user, AccessToken: access})
}

// SignOut destroys the current session. It succeeds without a session.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if sid, err := h.resolver.SessionID(r); err == nil && sid != "" {
		if err := h.sessions.Delete(r.Context(), sid); err != nil {
			apperr.WriteJSON(w, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"message":"signed out"}`))
}

// Session returns the user of the current session, or a null user.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	resp := models.SessionResponse{}
	userID, _, err := h.resolver.Resolve(r)
	if !IsAnonymous(err) {
		apperr.WriteJSON(w, err)
		return
	}
	if userID != "" {
		user, err := h.users.GetUserByID(r.Context(), userID)
		switch {
		case err == nil:
			resp.User = user
		case apperr.KindOf(err) != apperr.NotFound:
			apperr.WriteJSON(w, err)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Confirm marks the email of a pending account as confirmed.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, err := h.sessions.ConsumeConfirmation(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}
	if err := h.users.ConfirmEmail(r.Context(), userID); err != nil {
		apperr.WriteJSON(w, err)
		return
	}
	h.log.Info("email confirmed", zap.String("user_id", userID))

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"message":"email confirmed"}`))
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, userID string) (sid, access string, err error) {
	sid, err = h.sessions.Create(r.Context(), userID)
	if err != nil {
		return "", "", err
	}
	access, err = h.tokens.Issue(userID, sid)
	if err != nil {
		return "", "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionTTL / time.Second),
	})
	return sid, access, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
