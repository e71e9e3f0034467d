package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hoangnm/techshop/internal/log"
)

// User is the projection of the authenticated account this module reads.
// Account management itself belongs to the backend.
type User struct {
	ID     uuid.UUID `json:"id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Points int64     `json:"points"`
}

type claims struct {
	jwt.RegisteredClaims
	Email  string `json:"email"`
	Name   string `json:"name"`
	Points int64  `json:"points"`
}

// Session holds the bearer token handed over by the auth collaborator and
// the user projection parsed from it. The token is issued and verified by
// the backend; the client only reads its claims.
type Session struct {
	mu    sync.RWMutex
	token string
	user  *User
	exp   time.Time
}

func New() *Session {
	return &Session{}
}

func (s *Session) SetToken(c context.Context, raw string) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session SetToken").
		Str(log.KeyProcess, "parsing claims").
		Logger()

	logger.Info().Msg("parsing claims")
	parsed := claims{}
	_, _, err := jwt.NewParser().ParseUnverified(raw, &parsed)
	if err != nil {
		err = fmt.Errorf("failed parsing token claims with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	userId, err := uuid.Parse(parsed.Subject)
	if err != nil {
		err = fmt.Errorf("failed parsing token subject with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger = logger.With().
		Str(log.KeyUserID, userId.String()).
		Str(log.KeyEmail, parsed.Email).
		Logger()
	logger.Info().Msg("parsed claims")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = raw
	s.user = &User{
		ID:     userId,
		Email:  parsed.Email,
		Name:   parsed.Name,
		Points: parsed.Points,
	}
	if parsed.ExpiresAt != nil {
		s.exp = parsed.ExpiresAt.Time
	} else {
		s.exp = time.Time{}
	}
	return nil
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.exp = time.Time{}
}

// Token implements api.TokenSource. An expired token reads as absent.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.expired() {
		return ""
	}
	return s.token
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil && !s.expired()
}

func (s *Session) CurrentUser() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil || s.expired() {
		return User{}, false
	}
	return *s.user, true
}

// SetPoints refreshes the loyalty-point balance from a fresher backend
// projection than the token claims.
func (s *Session) SetPoints(points int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		s.user.Points = points
	}
}

func (s *Session) expired() bool {
	return !s.exp.IsZero() && time.Now().After(s.exp)
}
