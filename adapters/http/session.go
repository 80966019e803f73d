package http

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/utils/log"
	"go.uber.org/zap"
)

const (
	SessionCookie = "debate_session"
	sessionKey    = "session_id"
	issuer        = "debate-coach"
)

type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Sessions identifies browsers with a signed cookie. The cookie only carries
// the session id; debate state lives in the session store.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
	newID  func() string
}

// NewSessions signs with secret. An empty secret is replaced by a random
// one, so cookies do not survive a restart.
func NewSessions(secret string, ttl time.Duration, secure bool) *Sessions {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Errorf("generating session secret: %w", err))
		}
		log.With().Warn("SESSION_SECRET not set, using a random per-process secret")
	}
	return &Sessions{
		secret: key,
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *Sessions) WithClock(now func() time.Time) *Sessions {
	s.now = now
	return s
}

func (s *Sessions) Issue(sessionID string) (string, error) {
	now := s.now()
	claims := &SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return token, nil
}

func (s *Sessions) Parse(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", errors.New("invalid session claims")
	}
	return claims.SessionID, nil
}

// Middleware resolves the session id from the cookie, issuing a fresh
// session when the cookie is missing, expired or forged.
func (s *Sessions) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()
		if rid := c.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
			ctx = log.ContextWithRequestID(ctx, rid)
		}

		var sessionID string
		if cookie, err := c.Cookie(SessionCookie); err == nil {
			sessionID, err = s.Parse(cookie.Value)
			if err != nil {
				log.WithCtx(ctx).Debug("Discarding session cookie", zap.Error(err))
			}
		}

		if sessionID == "" {
			sessionID = s.newID()
			token, err := s.Issue(sessionID)
			if err != nil {
				return err
			}
			c.SetCookie(&http.Cookie{
				Name:     SessionCookie,
				Value:    token,
				Path:     "/",
				MaxAge:   int(s.ttl / time.Second),
				HttpOnly: true,
				Secure:   s.secure,
				SameSite: http.SameSiteLaxMode,
			})
			log.WithCtx(ctx).Info("New session issued", zap.String("session_id", sessionID))
		}

		c.Set(sessionKey, sessionID)
		c.SetRequest(req.WithContext(log.ContextWithSession(ctx, sessionID)))
		return next(c)
	}
}

// SessionID returns the id stored by Middleware.
func SessionID(c echo.Context) string {
	id, _ := c.Get(sessionKey).(string)
	return id
}
