package services

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"life-os/internal/database"
)

const (
	tokenTypeSession = "session"
	minPasswordLen   = 8
)

type signedPayload struct {
	Exp int64  `json:"exp"`
	Sub string `json:"sub"` // user id
	Typ string `json:"typ,omitempty"`
	N   string `json:"n,omitempty"` // nonce
}

// Session is what signup and login hand back to the caller.
type Session struct {
	Token string         `json:"token"`
	User  *database.User `json:"user"`
}

type AuthService struct {
	users  *database.UserRepo
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewAuthService(users *database.UserRepo, secret []byte, ttl time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

func (as *AuthService) Signup(ctx context.Context, email, password, fullName string) (*Session, error) {
	if !strings.Contains(email, "@") {
		return nil, &database.ValidationError{Field: "email", Reason: "must be an email address"}
	}
	if len(password) < minPasswordLen {
		return nil, &database.ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLen)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := as.users.Create(ctx, email, fullName, string(hash))
	if err != nil {
		return nil, err
	}
	as.logger.Info("user signed up", zap.String("user", user.ID))
	return as.session(user)
}

func (as *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := as.users.GetByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return as.session(user)
}

// IssueToken mints a session token for an existing user.
func (as *AuthService) IssueToken(user *database.User) (string, error) {
	n, err := newNonce()
	if err != nil {
		return "", err
	}
	return signToken(as.secret, signedPayload{
		Typ: tokenTypeSession,
		Sub: user.ID,
		N:   n,
		Exp: as.now().Add(as.ttl).Unix(),
	})
}

// Authenticate resolves a bearer token to its user. Any failure is
// ErrUnauthenticated.
func (as *AuthService) Authenticate(ctx context.Context, token string) (*database.User, error) {
	sp, err := verifyToken(as.secret, token, as.now())
	if err != nil {
		as.logger.Debug("token rejected", zap.Error(err))
		return nil, ErrUnauthenticated
	}
	if sp.Typ != tokenTypeSession {
		return nil, ErrUnauthenticated
	}
	user, err := as.users.Get(ctx, sp.Sub)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (as *AuthService) session(user *database.User) (*Session, error) {
	token, err := as.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

func signToken(secret []byte, payload signedPayload) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	p := base64.RawURLEncoding.EncodeToString(b)
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(p))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return p + "." + sig, nil
}

func verifyToken(secret []byte, token string, now time.Time) (signedPayload, error) {
	p, sig, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok {
		return signedPayload{}, errors.New("invalid token format")
	}

	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(p))
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(mac.Sum(nil), got) {
		return signedPayload{}, errors.New("invalid token signature")
	}

	raw, err := base64.RawURLEncoding.DecodeString(p)
	if err != nil {
		return signedPayload{}, errors.New("invalid token payload")
	}
	var sp signedPayload
	if err := json.Unmarshal(raw, &sp); err != nil {
		return signedPayload{}, errors.New("invalid token payload")
	}
	if sp.Exp == 0 {
		return signedPayload{}, errors.New("token missing exp")
	}
	if now.Unix() > sp.Exp {
		return signedPayload{}, errors.New("token expired")
	}
	if strings.TrimSpace(sp.Sub) == "" {
		return signedPayload{}, errors.New("token missing sub")
	}
	return sp, nil
}

func newNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
