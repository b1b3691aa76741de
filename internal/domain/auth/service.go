package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminDisabled      = errors.New("admin login is not configured")
)

const DefaultSessionTTL = 8 * time.Hour

// Service authenticates the single operator account configured through the
// environment.
type Service struct {
	email        string
	passwordHash string
	secret       string
	ttl          time.Duration
}

func NewService(email, passwordHash, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Service{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: passwordHash,
		secret:       secret,
		ttl:          ttl,
	}
}

func (s *Service) Enabled() bool {
	return s.email != "" && s.passwordHash != "" && s.secret != ""
}

// Login checks the credentials and returns a signed bearer token.
func (s *Service) Login(email, password string) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, ErrAdminDisabled
	}
	email = strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.email)) == 1
	passErr := CheckPassword(s.passwordHash, password)
	if !emailOK || passErr != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}
	token, err := GenerateToken(s.secret, Claims{Email: s.email, Role: RoleAdmin}, s.ttl)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, time.Now().Add(s.ttl), nil
}
