package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/plantdoctor/identity/internal/config"
)

var ErrInvalidVerificationToken = errors.New("invalid verification token")

// TokenManager issues the short-lived tokens that bind a verified OTP to the
// signup that follows it. profile is the canonical form of the registration
// the code was verified for; the token carries only a keyed digest of it.
type TokenManager interface {
	NewVerificationToken(mobile string, profile string) (*VerificationToken, error)
	ParseVerificationToken(token string) (*VerificationToken, error)
	MatchProfile(token *VerificationToken, profile string) bool
}

type VerificationToken struct {
	Token         string
	ID            string
	Mobile        string
	ProfileDigest string
	ExpiresAt     time.Time
}

type verificationClaims struct {
	jwt.RegisteredClaims
	Profile string `json:"pfd"`
}

type Manager struct {
	signingKey string
	ttl        time.Duration
	now        func() time.Time
}

func NewManager(cfg config.JWTConfig) (*Manager, error) {
	if cfg.SigningKey == "" {
		return nil, errors.New("empty signing key")
	}

	if cfg.VerificationTokenTTL == 0 {
		return nil, errors.New("empty verification token ttl")
	}

	return &Manager{
		signingKey: cfg.SigningKey,
		ttl:        cfg.VerificationTokenTTL,
		now:        time.Now,
	}, nil
}

func (m *Manager) NewVerificationToken(mobile string, profile string) (*VerificationToken, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("new verification token id failed: %w", err)
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)
	digest := m.profileDigest(profile)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, verificationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.String(),
			Subject:   mobile,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Profile: digest,
	})

	signed, err := token.SignedString([]byte(m.signingKey))
	if err != nil {
		return nil, errors.New("sign jwt failed")
	}

	return &VerificationToken{
		Token:         signed,
		ID:            id.String(),
		Mobile:        mobile,
		ProfileDigest: digest,
		ExpiresAt:     expiresAt,
	}, nil
}

func (m *Manager) ParseVerificationToken(token string) (*VerificationToken, error) {
	var claims verificationClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(token *jwt.Token) (i interface{}, err error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return []byte(m.signingKey), nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVerificationToken, err)
	}

	if claims.Subject == "" || claims.ID == "" || claims.Profile == "" {
		return nil, ErrInvalidVerificationToken
	}

	vt := &VerificationToken{Token: token, ID: claims.ID, Mobile: claims.Subject, ProfileDigest: claims.Profile}
	if claims.ExpiresAt != nil {
		vt.ExpiresAt = claims.ExpiresAt.Time
	}

	return vt, nil
}

func (m *Manager) MatchProfile(token *VerificationToken, profile string) bool {
	if token == nil {
		return false
	}

	return hmac.Equal([]byte(token.ProfileDigest), []byte(m.profileDigest(profile)))
}

// profileDigest is keyed so the short PIN inside profile cannot be recovered
// from a leaked token.
func (m *Manager) profileDigest(profile string) string {
	mac := hmac.New(sha256.New, []byte(m.signingKey))
	mac.Write([]byte(profile))
	return hex.EncodeToString(mac.Sum(nil))
}
