package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fletcher-oaas/fletcher/internal/domain"
)

const (
	issuer   = "Fletcher"
	tokenTTL = time.Hour
)

// Login is the caller-supplied shape of a service account's credentials.
type Login struct {
	Service string `json:"service"`
	Key     string `json:"key"`
}

// Authenticated is the bearer token handed back on a successful login.
type Authenticated struct {
	AccessToken string        `json:"access_token"`
	Issued      int64         `json:"issued"`
	IssuedBy    string        `json:"issued_by"`
	Expires     int64         `json:"expires"`
	Roles       []domain.Role `json:"roles"`
	Service     string        `json:"service"`
	TokenType   string        `json:"token_type"`
	TTL         int64         `json:"ttl"`
}

// claims is the JWT payload: which service this token speaks for and
// which roles it carries, on top of the standard registered claims.
type claims struct {
	Roles []domain.Role `json:"roles"`
	jwt.RegisteredClaims
}

// Authorization is what a verified bearer token proves: which service
// made the request and which roles it may exercise.
type Authorization struct {
	Service string
	Roles   []domain.Role
}

// HasRole reports whether a carries role.
func (a Authorization) HasRole(role domain.Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}

	return false
}

// RequireRole returns a RoleError if a does not carry role.
func (a Authorization) RequireRole(role domain.Role) error {
	if a.HasRole(role) {
		return nil
	}

	return &RoleError{Service: a.Service, Role: role}
}

// Service authenticates service-account logins and verifies the bearer
// tokens it issues.
type Service struct {
	config     *Config
	signingKey []byte
}

// NewService builds a Service backed by config and signed with key.
func NewService(config *Config, signingKey []byte) *Service {
	return &Service{config: config, signingKey: signingKey}
}

// Authenticate verifies a login's key against the remote-auth table and,
// on success, mints a one-hour bearer token carrying the service's roles.
func (s *Service) Authenticate(login Login) (Authenticated, error) {
	remote, ok := s.config.find(login.Service)
	if !ok {
		return Authenticated{}, &InvalidServiceError{Service: login.Service}
	}

	if !verifyKey(remote.Hash, login.Key) {
		return Authenticated{}, &InvalidKeyError{}
	}

	issued := time.Now().Truncate(time.Second)
	expires := issued.Add(tokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Roles: remote.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   remote.Service,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return Authenticated{}, fmt.Errorf("sign token: %w", err)
	}

	return Authenticated{
		AccessToken: signed,
		Issued:      issued.Unix(),
		IssuedBy:    issuer,
		Expires:     expires.Unix(),
		Roles:       remote.Roles,
		Service:     remote.Service,
		TokenType:   "Bearer",
		TTL:         int64(tokenTTL.Seconds()),
	}, nil
}

// Verify parses and validates a bearer token, then confirms the service
// it names is still present in the remote-auth table. A revoked service
// account's outstanding tokens are rejected even before they expire.
func (s *Service) Verify(tokenString string) (Authorization, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return s.signingKey, nil
	})
	if err != nil {
		return Authorization{}, &TokenError{cause: err}
	}

	parsed, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Authorization{}, &TokenError{cause: fmt.Errorf("malformed token claims")}
	}

	if _, ok := s.config.find(parsed.Subject); !ok {
		return Authorization{}, &InvalidServiceError{Service: parsed.Subject}
	}

	return Authorization{Service: parsed.Subject, Roles: parsed.Roles}, nil
}
