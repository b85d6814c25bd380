package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/splitsub/splitsub/internal/config"
	ierr "github.com/splitsub/splitsub/internal/errors"
)

// TokenKind selects which signing secret a token is issued and validated
// against. Session tokens authenticate normal requests; verify tokens are
// short-lived step-up tokens minted after email verification for the
// sensitive account operations.
type TokenKind string

const (
	TokenKindSession TokenKind = "session"
	TokenKindVerify  TokenKind = "verify"
)

type Claims struct {
	Username string
	Kind     TokenKind
}

// TokenProvider issues and validates the HMAC-signed tokens the API uses.
// The two kinds are signed with distinct secrets so a session token can
// never pass where a step-up token is required.
type TokenProvider struct {
	cfg config.AuthConfig
}

func NewTokenProvider(cfg *config.Configuration) *TokenProvider {
	return &TokenProvider{cfg: cfg.Auth}
}

func (p *TokenProvider) IssueSessionToken(username string) (string, error) {
	ttl := time.Duration(p.cfg.SessionTTLHours) * time.Hour
	return p.issue(username, TokenKindSession, ttl, p.cfg.SessionSecret)
}

func (p *TokenProvider) IssueVerifyToken(username string) (string, error) {
	ttl := time.Duration(p.cfg.VerifyTTLMinutes) * time.Minute
	return p.issue(username, TokenKindVerify, ttl, p.cfg.VerifySecret)
}

func (p *TokenProvider) issue(username string, kind TokenKind, ttl time.Duration, secret string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"username": username,
		"kind":     string(kind),
		"exp":      now.Add(ttl).Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to generate token").
			Mark(ierr.ErrSystem)
	}
	return signed, nil
}

func (p *TokenProvider) ValidateSessionToken(token string) (*Claims, error) {
	return p.validate(token, TokenKindSession, p.cfg.SessionSecret)
}

func (p *TokenProvider) ValidateVerifyToken(token string) (*Claims, error) {
	return p.validate(token, TokenKindVerify, p.cfg.VerifySecret)
}

func (p *TokenProvider) validate(token string, kind TokenKind, secret string) (*Claims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithHint(fmt.Sprintf("unexpected signing method: %v", token.Header["alg"])).
				Mark(ierr.ErrPermissionDenied)
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Token parse error").
			Mark(ierr.ErrPermissionDenied)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid token claims").
			Mark(ierr.ErrPermissionDenied)
	}

	username, usernameOk := claims["username"].(string)
	if !usernameOk || username == "" {
		return nil, ierr.NewError("token missing username").
			WithHint("Token missing username").
			Mark(ierr.ErrPermissionDenied)
	}

	tokenKind, _ := claims["kind"].(string)
	if TokenKind(tokenKind) != kind {
		return nil, ierr.NewError("wrong token kind").
			WithHint("This token cannot be used for this operation").
			Mark(ierr.ErrPermissionDenied)
	}

	return &Claims{Username: username, Kind: kind}, nil
}
