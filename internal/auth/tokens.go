package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type")
)

// Token types. A refresh token presented where an access token is required
// is rejected, and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeVerify  = "verify"
)

// Claims are the JWT claims carried by every token this service issues.
type Claims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is an access/refresh token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenService issues and verifies bearer tokens
type TokenService struct {
	secret        []byte
	issuer        string
	audience      string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	verifyExpiry  time.Duration
}

// NewTokenService creates a new token service
func NewTokenService(secret, issuer, audience string, accessExpiry, refreshExpiry, verifyExpiry time.Duration) *TokenService {
	return &TokenService{
		secret:        []byte(secret),
		issuer:        issuer,
		audience:      audience,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		verifyExpiry:  verifyExpiry,
	}
}

// IssueTokenPair creates a short-lived access token and a longer-lived
// refresh token for the given user.
func (s *TokenService) IssueTokenPair(userID string) (*TokenPair, error) {
	access, err := s.sign(userID, TokenTypeAccess, s.accessExpiry)
	if err != nil {
		return nil, err
	}

	refresh, err := s.sign(userID, TokenTypeRefresh, s.refreshExpiry)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// IssueVerifyToken creates a time-bounded email-verification token
func (s *TokenService) IssueVerifyToken(userID string) (string, error) {
	return s.sign(userID, TokenTypeVerify, s.verifyExpiry)
}

func (s *TokenService) sign(userID, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify validates a token of the expected type and returns the user ID.
func (s *TokenService) Verify(tokenString, wantType string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	if claims.TokenType != wantType {
		return "", ErrWrongTokenType
	}

	return claims.Subject, nil
}
