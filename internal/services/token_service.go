package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrExpiredToken      = errors.New("token is expired")
	ErrInvalidIssuer     = errors.New("invalid issuer")
	ErrInvalidTokenType  = errors.New("invalid token type")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidAuthHeader = errors.New("invalid authorization header format")
)

const bearerPrefix = "bearer "

// TokenService signs and verifies RS256 access and refresh tokens for a ledger owner.
// Every token gets a random JTI so logout can blacklist it and rotated refresh
// tokens issued within the same second still differ.
type TokenService struct {
	cfg    config.JWTConfig
	parser *jwt.Parser
}

func NewTokenService(jwtConfig *config.JWTConfig) TokenServiceInterface {
	return &TokenService{
		cfg: *jwtConfig,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(jwtConfig.Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
	}
}

// GenerateAccessToken issues a short-lived token naming the user and their email.
func (ts *TokenService) GenerateAccessToken(user *models.User) (string, time.Time, error) {
	if user == nil || user.ID == uuid.Nil {
		return "", time.Time{}, errors.New("user is required to issue an access token")
	}

	claims := ts.newClaims(user.ID, models.TokenTypeAccess, ts.cfg.AccessTokenDuration)
	claims.Email = user.Email
	return ts.sign(claims)
}

// GenerateRefreshToken issues the long-lived token exchanged at /users/refresh.
func (ts *TokenService) GenerateRefreshToken(userID uuid.UUID) (string, time.Time, error) {
	if userID == uuid.Nil {
		return "", time.Time{}, errors.New("user ID is required to issue a refresh token")
	}

	return ts.sign(ts.newClaims(userID, models.TokenTypeRefresh, ts.cfg.RefreshTokenDuration))
}

func (ts *TokenService) ValidateAccessToken(tokenString string) (*models.CustomClaims, error) {
	return ts.parse(tokenString, models.TokenTypeAccess)
}

func (ts *TokenService) ValidateRefreshToken(tokenString string) (*models.CustomClaims, error) {
	return ts.parse(tokenString, models.TokenTypeRefresh)
}

// ExtractTokenFromHeader returns the token of a "Bearer <token>" header; the scheme is case-insensitive.
func (ts *TokenService) ExtractTokenFromHeader(authHeader string) (string, error) {
	if len(authHeader) < len(bearerPrefix) || !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return "", ErrInvalidAuthHeader
	}

	token := strings.TrimSpace(authHeader[len(bearerPrefix):])
	if token == "" {
		return "", ErrInvalidAuthHeader
	}
	return token, nil
}

func (ts *TokenService) newClaims(userID uuid.UUID, tokenType string, ttl time.Duration) *models.CustomClaims {
	now := time.Now()
	return &models.CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.cfg.Issuer,
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    userID.String(),
		TokenType: tokenType,
	}
}

func (ts *TokenService) sign(claims *models.CustomClaims) (string, time.Time, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(ts.cfg.PrivateKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", claims.TokenType, err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

func (ts *TokenService) parse(tokenString, expectedType string) (*models.CustomClaims, error) {
	if tokenString == "" {
		return nil, ErrEmptyToken
	}

	claims := &models.CustomClaims{}
	if _, err := ts.parser.ParseWithClaims(tokenString, claims, ts.keyFunc); err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, ErrInvalidIssuer
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	if claims.TokenType != expectedType {
		return nil, ErrInvalidTokenType
	}

	// the owner id is read from user_id everywhere, so it must agree with sub
	if id, err := claims.UserUUID(); err != nil || id.String() != claims.Subject {
		return nil, fmt.Errorf("%w: subject does not name a user", ErrInvalidToken)
	}

	return claims, nil
}

func (ts *TokenService) keyFunc(*jwt.Token) (interface{}, error) {
	return ts.cfg.PublicKey, nil
}
