package service

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/open-sams/sams-api/internal/models"
	"github.com/open-sams/sams-api/pkg/config"
	appErrors "github.com/open-sams/sams-api/pkg/errors"
)

// TokenService validates bearer tokens issued by the identity provider.
// Token issuance lives outside this API.
type TokenService struct {
	secret    []byte
	issuer    string
	audiences []string
}

// NewTokenService constructs the service from JWT config.
func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{
		secret:    []byte(cfg.Secret),
		issuer:    cfg.Issuer,
		audiences: cfg.Audience,
	}
}

// ValidateToken parses and verifies a signed token, returning its claims.
func (s *TokenService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.issuer))
	}
	if len(s.audiences) > 0 {
		parserOpts = append(parserOpts, jwt.WithAudience(s.audiences[0]))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, parserOpts...)
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	if strings.TrimSpace(claims.UserID) == "" || !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token is missing required claims")
	}
	return claims, nil
}
