// Package auth verifies the optional HS256 bearer tokens that guard the API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"vidstego/models"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

var (
	ErrInvalidToken     = errors.New("invalid token format")
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrInvalidIssuer    = errors.New("invalid issuer")
	ErrNoKey            = errors.New("no verification key provided")
)

// VerifyConfig holds verification settings.
type VerifyConfig struct {
	SecretKey      []byte
	ExpectedIssuer string        // skipped when empty
	ClockSkew      time.Duration // tolerance applied to exp and iat
}

// Verify checks the signature and time claims of tokenString.
func Verify(tokenString string, cfg VerifyConfig) (*models.Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	if len(cfg.SecretKey) == 0 {
		return nil, ErrNoKey
	}

	tok, err := jwt.ParseSigned(tokenString, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := &models.Claims{}
	if err := tok.Claims(cfg.SecretKey, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	now := time.Now().Unix()
	skew := int64(cfg.ClockSkew.Seconds())
	if claims.ExpiresAt > 0 && claims.ExpiresAt < now-skew {
		return nil, ErrTokenExpired
	}
	if claims.IssuedAt > 0 && claims.IssuedAt > now+skew {
		return nil, ErrTokenNotYetValid
	}
	if cfg.ExpectedIssuer != "" && claims.Issuer != cfg.ExpectedIssuer {
		return nil, fmt.Errorf("%w: expected '%s', got '%s'", ErrInvalidIssuer, cfg.ExpectedIssuer, claims.Issuer)
	}
	return claims, nil
}

// CreateToken signs claims with secret. Used by operators and tests to mint
// tokens for a configured deployment.
func CreateToken(claims *models.Claims, secret []byte) (string, error) {
	if claims == nil {
		return "", errors.New("claims cannot be nil")
	}
	if len(secret) == 0 {
		return "", ErrNoKey
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: secret}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create signer: %w", err)
	}
	token, err := jwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("failed to create JWT: %w", err)
	}
	return token, nil
}
