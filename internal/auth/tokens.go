package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken indicates a token that failed signature or expiry checks.
var ErrInvalidToken = errors.New("invalid token")

const issuer = "videotube-backend"

// AccessClaims are carried by short-lived access tokens.
type AccessClaims struct {
	UserID   string `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// RefreshClaims are carried by refresh tokens. They identify the user only;
// the stored-token equality check in Manager.Refresh does the rest.
type RefreshClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// SignAccessToken mints a short-lived access token for the user. The secret
// and TTL are explicit so callers cannot accidentally cross the access and
// refresh configurations.
func SignAccessToken(secret []byte, ttl time.Duration, userID, username string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// SignRefreshToken mints a refresh token for the user.
func SignRefreshToken(secret []byte, ttl time.Duration, userID string) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken parses and validates an access token.
func VerifyAccessToken(secret []byte, tokenString string) (AccessClaims, error) {
	var claims AccessClaims
	if err := parseInto(secret, tokenString, &claims); err != nil {
		return AccessClaims{}, err
	}
	if claims.UserID == "" {
		return AccessClaims{}, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefreshToken parses and validates a refresh token, returning the
// user id it was issued to.
func VerifyRefreshToken(secret []byte, tokenString string) (string, error) {
	var claims RefreshClaims
	if err := parseInto(secret, tokenString, &claims); err != nil {
		return "", err
	}
	if claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

func parseInto(secret []byte, tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
