package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "studymate"

// Claims is the payload inside every session token.
//
// Login and register issue a token carrying these fields. The middleware
// reads them back on each request, which is how handlers know the caller
// without a store lookup.
//
// Embedding jwt.RegisteredClaims brings the standard exp, iat, iss and sub
// fields along, so the library validates expiry and issuer for us and any
// JWT debugger can read the token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for the user, valid for ttl.
//
// Why HS256?
//   - One shared secret (JWT_SECRET); no key pair to distribute.
//   - The same process issues and verifies every token. If another
//     service ever needed to verify without being able to issue, RS256
//     with the private key kept here would be the move.
func GenerateToken(userID, username, secret string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			// Subject duplicates UserID for tools that only read sub.
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ParseToken verifies a token and returns its claims.
//
// jwt.ParseWithClaims does the heavy lifting in order: decode the header,
// ask the key func for the key (which is where the algorithm is pinned),
// check the signature, then validate exp and, via WithIssuer, iss. Any
// failure comes back wrapped; callers only need to know it was rejected.
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			// Only HMAC. Rejects "none" and RSA/HMAC key confusion.
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user")
	}

	return claims, nil
}
