package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
)

// ErrNotAdmin is returned when a request lacks a valid admin session token.
var ErrNotAdmin = errors.New("admin session required")

const adminTokenTTL = 1 * time.Hour

// Admin verifies the admin password and issues short-lived session tokens.
// Permanent deletes require one of these tokens; no other operation does.
type Admin struct {
	password  string
	jwtSecret string
}

// NewAdmin creates a new Admin verifier.
func NewAdmin(password, jwtSecret string) *Admin {
	return &Admin{password: password, jwtSecret: jwtSecret}
}

// Login checks the password and returns a signed session token.
func (a *Admin) Login(password string) (string, error) {
	if a.password == "" {
		return "", fmt.Errorf("admin password is not configured")
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) != 1 {
		return "", ErrNotAdmin
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "admin",
		"role": "admin",
		"exp":  time.Now().Add(adminTokenTTL).Unix(),
	})
	return token.SignedString([]byte(a.jwtSecret))
}

// VerifyRequest checks the Bearer token of an API Gateway request for a
// valid admin session.
func (a *Admin) VerifyRequest(req events.APIGatewayProxyRequest) error {
	tokenString := bearerToken(req)
	if tokenString == "" {
		return ErrNotAdmin
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return ErrNotAdmin
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ErrNotAdmin
	}
	if role, _ := claims["role"].(string); role != "admin" {
		return ErrNotAdmin
	}
	return nil
}

// bearerToken extracts the Bearer token from the Authorization header,
// case-insensitively on the header name.
func bearerToken(req events.APIGatewayProxyRequest) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, "Authorization") && strings.HasPrefix(v, "Bearer ") {
			return strings.TrimPrefix(v, "Bearer ")
		}
	}
	return ""
}
