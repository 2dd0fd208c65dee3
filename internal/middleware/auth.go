package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/opticshop/backend/internal/models"
)

type contextKey string

const AdminIDKey contextKey = "adminID"

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenVerifier turns a bearer token into the id of the admin it was issued to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// JWTVerifier checks HS256 tokens issued by the login endpoint.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	adminID, ok := claims["admin_id"].(string)
	if !ok || adminID == "" {
		return "", ErrInvalidToken
	}
	return adminID, nil
}

// RequireAuth accepts a bearer token that any of the verifiers recognizes.
func RequireAuth(verifiers ...TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Authorization header required"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid authorization header format"))
				return
			}

			for _, v := range verifiers {
				if v == nil {
					continue
				}
				adminID, err := v.Verify(r.Context(), parts[1])
				if err != nil {
					continue
				}
				ctx := context.WithValue(r.Context(), AdminIDKey, adminID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid or expired token"))
		})
	}
}

// JWTAuth is RequireAuth with only the HS256 verifier.
func JWTAuth(jwtSecret string) func(http.Handler) http.Handler {
	return RequireAuth(NewJWTVerifier(jwtSecret))
}

// GetAdminID extracts the authenticated admin from context
func GetAdminID(ctx context.Context) string {
	adminID, ok := ctx.Value(AdminIDKey).(string)
	if !ok {
		return ""
	}
	return adminID
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
