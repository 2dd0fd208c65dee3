package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

type fakeIDTokens struct {
	tokens map[string]*fbauth.Token
}

func (f fakeIDTokens) VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error) {
	if tok, ok := f.tokens[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("unknown token")
}

func TestRequireAuth(t *testing.T) {
	valid := signToken(t, testSecret, jwt.MapClaims{
		"admin_id": "admin-1",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	expired := signToken(t, testSecret, jwt.MapClaims{
		"admin_id": "admin-1",
		"exp":      time.Now().Add(-time.Hour).Unix(),
	})
	wrongSecret := signToken(t, "other", jwt.MapClaims{"admin_id": "admin-1"})
	noSubject := signToken(t, testSecret, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})

	firebase := &FirebaseVerifier{client: fakeIDTokens{tokens: map[string]*fbauth.Token{
		"fb-admin": {UID: "uid-9", Claims: map[string]interface{}{"admin": true}},
		"fb-user":  {UID: "uid-10", Claims: map[string]interface{}{}},
	}}}

	handler := RequireAuth(NewJWTVerifier(testSecret), firebase)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetAdminID(r.Context())))
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"bad scheme", "Token " + valid, http.StatusUnauthorized, ""},
		{"valid jwt", "Bearer " + valid, http.StatusOK, "admin-1"},
		{"expired jwt", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + wrongSecret, http.StatusUnauthorized, ""},
		{"no admin id", "Bearer " + noSubject, http.StatusUnauthorized, ""},
		{"firebase admin", "Bearer fb-admin", http.StatusOK, "uid-9"},
		{"firebase non-admin", "Bearer fb-user", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestGetAdminIDEmpty(t *testing.T) {
	if got := GetAdminID(context.Background()); got != "" {
		t.Errorf("GetAdminID() = %q, want empty", got)
	}
}
