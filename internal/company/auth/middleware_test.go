package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validSecret   = "test-secret"
	invalidSecret = "wrong-secret"
	userID        = "test-user"
)

func signToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": expiresAt.Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		method     string
		header     string
		wantStatus int
		wantSub    string
	}{
		{
			name:       "protected method valid token",
			secret:     validSecret,
			method:     http.MethodPost,
			header:     "Bearer " + signToken(t, validSecret, time.Now().Add(time.Hour)),
			wantStatus: http.StatusOK,
			wantSub:    userID,
		},
		{
			name:       "protected method invalid signature",
			secret:     validSecret,
			method:     http.MethodPatch,
			header:     "Bearer " + signToken(t, invalidSecret, time.Now().Add(time.Hour)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "protected method expired token",
			secret:     validSecret,
			method:     http.MethodDelete,
			header:     "Bearer " + signToken(t, validSecret, time.Now().Add(-time.Hour)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "protected method missing header",
			secret:     validSecret,
			method:     http.MethodPost,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "reads are public",
			secret:     validSecret,
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
		},
		{
			name:       "no secret disables auth",
			method:     http.MethodDelete,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			var sub string
			handler := Middleware(tt.secret)(func(c echo.Context) error {
				sub = Subject(c)
				return c.NoContent(http.StatusOK)
			})

			req := httptest.NewRequest(tt.method, "/companies", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()

			err := handler(e.NewContext(req, rec))
			if tt.wantStatus == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, rec.Code)
				assert.Equal(t, tt.wantSub, sub)
				return
			}

			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, tt.wantStatus, he.Code)
		})
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantErr   bool
	}{
		{name: "valid", header: "Bearer valid-token", wantToken: "valid-token"},
		{name: "missing", wantErr: true},
		{name: "wrong scheme", header: "Basic dXNlcg==", wantErr: true},
		{name: "empty token", header: "Bearer ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/companies", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}

			token, err := extractTokenFromHeader(req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(userID, validSecret)
	require.NoError(t, err)

	claims, err := validateToken(token, validSecret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims["sub"])
	assert.Equal(t, issuer, claims["iss"])

	_, err = validateToken(token, invalidSecret)
	assert.Error(t, err)

	_, err = validateToken("invalid.token.string", validSecret)
	assert.Error(t, err)
}
