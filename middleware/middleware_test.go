package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"puja-booking-server/metrics"
	"puja-booking-server/models"
	"puja-booking-server/types"
	"puja-booking-server/utils"
)

const testSecret = "middleware-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeLoader struct {
	accounts map[types.Role]map[uint]models.Account
}

func (f *fakeLoader) LoadAccount(_ context.Context, role types.Role, id uint) (models.Account, error) {
	if a, ok := f.accounts[role][id]; ok {
		return a, nil
	}
	return nil, types.ErrInvalidCredentials
}

func newLoader() *fakeLoader {
	return &fakeLoader{accounts: map[types.Role]map[uint]models.Account{
		types.RoleAdmin:  {1: &models.Admin{ID: 1, Name: "Root", IsActive: true}},
		types.RoleClient: {5: &models.Client{ID: 5, Name: "Meera", IsActive: true}, 6: &models.Client{ID: 6, Name: "Off"}},
	}}
}

func token(t *testing.T, id uint, role types.Role) string {
	t.Helper()
	tok, err := utils.GenerateToken(testSecret, "test", time.Hour, id, role)
	require.NoError(t, err)
	return tok
}

func authRouter(roles ...types.Role) *gin.Engine {
	r := gin.New()
	r.GET("/me", RequireAuth(testSecret, newLoader(), roles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": SubjectID(c), "role": RoleOf(c), "name": AccountOf(c).AccountName()})
	})
	return r
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Code
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name   string
		roles  []types.Role
		setup  func(*http.Request)
		status int
		code   string
	}{
		{"missing token", nil, func(*http.Request) {}, http.StatusUnauthorized, "AUTH_REQUIRED"},
		{"garbage bearer", nil, func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"header without scheme", nil, func(r *http.Request) { r.Header.Set("Authorization", token(t, 5, types.RoleClient)) }, http.StatusUnauthorized, "AUTH_REQUIRED"},
		{"unknown subject", nil, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token(t, 99, types.RoleClient)) }, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"inactive account", nil, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token(t, 6, types.RoleClient)) }, http.StatusForbidden, "ACCOUNT_INACTIVE"},
		{"wrong role", []types.Role{types.RoleAdmin}, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token(t, 5, types.RoleClient)) }, http.StatusForbidden, "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			authRouter(tt.roles...).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestRequireAuthAcceptsCookieAndBearer(t *testing.T) {
	r := authRouter(types.RoleClient, types.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token(t, 5, types.RoleClient)})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":5,"role":"client","name":"Meera"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, 1, types.RoleAdmin))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)
}

func TestRequireAuthRejectsForeignSecret(t *testing.T) {
	tok, err := utils.GenerateToken("other-secret", "test", time.Hour, 1, types.RoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	authRouter().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type fixedGate bool

func (g fixedGate) IsLive() bool { return bool(g) }

func TestLaunchGate(t *testing.T) {
	build := func(live bool) *gin.Engine {
		r := gin.New()
		r.POST("/bookings", RequireAuth(testSecret, newLoader()), LaunchGate(fixedGate(live)), func(c *gin.Context) {
			c.Status(http.StatusCreated)
		})
		return r
	}
	do := func(r *gin.Engine, tok string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do(build(false), token(t, 5, types.RoleClient))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "NOT_LIVE", errorCode(t, w))

	assert.Equal(t, http.StatusCreated, do(build(false), token(t, 1, types.RoleAdmin)).Code)
	assert.Equal(t, http.StatusCreated, do(build(true), token(t, 5, types.RoleClient)).Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 2)
	r := gin.New()
	r.GET("/ping", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	assert.Equal(t, 0, rl.Cleanup(time.Hour))
	assert.Equal(t, 1, rl.Cleanup(0))
}

func TestInputValidation(t *testing.T) {
	r := gin.New()
	r.Use(InputValidation())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// empty action posts such as /complete carry no body
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(metrics.New()), SecurityHeaders())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCORSAllowsCredentialedOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
