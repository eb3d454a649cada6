package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_jwt_secret_32_chars_minimum!"

func signToken(t *testing.T, secret, userID, rol, typ string, dur time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID, "username": "testuser", "nombre": "Test User", "rol": rol, "typ": typ,
		"exp": time.Now().Add(dur).Unix(), "iat": time.Now().Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func protectedRouter(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/", JWTAuth(testSecret))
	if len(roles) > 0 {
		g.Use(RequireRole(roles...))
	}
	g.GET("/protected", func(c *gin.Context) {
		claims := GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID, "rol": claims.Rol, "nombre": claims.Nombre})
	})
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth_ValidAccessToken(t *testing.T) {
	uid := uuid.NewString()
	w := get(protectedRouter(), signToken(t, testSecret, uid, RolColaborador, "access", time.Hour))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), uid)
	assert.Contains(t, w.Body.String(), "Test User")
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, get(protectedRouter(), "").Code)
}

func TestJWTAuth_Expired(t *testing.T) {
	tok := signToken(t, testSecret, uuid.NewString(), RolColaborador, "access", -time.Minute)
	assert.Equal(t, http.StatusUnauthorized, get(protectedRouter(), tok).Code)
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	tok := signToken(t, "otro-secreto", uuid.NewString(), RolColaborador, "access", time.Hour)
	assert.Equal(t, http.StatusUnauthorized, get(protectedRouter(), tok).Code)
}

func TestJWTAuth_RejectsRefreshToken(t *testing.T) {
	tok := signToken(t, testSecret, uuid.NewString(), RolAdministrador, "refresh", time.Hour)
	assert.Equal(t, http.StatusUnauthorized, get(protectedRouter(), tok).Code)
}

func TestRequireRole(t *testing.T) {
	r := protectedRouter(RolAdministrador, RolSupervisor)

	assert.Equal(t, http.StatusOK, get(r, signToken(t, testSecret, uuid.NewString(), RolSupervisor, "access", time.Hour)).Code)
	assert.Equal(t, http.StatusForbidden, get(r, signToken(t, testSecret, uuid.NewString(), RolColaborador, "access", time.Hour)).Code)
}

func TestJWTClaims_UsuarioID(t *testing.T) {
	id := uuid.New()
	c := &JWTClaims{UserID: id.String()}
	require.NotNil(t, c.UsuarioID())
	assert.Equal(t, id, *c.UsuarioID())
	assert.Nil(t, (&JWTClaims{UserID: "x"}).UsuarioID())
}
