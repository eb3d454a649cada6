package handler

import (
	"context"
	"net/http"
	"testing"

	"obraspm/internal/dto"
	"obraspm/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeAuthService struct{}

var _ service.AuthService = fakeAuthService{}

func (fakeAuthService) Login(_ context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if req.Password != "correcta" {
		return nil, service.ErrCredencialesInvalidas
	}
	return &dto.LoginResponse{AccessToken: "a", RefreshToken: "r", TokenType: "bearer"}, nil
}

func (fakeAuthService) Refresh(context.Context, string) (*dto.LoginResponse, error) {
	return nil, service.ErrTokenInvalido
}

func (fakeAuthService) CrearUsuario(_ context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	return &dto.UsuarioResponse{Username: req.Username, Rol: req.Rol, Activo: true}, nil
}

func (fakeAuthService) ListarUsuarios(context.Context, bool) ([]dto.UsuarioResponse, error) {
	return []dto.UsuarioResponse{}, nil
}

func (fakeAuthService) DesactivarUsuario(context.Context, uuid.UUID) error {
	return service.ErrUsuarioNoEncontrado
}

func (fakeAuthService) ReactivarUsuario(context.Context, uuid.UUID) error { return nil }

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	authH := NewAuthHandler(fakeAuthService{})
	usrH := NewUsuariosHandler(fakeAuthService{})
	r.POST("/login", authH.Login)
	r.POST("/refresh", authH.Refresh)
	r.POST("/usuarios", usrH.Crear)
	r.DELETE("/usuarios/:id", usrH.Desactivar)
	r.PATCH("/usuarios/:id/reactivar", usrH.Reactivar)
	return r
}

func TestLogin_OK(t *testing.T) {
	w := doJSON(authRouter(), http.MethodPost, "/login", `{"username":"jperez","password":"correcta"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token_type":"bearer"`)
}

func TestLogin_Unauthorized(t *testing.T) {
	w := doJSON(authRouter(), http.MethodPost, "/login", `{"username":"jperez","password":"incorrecta"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_MissingFields(t *testing.T) {
	w := doJSON(authRouter(), http.MethodPost, "/login", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRefresh_Unauthorized(t *testing.T) {
	w := doJSON(authRouter(), http.MethodPost, "/refresh", `{"refresh_token":"x.y.z"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCrearUsuario_RolInvalido(t *testing.T) {
	w := doJSON(authRouter(), http.MethodPost, "/usuarios",
		`{"username":"mrios","nombre":"María Ríos","password":"12345678","rol":"gerente"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"rol":"oneof"`)
}

func TestDesactivarUsuario_NotFound(t *testing.T) {
	w := doJSON(authRouter(), http.MethodDelete, "/usuarios/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReactivarUsuario_NoContent(t *testing.T) {
	w := doJSON(authRouter(), http.MethodPatch, "/usuarios/"+uuid.NewString()+"/reactivar", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}
