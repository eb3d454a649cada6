package service

import (
	"context"
	"testing"

	"obraspm/internal/dto"
	"obraspm/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProyecto_CrearCodigoDuplicado(t *testing.T) {
	repo := newStubProyectoRepo()
	seedProyecto(repo)
	svc := NewProyectoService(repo, newStubUsuarioRepo())

	_, err := svc.Crear(context.Background(), dto.CrearProyectoRequest{Codigo: "obr-01", Nombre: "Otro"})
	assert.ErrorIs(t, err, ErrCodigoDuplicado)

	resp, err := svc.Crear(context.Background(), dto.CrearProyectoRequest{Codigo: "OBR-02", Nombre: "Casa Boquete"})
	require.NoError(t, err)
	assert.True(t, resp.Activo)
}

func TestProyecto_AgregarMiembroInterno(t *testing.T) {
	repo := newStubProyectoRepo()
	pid, _ := seedProyecto(repo)
	usuarios := newStubUsuarioRepo()
	email := "mrios@obra.pa"
	u := &model.Usuario{ID: uuid.New(), Username: "mrios", Nombre: "María Ríos", Email: &email, Rol: "supervisor", Activo: true}
	usuarios.users[u.Username] = u
	svc := NewProyectoService(repo, usuarios)
	uid := u.ID.String()

	m, err := svc.AgregarMiembro(context.Background(), pid, dto.CrearMiembroRequest{UsuarioID: &uid})

	require.NoError(t, err)
	assert.Equal(t, model.MiembroInterno, m.Tipo)
	assert.Equal(t, "María Ríos", m.Nombre)
	require.NotNil(t, m.Email)
	assert.Equal(t, email, *m.Email)

	_, err = svc.AgregarMiembro(context.Background(), pid, dto.CrearMiembroRequest{UsuarioID: &uid})
	assert.ErrorIs(t, err, ErrMiembroDuplicado)
}

func TestProyecto_AgregarMiembroExterno(t *testing.T) {
	repo := newStubProyectoRepo()
	pid, _ := seedProyecto(repo)
	svc := NewProyectoService(repo, newStubUsuarioRepo())

	_, err := svc.AgregarMiembro(context.Background(), pid, dto.CrearMiembroRequest{Nombre: "  "})
	assert.ErrorIs(t, err, ErrMiembroSinNombre)

	m, err := svc.AgregarMiembro(context.Background(), pid, dto.CrearMiembroRequest{Nombre: "Carlos Díaz"})
	require.NoError(t, err)
	assert.Equal(t, model.MiembroExterno, m.Tipo)

	list, err := svc.ListarMiembros(context.Background(), pid)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestProyecto_AgregarMiembroUsuarioInexistente(t *testing.T) {
	repo := newStubProyectoRepo()
	pid, _ := seedProyecto(repo)
	svc := NewProyectoService(repo, newStubUsuarioRepo())
	uid := uuid.NewString()

	_, err := svc.AgregarMiembro(context.Background(), pid, dto.CrearMiembroRequest{UsuarioID: &uid})
	assert.ErrorIs(t, err, ErrUsuarioNoEncontrado)

	_, err = svc.AgregarMiembro(context.Background(), uuid.New(), dto.CrearMiembroRequest{Nombre: "X Y"})
	assert.ErrorIs(t, err, ErrProyectoNoEncontrado)
}
