package service

import (
	"context"
	"errors"
	"strings"

	"obraspm/internal/dto"
	"obraspm/internal/model"
	"obraspm/internal/repository"

	"github.com/google/uuid"
)

type ProyectoService interface {
	Crear(ctx context.Context, req dto.CrearProyectoRequest) (*dto.ProyectoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ProyectoResponse, error)
	Listar(ctx context.Context, incluirInactivos bool) ([]dto.ProyectoResponse, error)
	AgregarMiembro(ctx context.Context, proyectoID uuid.UUID, req dto.CrearMiembroRequest) (*dto.MiembroResponse, error)
	ListarMiembros(ctx context.Context, proyectoID uuid.UUID) ([]dto.MiembroResponse, error)
}

type proyectoService struct {
	repo     repository.ProyectoRepository
	usuarios repository.UsuarioRepository
}

func NewProyectoService(repo repository.ProyectoRepository, usuarios repository.UsuarioRepository) ProyectoService {
	return &proyectoService{repo: repo, usuarios: usuarios}
}

func (s *proyectoService) Crear(ctx context.Context, req dto.CrearProyectoRequest) (*dto.ProyectoResponse, error) {
	codigo := strings.TrimSpace(req.Codigo)
	existe, err := s.repo.ExisteCodigo(ctx, codigo)
	if err != nil {
		return nil, err
	}
	if existe {
		return nil, ErrCodigoDuplicado
	}
	p := model.Proyecto{
		Codigo:    codigo,
		Nombre:    strings.TrimSpace(req.Nombre),
		Cliente:   req.Cliente,
		Ubicacion: req.Ubicacion,
		Activo:    true,
	}
	if err := s.repo.Create(ctx, &p); err != nil {
		return nil, err
	}
	resp := proyectoResponse(&p)
	return &resp, nil
}

func (s *proyectoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ProyectoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProyectoNoEncontrado
		}
		return nil, err
	}
	resp := proyectoResponse(p)
	return &resp, nil
}

func (s *proyectoService) Listar(ctx context.Context, incluirInactivos bool) ([]dto.ProyectoResponse, error) {
	list, err := s.repo.List(ctx, incluirInactivos)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ProyectoResponse, len(list))
	for i := range list {
		resp[i] = proyectoResponse(&list[i])
	}
	return resp, nil
}

// AgregarMiembro links an internal user, or registers an external contact
// when no usuario_id is given.
func (s *proyectoService) AgregarMiembro(ctx context.Context, proyectoID uuid.UUID, req dto.CrearMiembroRequest) (*dto.MiembroResponse, error) {
	if _, err := s.repo.FindByID(ctx, proyectoID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProyectoNoEncontrado
		}
		return nil, err
	}

	m := model.MiembroProyecto{
		ProyectoID: proyectoID,
		Nombre:     strings.TrimSpace(req.Nombre),
		Email:      req.Email,
		Telefono:   req.Telefono,
		Cargo:      req.Cargo,
	}

	if req.UsuarioID != nil {
		uid, err := uuid.Parse(*req.UsuarioID)
		if err != nil {
			return nil, ErrUsuarioNoEncontrado
		}
		u, err := s.usuarios.FindByID(ctx, uid)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrUsuarioNoEncontrado
			}
			return nil, err
		}
		miembros, err := s.repo.ListMiembros(ctx, proyectoID)
		if err != nil {
			return nil, err
		}
		for _, x := range miembros {
			if x.UsuarioID != nil && *x.UsuarioID == u.ID {
				return nil, ErrMiembroDuplicado
			}
		}
		m.Tipo = model.MiembroInterno
		m.UsuarioID = &u.ID
		m.Usuario = u
		if m.Nombre == "" {
			m.Nombre = u.Nombre
		}
	} else {
		if m.Nombre == "" {
			return nil, ErrMiembroSinNombre
		}
		m.Tipo = model.MiembroExterno
	}

	if err := s.repo.CreateMiembro(ctx, &m); err != nil {
		return nil, err
	}
	resp := miembroResponse(&m)
	return &resp, nil
}

func (s *proyectoService) ListarMiembros(ctx context.Context, proyectoID uuid.UUID) ([]dto.MiembroResponse, error) {
	if _, err := s.repo.FindByID(ctx, proyectoID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProyectoNoEncontrado
		}
		return nil, err
	}
	list, err := s.repo.ListMiembros(ctx, proyectoID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.MiembroResponse, len(list))
	for i := range list {
		resp[i] = miembroResponse(&list[i])
	}
	return resp, nil
}

func proyectoResponse(p *model.Proyecto) dto.ProyectoResponse {
	return dto.ProyectoResponse{
		ID:        p.ID.String(),
		Codigo:    p.Codigo,
		Nombre:    p.Nombre,
		Cliente:   p.Cliente,
		Ubicacion: p.Ubicacion,
		Activo:    p.Activo,
	}
}

func miembroResponse(m *model.MiembroProyecto) dto.MiembroResponse {
	resp := dto.MiembroResponse{
		ID:         m.ID.String(),
		ProyectoID: m.ProyectoID.String(),
		Tipo:       m.Tipo,
		Nombre:     m.Nombre,
		Email:      m.Contacto(),
		Telefono:   m.Telefono,
		Cargo:      m.Cargo,
	}
	if m.UsuarioID != nil {
		id := m.UsuarioID.String()
		resp.UsuarioID = &id
	}
	return resp
}
