package repository

import (
	"context"

	"obraspm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProyectoRepository interface {
	Create(ctx context.Context, p *model.Proyecto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Proyecto, error)
	ExisteCodigo(ctx context.Context, codigo string) (bool, error)
	List(ctx context.Context, incluirInactivos bool) ([]model.Proyecto, error)

	CreateMiembro(ctx context.Context, m *model.MiembroProyecto) error
	FindMiembro(ctx context.Context, id uuid.UUID) (*model.MiembroProyecto, error)
	ListMiembros(ctx context.Context, proyectoID uuid.UUID) ([]model.MiembroProyecto, error)
}

type proyectoRepo struct{ db *gorm.DB }

func NewProyectoRepository(db *gorm.DB) ProyectoRepository { return &proyectoRepo{db: db} }

func (r *proyectoRepo) Create(ctx context.Context, p *model.Proyecto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *proyectoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Proyecto, error) {
	var p model.Proyecto
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *proyectoRepo) ExisteCodigo(ctx context.Context, codigo string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Proyecto{}).Where("LOWER(codigo) = LOWER(?)", codigo).Count(&n).Error
	return n > 0, err
}

func (r *proyectoRepo) List(ctx context.Context, incluirInactivos bool) ([]model.Proyecto, error) {
	var list []model.Proyecto
	q := r.db.WithContext(ctx).Order("codigo asc")
	if !incluirInactivos {
		q = q.Where("activo = true")
	}
	err := q.Find(&list).Error
	return list, err
}

func (r *proyectoRepo) CreateMiembro(ctx context.Context, m *model.MiembroProyecto) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *proyectoRepo) FindMiembro(ctx context.Context, id uuid.UUID) (*model.MiembroProyecto, error) {
	var m model.MiembroProyecto
	if err := r.db.WithContext(ctx).Preload("Usuario").First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *proyectoRepo) ListMiembros(ctx context.Context, proyectoID uuid.UUID) ([]model.MiembroProyecto, error) {
	var list []model.MiembroProyecto
	err := r.db.WithContext(ctx).Preload("Usuario").
		Where("proyecto_id = ?", proyectoID).
		Order("nombre asc").
		Find(&list).Error
	return list, err
}
