package repository

import (
	"context"
	"time"

	"obraspm/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GastoPorCategoria is the realized spend of one category. CategoriaID is
// nil for expenses not tied to a category (paid requisitions).
type GastoPorCategoria struct {
	CategoriaID *uuid.UUID
	Total       decimal.Decimal
}

type CostosRepository interface {
	ListCategorias(ctx context.Context, proyectoID uuid.UUID, incluirInactivas bool) ([]model.CategoriaCosto, error)
	FindCategoria(ctx context.Context, id uuid.UUID) (*model.CategoriaCosto, error)
	FindCategoriaPorNombre(ctx context.Context, proyectoID uuid.UUID, nombre string) (*model.CategoriaCosto, error)
	CreateCategoria(ctx context.Context, tx *gorm.DB, c *model.CategoriaCosto) error
	SetCategoriaActiva(ctx context.Context, tx *gorm.DB, id uuid.UUID, activo bool) error

	FindPresupuesto(ctx context.Context, proyectoID uuid.UUID) (*model.PresupuestoProyecto, error)
	ListAsignaciones(ctx context.Context, proyectoID uuid.UUID) ([]model.AsignacionPresupuesto, error)
	DeleteAsignacion(ctx context.Context, tx *gorm.DB, proyectoID, categoriaID uuid.UUID) error
	GuardarPresupuesto(ctx context.Context, tx *gorm.DB, proyectoID uuid.UUID, total decimal.Decimal, asignaciones []model.AsignacionPresupuesto) error

	CreateGasto(ctx context.Context, tx *gorm.DB, g *model.GastoProyecto) error
	ListGastos(ctx context.Context, proyectoID uuid.UUID) ([]model.GastoProyecto, error)
	GastoPorCategoria(ctx context.Context, proyectoID uuid.UUID) ([]GastoPorCategoria, error)

	DB() *gorm.DB
}

type costosRepo struct{ db *gorm.DB }

func NewCostosRepository(db *gorm.DB) CostosRepository { return &costosRepo{db: db} }

func (r *costosRepo) DB() *gorm.DB { return r.db }

// ── Categorías ────────────────────────────────────────────────────────────────

func (r *costosRepo) ListCategorias(ctx context.Context, proyectoID uuid.UUID, incluirInactivas bool) ([]model.CategoriaCosto, error) {
	var list []model.CategoriaCosto
	q := r.db.WithContext(ctx).Where("proyecto_id = ?", proyectoID)
	if !incluirInactivas {
		q = q.Where("activo = true")
	}
	err := q.Order("nombre asc").Find(&list).Error
	return list, err
}

func (r *costosRepo) FindCategoria(ctx context.Context, id uuid.UUID) (*model.CategoriaCosto, error) {
	var c model.CategoriaCosto
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *costosRepo) FindCategoriaPorNombre(ctx context.Context, proyectoID uuid.UUID, nombre string) (*model.CategoriaCosto, error) {
	var c model.CategoriaCosto
	err := r.db.WithContext(ctx).
		Where("proyecto_id = ? AND lower(nombre) = lower(?)", proyectoID, nombre).
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *costosRepo) CreateCategoria(ctx context.Context, tx *gorm.DB, c *model.CategoriaCosto) error {
	return conn(tx, r.db).WithContext(ctx).Create(c).Error
}

func (r *costosRepo) SetCategoriaActiva(ctx context.Context, tx *gorm.DB, id uuid.UUID, activo bool) error {
	res := conn(tx, r.db).WithContext(ctx).Model(&model.CategoriaCosto{}).
		Where("id = ?", id).
		Update("activo", activo)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ── Presupuesto ───────────────────────────────────────────────────────────────

func (r *costosRepo) FindPresupuesto(ctx context.Context, proyectoID uuid.UUID) (*model.PresupuestoProyecto, error) {
	var p model.PresupuestoProyecto
	if err := r.db.WithContext(ctx).First(&p, "proyecto_id = ?", proyectoID).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *costosRepo) ListAsignaciones(ctx context.Context, proyectoID uuid.UUID) ([]model.AsignacionPresupuesto, error) {
	var list []model.AsignacionPresupuesto
	err := r.db.WithContext(ctx).Where("proyecto_id = ?", proyectoID).Find(&list).Error
	return list, err
}

func (r *costosRepo) DeleteAsignacion(ctx context.Context, tx *gorm.DB, proyectoID, categoriaID uuid.UUID) error {
	return conn(tx, r.db).WithContext(ctx).
		Where("proyecto_id = ? AND categoria_id = ?", proyectoID, categoriaID).
		Delete(&model.AsignacionPresupuesto{}).Error
}

// GuardarPresupuesto upserts the total and replaces the whole allocation
// mapping of the project.
func (r *costosRepo) GuardarPresupuesto(ctx context.Context, tx *gorm.DB, proyectoID uuid.UUID, total decimal.Decimal, asignaciones []model.AsignacionPresupuesto) error {
	db := conn(tx, r.db).WithContext(ctx)
	now := time.Now()

	p := model.PresupuestoProyecto{ProyectoID: proyectoID, Total: total, UpdatedAt: now}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "proyecto_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"total", "updated_at"}),
	}).Create(&p).Error
	if err != nil {
		return err
	}

	if err := db.Where("proyecto_id = ?", proyectoID).Delete(&model.AsignacionPresupuesto{}).Error; err != nil {
		return err
	}
	if len(asignaciones) == 0 {
		return nil
	}
	for i := range asignaciones {
		asignaciones[i].ProyectoID = proyectoID
		asignaciones[i].UpdatedAt = now
	}
	return db.Create(&asignaciones).Error
}

// ── Gastos ────────────────────────────────────────────────────────────────────

func (r *costosRepo) CreateGasto(ctx context.Context, tx *gorm.DB, g *model.GastoProyecto) error {
	return conn(tx, r.db).WithContext(ctx).Omit("Categoria").Create(g).Error
}

func (r *costosRepo) ListGastos(ctx context.Context, proyectoID uuid.UUID) ([]model.GastoProyecto, error) {
	var list []model.GastoProyecto
	err := r.db.WithContext(ctx).Preload("Categoria").
		Where("proyecto_id = ?", proyectoID).
		Order("fecha desc, created_at desc").
		Find(&list).Error
	return list, err
}

func (r *costosRepo) GastoPorCategoria(ctx context.Context, proyectoID uuid.UUID) ([]GastoPorCategoria, error) {
	var rows []GastoPorCategoria
	err := r.db.WithContext(ctx).Model(&model.GastoProyecto{}).
		Select("categoria_id, COALESCE(SUM(monto), 0) AS total").
		Where("proyecto_id = ?", proyectoID).
		Group("categoria_id").
		Scan(&rows).Error
	return rows, err
}
