package repository

import (
	"context"
	"strings"

	"obraspm/internal/dto"
	"obraspm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequisicionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, r *model.Requisicion) error
	FindByID(ctx context.Context, id int64) (*model.Requisicion, error)
	FindForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.Requisicion, error)
	ExisteNumero(ctx context.Context, proyectoID uuid.UUID, numero string) (bool, error)
	List(ctx context.Context, filter dto.RequisicionFilter) ([]model.Requisicion, int64, error)
	UpdateCabecera(ctx context.Context, tx *gorm.DB, r *model.Requisicion) error
	ReplaceItems(ctx context.Context, tx *gorm.DB, requisicionID int64, items []model.RequisicionItem) error
	UpdateEstado(ctx context.Context, tx *gorm.DB, id int64, estado model.EstadoRequisicion) error
	CreateHistorial(ctx context.Context, tx *gorm.DB, h *model.RequisicionHistorial) error
	SetArchivada(ctx context.Context, id int64, archivada bool) error
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type requisicionRepo struct{ db *gorm.DB }

func NewRequisicionRepository(db *gorm.DB) RequisicionRepository {
	return &requisicionRepo{db: db}
}

func (r *requisicionRepo) DB() *gorm.DB { return r.db }

// Create inserts the requisition together with its items.
func (r *requisicionRepo) Create(ctx context.Context, tx *gorm.DB, req *model.Requisicion) error {
	return translate(conn(tx, r.db).WithContext(ctx).Omit("Historial", "Solicitante", "Proyecto").Create(req).Error)
}

func (r *requisicionRepo) FindByID(ctx context.Context, id int64) (*model.Requisicion, error) {
	var req model.Requisicion
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("orden asc, id asc") }).
		Preload("Historial", func(db *gorm.DB) *gorm.DB { return db.Order("created_at desc, id desc") }).
		Preload("Solicitante.Usuario").
		Preload("Proyecto").
		First(&req, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

// FindForUpdate locks the requisition row until the transaction ends so
// concurrent transitions on the same requisition serialize.
func (r *requisicionRepo) FindForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.Requisicion, error) {
	var req model.Requisicion
	err := conn(tx, r.db).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *requisicionRepo) ExisteNumero(ctx context.Context, proyectoID uuid.UUID, numero string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Requisicion{}).
		Where("project_id = ? AND numero = ?", proyectoID, numero).
		Count(&n).Error
	return n > 0, err
}

func (r *requisicionRepo) List(ctx context.Context, filter dto.RequisicionFilter) ([]model.Requisicion, int64, error) {
	var list []model.Requisicion
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Requisicion{}).Where("archivada = ?", filter.Archivadas)

	if filter.ProyectoID != "" {
		q = q.Where("project_id = ?", filter.ProyectoID)
	}
	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if s := strings.TrimSpace(filter.Q); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(numero) LIKE ? OR LOWER(proveedor) LIKE ? OR LOWER(concepto) LIKE ?)", like, like, like)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Solicitante").
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&list).Error
	return list, total, err
}

// UpdateCabecera writes header fields and totals. Numero and Estado are
// never touched here.
func (r *requisicionRepo) UpdateCabecera(ctx context.Context, tx *gorm.DB, req *model.Requisicion) error {
	return conn(tx, r.db).WithContext(ctx).Model(&model.Requisicion{}).
		Where("id = ?", req.ID).
		Updates(map[string]interface{}{
			"fecha":          req.Fecha,
			"proveedor":      req.Proveedor,
			"concepto":       req.Concepto,
			"solicitante_id": req.SolicitanteID,
			"aplica_itbms":   req.AplicaITBMS,
			"subtotal":       req.Subtotal,
			"itbms":          req.ITBMS,
			"monto_total":    req.MontoTotal,
		}).Error
}

func (r *requisicionRepo) ReplaceItems(ctx context.Context, tx *gorm.DB, requisicionID int64, items []model.RequisicionItem) error {
	db := conn(tx, r.db).WithContext(ctx)
	if err := db.Where("requisicion_id = ?", requisicionID).Delete(&model.RequisicionItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = 0
		items[i].RequisicionID = requisicionID
	}
	return db.Create(&items).Error
}

func (r *requisicionRepo) UpdateEstado(ctx context.Context, tx *gorm.DB, id int64, estado model.EstadoRequisicion) error {
	return conn(tx, r.db).WithContext(ctx).Model(&model.Requisicion{}).
		Where("id = ?", id).
		Update("estado", estado).Error
}

func (r *requisicionRepo) CreateHistorial(ctx context.Context, tx *gorm.DB, h *model.RequisicionHistorial) error {
	return conn(tx, r.db).WithContext(ctx).Create(h).Error
}

func (r *requisicionRepo) SetArchivada(ctx context.Context, id int64, archivada bool) error {
	return r.db.WithContext(ctx).Model(&model.Requisicion{}).
		Where("id = ?", id).
		Update("archivada", archivada).Error
}
