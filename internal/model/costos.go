package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoriaCosto is a budget line of a project (materiales, mano de obra…).
// Categories are deactivated, never deleted, so past expenses keep their link.
type CategoriaCosto struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProyectoID uuid.UUID `gorm:"type:uuid;not null;index"`
	Nombre     string    `gorm:"not null"`
	Activo     bool      `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (CategoriaCosto) TableName() string { return "categorias_costo" }

// PresupuestoProyecto holds the total budget of a project.
type PresupuestoProyecto struct {
	ProyectoID uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Total      decimal.Decimal `gorm:"type:decimal(16,2);not null"`
	UpdatedAt  time.Time
}

func (PresupuestoProyecto) TableName() string { return "presupuestos_proyecto" }

// AsignacionPresupuesto is the share of the total assigned to one category.
type AsignacionPresupuesto struct {
	ProyectoID  uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CategoriaID uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Monto       decimal.Decimal `gorm:"type:decimal(16,2);not null"`
	UpdatedAt   time.Time
}

func (AsignacionPresupuesto) TableName() string { return "asignaciones_presupuesto" }

// Fuente de un gasto
const (
	FuenteRequisicion = "requisicion"
	FuenteManual      = "manual"
)

// GastoProyecto is a realized expense. Paid requisitions create one row
// with Fuente=requisicion and ReferenciaID = requisition id.
type GastoProyecto struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProyectoID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	CategoriaID  *uuid.UUID      `gorm:"type:uuid;index"`
	Monto        decimal.Decimal `gorm:"type:decimal(16,4);not null"`
	Concepto     string          `gorm:"not null"`
	Fuente       string          `gorm:"type:varchar(20);not null"`
	ReferenciaID *int64
	Fecha        time.Time `gorm:"type:date;not null"`
	CreatedAt    time.Time

	Categoria *CategoriaCosto `gorm:"foreignKey:CategoriaID"`
}

func (GastoProyecto) TableName() string { return "gastos_proyecto" }
