package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EstadoRequisicion is the workflow status of a requisition.
type EstadoRequisicion string

const (
	EstadoPendiente    EstadoRequisicion = "pendiente"
	EstadoEnCotizacion EstadoRequisicion = "en_cotizacion"
	EstadoPorAprobar   EstadoRequisicion = "por_aprobar"
	EstadoAprobada     EstadoRequisicion = "aprobada"
	EstadoPagada       EstadoRequisicion = "pagada"
	EstadoRechazada    EstadoRequisicion = "rechazada"
)

// Requisicion is a purchase request for a project.
// MontoTotal = Subtotal + ITBMS always; the three are recomputed from the
// items on every save and never accepted from the client.
type Requisicion struct {
	ID            int64             `gorm:"primaryKey;autoIncrement"`
	ProyectoID    uuid.UUID         `gorm:"column:project_id;type:uuid;not null;uniqueIndex:idx_requisicion_numero"`
	Numero        string            `gorm:"type:varchar(40);not null;uniqueIndex:idx_requisicion_numero"`
	Fecha         time.Time         `gorm:"type:date;not null"`
	Proveedor     string            `gorm:"not null"`
	Concepto      string            `gorm:"type:text;not null"`
	SolicitanteID uuid.UUID         `gorm:"type:uuid;not null;index"`
	Estado        EstadoRequisicion `gorm:"type:varchar(20);not null;default:'pendiente';index"`
	Archivada     bool              `gorm:"not null;default:false;index"`
	AplicaITBMS   bool              `gorm:"column:aplica_itbms;not null;default:false"`
	Subtotal      decimal.Decimal   `gorm:"type:decimal(16,4);not null;default:0"`
	ITBMS         decimal.Decimal   `gorm:"column:itbms;type:decimal(16,4);not null;default:0"`
	MontoTotal    decimal.Decimal   `gorm:"type:decimal(16,4);not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items       []RequisicionItem      `gorm:"foreignKey:RequisicionID"`
	Historial   []RequisicionHistorial `gorm:"foreignKey:RequisicionID"`
	Solicitante *MiembroProyecto       `gorm:"foreignKey:SolicitanteID"`
	Proyecto    *Proyecto              `gorm:"foreignKey:ProyectoID"`
}

func (Requisicion) TableName() string { return "requisiciones" }

// RequisicionItem is one purchase line. Items are replaced wholesale on
// every save; AplicaITBMS mirrors the requisition flag.
type RequisicionItem struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	RequisicionID  int64           `gorm:"not null;index"`
	Orden          int             `gorm:"not null;default:0"`
	Descripcion    string          `gorm:"not null"`
	Cantidad       decimal.Decimal `gorm:"type:decimal(14,4);not null;default:1"`
	Unidad         string          `gorm:"type:varchar(10);not null;default:'unidad'"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(16,4);not null"`
	AplicaITBMS    bool            `gorm:"column:aplica_itbms;not null;default:false"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(16,4);not null"`
	ITBMS          decimal.Decimal `gorm:"column:itbms;type:decimal(16,4);not null;default:0"`
	Total          decimal.Decimal `gorm:"type:decimal(16,4);not null"`
}

func (RequisicionItem) TableName() string { return "requisicion_items" }

// RequisicionHistorial records one estado change. Rows are append-only:
// never updated, never deleted. EstadoAnterior is nil for the creation entry.
type RequisicionHistorial struct {
	ID             int64              `gorm:"primaryKey;autoIncrement"`
	RequisicionID  int64              `gorm:"not null;index"`
	EstadoAnterior *EstadoRequisicion `gorm:"type:varchar(20)"`
	EstadoNuevo    EstadoRequisicion  `gorm:"type:varchar(20);not null"`
	Comentario     *string            `gorm:"type:text"`
	UsuarioID      *uuid.UUID         `gorm:"type:uuid"`
	UsuarioNombre  string             `gorm:"not null"`
	CreatedAt      time.Time
}

func (RequisicionHistorial) TableName() string { return "requisicion_historial" }
