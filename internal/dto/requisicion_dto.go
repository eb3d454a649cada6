package dto

import (
	"github.com/shopspring/decimal"
)

// Unidades de medida aceptadas para los ítems.
var Unidades = []string{"unidad", "metro", "m2", "m3", "kg", "lb", "galon", "bolsa", "caja", "rollo", "global"}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RequisicionItemInput struct {
	Descripcion    string     `json:"descripcion"     validate:"required,notblank"`
	Cantidad       NumeroLaxo `json:"cantidad"        validate:"min=0"`
	Unidad         string     `json:"unidad"          validate:"omitempty,oneof=unidad metro m2 m3 kg lb galon bolsa caja rollo global"`
	PrecioUnitario NumeroLaxo `json:"precio_unitario" validate:"gt=0"`
}

type CrearRequisicionRequest struct {
	ProyectoID    string                 `json:"project_id"     validate:"required,uuid"`
	Numero        string                 `json:"numero"         validate:"required,notblank,mintrim=2,max=40"`
	Fecha         string                 `json:"fecha"          validate:"required,fecha"`
	Proveedor     string                 `json:"proveedor"      validate:"required,notblank,mintrim=2"`
	Concepto      string                 `json:"concepto"       validate:"required,notblank,mintrim=2"`
	SolicitanteID string                 `json:"solicitante_id" validate:"required,uuid"`
	AplicaITBMS   bool                   `json:"aplica_itbms"`
	Items         []RequisicionItemInput `json:"items"          validate:"required,min=1,dive"`
}

// ActualizarRequisicionRequest replaces header and items. Numero may be
// echoed back by the form but must match the stored value.
type ActualizarRequisicionRequest struct {
	Numero        *string                `json:"numero"`
	Fecha         string                 `json:"fecha"          validate:"required,fecha"`
	Proveedor     string                 `json:"proveedor"      validate:"required,notblank,mintrim=2"`
	Concepto      string                 `json:"concepto"       validate:"required,notblank,mintrim=2"`
	SolicitanteID string                 `json:"solicitante_id" validate:"required,uuid"`
	AplicaITBMS   bool                   `json:"aplica_itbms"`
	Items         []RequisicionItemInput `json:"items"          validate:"required,min=1,dive"`
}

type CambiarEstadoRequest struct {
	Estado     string  `json:"estado"     validate:"required,oneof=pendiente en_cotizacion por_aprobar aprobada pagada rechazada"`
	Comentario *string `json:"comentario" validate:"omitempty,max=1000"`
}

// CalcularTotalesRequest feeds the stateless preview. No validation: the
// preview must answer for any half-filled form.
type CalcularTotalesRequest struct {
	AplicaITBMS bool                   `json:"aplica_itbms"`
	Items       []RequisicionItemInput `json:"items"`
}

// RequisicionFilter holds list query params.
type RequisicionFilter struct {
	ProyectoID string
	Archivadas bool
	Estado     string
	Q          string
	Page       int
	Limit      int
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TotalesItemResponse struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	ITBMS    decimal.Decimal `json:"itbms"`
	Total    decimal.Decimal `json:"total"`
}

type TotalesResponse struct {
	Items      []TotalesItemResponse `json:"items"`
	Subtotal   decimal.Decimal       `json:"subtotal"`
	ITBMS      decimal.Decimal       `json:"itbms"`
	MontoTotal decimal.Decimal       `json:"monto_total"`
}

type RequisicionItemResponse struct {
	ID             int64           `json:"id"`
	Descripcion    string          `json:"descripcion"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	Unidad         string          `json:"unidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	AplicaITBMS    bool            `json:"aplica_itbms"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ITBMS          decimal.Decimal `json:"itbms"`
	Total          decimal.Decimal `json:"total"`
}

type HistorialEstadoResponse struct {
	ID             int64   `json:"id"`
	EstadoAnterior *string `json:"estado_anterior"`
	EstadoNuevo    string  `json:"estado_nuevo"`
	Comentario     *string `json:"comentario"`
	UsuarioNombre  string  `json:"usuario_nombre"`
	CreatedAt      string  `json:"created_at"`
}

type RequisicionResponse struct {
	ID                 int64                     `json:"id"`
	ProyectoID         string                    `json:"project_id"`
	Numero             string                    `json:"numero"`
	Fecha              string                    `json:"fecha"`
	Proveedor          string                    `json:"proveedor"`
	Concepto           string                    `json:"concepto"`
	SolicitanteID      string                    `json:"solicitante_id"`
	SolicitanteNombre  *string                   `json:"solicitante_nombre,omitempty"`
	Estado             string                    `json:"estado"`
	EstadosSiguientes  []string                  `json:"estados_siguientes"`
	Editable           bool                      `json:"editable"`
	Archivada          bool                      `json:"archivada"`
	AplicaITBMS        bool                      `json:"aplica_itbms"`
	Subtotal           decimal.Decimal           `json:"subtotal"`
	ITBMS              decimal.Decimal           `json:"itbms"`
	MontoTotal         decimal.Decimal           `json:"monto_total"`
	Items              []RequisicionItemResponse `json:"items,omitempty"`
	Historial          []HistorialEstadoResponse `json:"historial,omitempty"`
	CreatedAt          string                    `json:"created_at"`
	UpdatedAt          string                    `json:"updated_at"`
}

type RequisicionListResponse struct {
	Data  []RequisicionResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// ─── Jobs ────────────────────────────────────────────────────────────────────

// NotificacionEstadoJob is the payload of a status-change notification.
type NotificacionEstadoJob struct {
	RequisicionID  int64   `json:"requisicion_id"`
	EstadoAnterior string  `json:"estado_anterior"`
	EstadoNuevo    string  `json:"estado_nuevo"`
	Comentario     *string `json:"comentario,omitempty"`
	UsuarioNombre  string  `json:"usuario_nombre"`
}
