package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearCategoriaCostoRequest struct {
	Nombre string `json:"nombre" validate:"required,notblank,mintrim=2,max=80"`
}

// GuardarPresupuestoRequest submits the full category → amount mapping.
// Keys of Montos are category ids.
type GuardarPresupuestoRequest struct {
	Total  decimal.Decimal            `json:"total"`
	Montos map[string]decimal.Decimal `json:"montos" validate:"required"`
}

type NuevaCategoriaInput struct {
	Nombre string          `json:"nombre" validate:"required,notblank,mintrim=2,max=80"`
	Monto  decimal.Decimal `json:"monto"`
}

// ConjuntoCambiosRequest is the staged edit of the budget form, applied
// all-or-nothing: removals, reactivations, new categories, then the mapping.
type ConjuntoCambiosRequest struct {
	Eliminar  []string                   `json:"eliminar"  validate:"dive,uuid"`
	Reactivar []string                   `json:"reactivar" validate:"dive,uuid"`
	Nuevas    []NuevaCategoriaInput      `json:"nuevas"    validate:"dive"`
	Total     decimal.Decimal            `json:"total"`
	Montos    map[string]decimal.Decimal `json:"montos"`
}

type CrearGastoRequest struct {
	CategoriaID *string         `json:"categoria_id" validate:"omitempty,uuid"`
	Monto       decimal.Decimal `json:"monto"        validate:"gt=0"`
	Concepto    string          `json:"concepto"     validate:"required,notblank,mintrim=2"`
	Fecha       string          `json:"fecha"        validate:"required,fecha"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CategoriaCostoResponse struct {
	ID         string `json:"id"`
	ProyectoID string `json:"project_id"`
	Nombre     string `json:"nombre"`
	Activo     bool   `json:"activo"`
}

type AsignacionResponse struct {
	CategoriaID string          `json:"categoria_id"`
	Nombre      string          `json:"nombre"`
	Activo      bool            `json:"activo"`
	Monto       decimal.Decimal `json:"monto"`
}

type PresupuestoResponse struct {
	ProyectoID  string               `json:"project_id"`
	Total       decimal.Decimal      `json:"total"`
	Asignado    decimal.Decimal      `json:"asignado"`
	Diferencia  decimal.Decimal      `json:"diferencia"`
	Balanceado  bool                 `json:"balanceado"`
	Categorias  []AsignacionResponse `json:"categorias"`
	Configurado bool                 `json:"configurado"`
}

type ResumenCategoriaResponse struct {
	CategoriaID *string         `json:"categoria_id"`
	Nombre      string          `json:"nombre"`
	Asignado    decimal.Decimal `json:"asignado"`
	Gastado     decimal.Decimal `json:"gastado"`
	Disponible  decimal.Decimal `json:"disponible"`
}

type ResumenCostosResponse struct {
	ProyectoID string                     `json:"project_id"`
	Total      decimal.Decimal            `json:"total"`
	Gastado    decimal.Decimal            `json:"gastado"`
	Disponible decimal.Decimal            `json:"disponible"`
	Categorias []ResumenCategoriaResponse `json:"categorias"`
}

type GastoResponse struct {
	ID           string          `json:"id"`
	ProyectoID   string          `json:"project_id"`
	CategoriaID  *string         `json:"categoria_id"`
	Categoria    *string         `json:"categoria,omitempty"`
	Monto        decimal.Decimal `json:"monto"`
	Concepto     string          `json:"concepto"`
	Fuente       string          `json:"fuente"`
	ReferenciaID *int64          `json:"referencia_id,omitempty"`
	Fecha        string          `json:"fecha"`
}
