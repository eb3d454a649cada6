package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrRequisicionNoEncontrada = errors.New("requisición no encontrada")
	ErrTransicionInvalida      = errors.New("transición de estado no permitida")
	ErrRequisicionNoEditable   = errors.New("la requisición solo puede editarse en estado pendiente o en cotización")
	ErrNumeroInmutable         = errors.New("el número de requisición no puede modificarse")
	ErrNumeroDuplicado         = errors.New("ya existe una requisición con ese número en el proyecto")
	ErrFechaInvalida           = errors.New("fecha inválida, use AAAA-MM-DD")
	ErrSolicitanteInvalido     = errors.New("el solicitante no es miembro del proyecto")
	ErrMontoFueraDeRango       = errors.New("el monto total excede el máximo permitido")

	ErrProyectoNoEncontrado = errors.New("proyecto no encontrado")
	ErrCodigoDuplicado      = errors.New("ya existe un proyecto con ese código")
	ErrMiembroSinNombre     = errors.New("un contacto externo requiere nombre")
	ErrMiembroDuplicado     = errors.New("el usuario ya es miembro del proyecto")

	ErrCategoriaNoEncontrada  = errors.New("categoría no encontrada")
	ErrCategoriaDuplicada     = errors.New("ya existe una categoría con ese nombre en el proyecto")
	ErrCategoriaInactiva      = errors.New("la categoría está inactiva")
	ErrCategoriaConAsignacion = errors.New("la categoría tiene monto asignado; reasigne el presupuesto antes de eliminarla")
	ErrCambiosContradictorios = errors.New("una categoría no puede eliminarse y reactivarse en el mismo cambio")
	ErrMontoNegativo          = errors.New("los montos asignados no pueden ser negativos")

	ErrCredencialesInvalidas = errors.New("credenciales invalidas")
	ErrTokenInvalido         = errors.New("refresh token invalido o expirado")
	ErrUsuarioNoEncontrado   = errors.New("usuario no encontrado")
	ErrUsuarioDuplicado      = errors.New("el nombre de usuario ya existe")
)

// DescuadreError reports a budget whose allocations do not add up to the
// total. Diferencia = Total - Asignado: positive is a shortfall, negative
// an excess.
type DescuadreError struct {
	Total      decimal.Decimal
	Asignado   decimal.Decimal
	Diferencia decimal.Decimal
}

func (e *DescuadreError) Error() string {
	switch {
	case !e.Total.IsPositive():
		return "el presupuesto total debe ser mayor a cero"
	case e.Faltante():
		return fmt.Sprintf("faltan %s por asignar", e.Diferencia.StringFixed(2))
	default:
		return fmt.Sprintf("se asignaron %s de más", e.Diferencia.Abs().StringFixed(2))
	}
}

// Faltante reports whether the allocations fall short of the total.
func (e *DescuadreError) Faltante() bool { return e.Diferencia.IsPositive() }
