package service

import (
	"obraspm/internal/dto"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ToleranciaConciliacion absorbs rounding in user-entered amounts.
var ToleranciaConciliacion = decimal.New(1, -2)

// Conciliacion is the balance check of a budget against its allocations.
type Conciliacion struct {
	Total      decimal.Decimal
	Asignado   decimal.Decimal
	Diferencia decimal.Decimal // Total - Asignado
	Balanceado bool
}

// Conciliar sums the allocations and reports whether they match the total.
// A budget is balanced when the total is positive and the allocations are
// within ToleranciaConciliacion of it.
func Conciliar(total decimal.Decimal, montos []decimal.Decimal) Conciliacion {
	asignado := decimal.Sum(decimal.Zero, montos...)
	dif := total.Sub(asignado)
	return Conciliacion{
		Total:      total,
		Asignado:   asignado,
		Diferencia: dif,
		Balanceado: total.IsPositive() && dif.Abs().LessThan(ToleranciaConciliacion),
	}
}

// Error returns a *DescuadreError for an unbalanced result, nil otherwise.
func (c Conciliacion) Error() error {
	if c.Balanceado {
		return nil
	}
	return &DescuadreError{Total: c.Total, Asignado: c.Asignado, Diferencia: c.Diferencia}
}

// NuevaCategoria is a category created as part of a budget change.
type NuevaCategoria struct {
	Nombre string
	Monto  decimal.Decimal
}

// ConjuntoCambios is the staged state of the budget form. It is committed
// as a whole by CostosService.AplicarCambios.
type ConjuntoCambios struct {
	Eliminar  []uuid.UUID
	Reactivar []uuid.UUID
	Nuevas    []NuevaCategoria
	Total     decimal.Decimal
	Montos    map[uuid.UUID]decimal.Decimal
}

// ConjuntoDesdeRequest parses ids of the wire form.
func ConjuntoDesdeRequest(req dto.ConjuntoCambiosRequest) (ConjuntoCambios, error) {
	c := ConjuntoCambios{Total: req.Total, Montos: make(map[uuid.UUID]decimal.Decimal, len(req.Montos))}
	var err error
	if c.Eliminar, err = parseIDs(req.Eliminar); err != nil {
		return c, err
	}
	if c.Reactivar, err = parseIDs(req.Reactivar); err != nil {
		return c, err
	}
	for _, n := range req.Nuevas {
		c.Nuevas = append(c.Nuevas, NuevaCategoria{Nombre: n.Nombre, Monto: n.Monto})
	}
	for k, v := range req.Montos {
		id, err := uuid.Parse(k)
		if err != nil {
			return c, ErrCategoriaNoEncontrada
		}
		c.Montos[id] = v
	}
	return c, nil
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, ErrCategoriaNoEncontrada
		}
		out = append(out, id)
	}
	return out, nil
}

func (c ConjuntoCambios) elimina(id uuid.UUID) bool {
	for _, e := range c.Eliminar {
		if e == id {
			return true
		}
	}
	return false
}

func (c ConjuntoCambios) reactiva(id uuid.UUID) bool {
	for _, e := range c.Reactivar {
		if e == id {
			return true
		}
	}
	return false
}

// MontosFinales lists the allocations that survive the change: mapped
// categories not being removed, plus the new ones.
func (c ConjuntoCambios) MontosFinales() []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(c.Montos)+len(c.Nuevas))
	for id, m := range c.Montos {
		if !c.elimina(id) {
			out = append(out, m)
		}
	}
	for _, n := range c.Nuevas {
		out = append(out, n.Monto)
	}
	return out
}

// Conciliar checks the balance of the final mapping.
func (c ConjuntoCambios) Conciliar() Conciliacion {
	return Conciliar(c.Total, c.MontosFinales())
}
