package service

import (
	"obraspm/internal/dto"

	"github.com/shopspring/decimal"
)

// TasaITBMS is the Panamanian sales tax rate.
var TasaITBMS = decimal.RequireFromString("0.07")

const (
	decimalesMonto    = 2 // money is stored and compared in cents
	decimalesCantidad = 4 // scale of cantidad and precio_unitario columns
)

// MontoMaximo bounds requisition totals to what decimal(16,4) can hold.
var MontoMaximo = decimal.New(1, 12)

// LineaTotal holds the derived amounts of one item.
type LineaTotal struct {
	Subtotal decimal.Decimal
	ITBMS    decimal.Decimal
	Total    decimal.Decimal
}

// ItemCalculo is the numeric part of an item.
type ItemCalculo struct {
	Cantidad       decimal.Decimal
	PrecioUnitario decimal.Decimal
}

// Totales is the result of pricing a whole requisition.
type Totales struct {
	Items      []LineaTotal
	Subtotal   decimal.Decimal
	ITBMS      decimal.Decimal
	MontoTotal decimal.Decimal
}

// CalcularItem prices one line. Inputs are taken at column scale and every
// amount is rounded to cents before it is summed, so Total is exactly
// Subtotal + ITBMS as stored.
func CalcularItem(cantidad, precio decimal.Decimal, aplicaITBMS bool) LineaTotal {
	sub := cantidad.Round(decimalesCantidad).
		Mul(precio.Round(decimalesCantidad)).
		Round(decimalesMonto)
	tax := decimal.Zero
	if aplicaITBMS {
		tax = sub.Mul(TasaITBMS).Round(decimalesMonto)
	}
	return LineaTotal{Subtotal: sub, ITBMS: tax, Total: sub.Add(tax)}
}

// CalcularTotales prices every line and the requisition. The tax is applied
// once over the subtotal and rounded to cents; MontoTotal is the sum of the
// rounded parts.
func CalcularTotales(items []ItemCalculo, aplicaITBMS bool) Totales {
	t := Totales{Items: make([]LineaTotal, len(items)), Subtotal: decimal.Zero}
	for i, it := range items {
		t.Items[i] = CalcularItem(it.Cantidad, it.PrecioUnitario, aplicaITBMS)
		t.Subtotal = t.Subtotal.Add(t.Items[i].Subtotal)
	}
	t.ITBMS = decimal.Zero
	if aplicaITBMS {
		t.ITBMS = t.Subtotal.Mul(TasaITBMS).Round(decimalesMonto)
	}
	t.MontoTotal = t.Subtotal.Add(t.ITBMS)
	return t
}

// FueraDeRango reports totals too large to persist.
func (t Totales) FueraDeRango() bool {
	return t.MontoTotal.Abs().GreaterThanOrEqual(MontoMaximo)
}

// itemsCalculo reads form items. A missing cantidad means 1; missing or
// unparsable numbers otherwise read as 0.
func itemsCalculo(items []dto.RequisicionItemInput) []ItemCalculo {
	out := make([]ItemCalculo, len(items))
	for i, it := range items {
		out[i] = ItemCalculo{
			Cantidad:       it.Cantidad.O(decimal.NewFromInt(1)).Round(decimalesCantidad),
			PrecioUnitario: it.PrecioUnitario.O(decimal.Zero).Round(decimalesCantidad),
		}
	}
	return out
}

// PrevisualizarTotales answers the form's live total preview.
func PrevisualizarTotales(req dto.CalcularTotalesRequest) dto.TotalesResponse {
	t := CalcularTotales(itemsCalculo(req.Items), req.AplicaITBMS)
	resp := dto.TotalesResponse{
		Items:      make([]dto.TotalesItemResponse, len(t.Items)),
		Subtotal:   t.Subtotal,
		ITBMS:      t.ITBMS,
		MontoTotal: t.MontoTotal,
	}
	for i, l := range t.Items {
		resp.Items[i] = dto.TotalesItemResponse{Subtotal: l.Subtotal, ITBMS: l.ITBMS, Total: l.Total}
	}
	return resp
}
