package dto

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Monetary values travel as plain JSON numbers, not quoted strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// NumeroLaxo is a numeric form input. JSON numbers and numeric strings parse
// normally; anything else ("", "abc", objects, booleans) reads as zero
// instead of failing the whole request. Values are rounded to
// EscalaNumero decimals and magnitudes the columns cannot hold read as zero
// too. Presente is false only when the field was absent or null.
type NumeroLaxo struct {
	Valor    decimal.Decimal
	Presente bool
}

// NuevoNumero builds a present NumeroLaxo from a float, mostly for tests.
func NuevoNumero(f float64) NumeroLaxo {
	return NumeroLaxo{Valor: decimal.NewFromFloat(f), Presente: true}
}

const (
	// EscalaNumero is the scale of cantidad and precio_unitario columns.
	EscalaNumero = 4
	// DigitosEnteros is the integer digits cantidad (decimal(14,4)) holds.
	DigitosEnteros = 10
)

// acotarNumero rounds d to EscalaNumero. It works on digit counts first so
// inputs like 1e-2000000000 or 1e2000000000 never reach big-number
// arithmetic.
func acotarNumero(d decimal.Decimal) (decimal.Decimal, bool) {
	if d.IsZero() {
		return decimal.Zero, true
	}
	// |d| lies in [10^(magnitud-1), 10^magnitud)
	magnitud := int64(d.NumDigits()) + int64(d.Exponent())
	if magnitud > DigitosEnteros {
		return decimal.Zero, false
	}
	if magnitud < -EscalaNumero {
		return decimal.Zero, true
	}
	d = d.Round(EscalaNumero)
	if int64(d.NumDigits())+int64(d.Exponent()) > DigitosEnteros {
		return decimal.Zero, false
	}
	return d, true
}

func (n *NumeroLaxo) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "" || raw == "null" {
		*n = NumeroLaxo{}
		return nil
	}
	n.Presente = true
	d, err := decimal.NewFromString(strings.TrimSpace(strings.Trim(raw, `"`)))
	if err != nil {
		n.Valor = decimal.Zero
		return nil
	}
	n.Valor, _ = acotarNumero(d)
	return nil
}

func (n NumeroLaxo) MarshalJSON() ([]byte, error) {
	return n.Valor.MarshalJSON()
}

// O returns the value, or def when the field was not sent.
func (n NumeroLaxo) O(def decimal.Decimal) decimal.Decimal {
	if !n.Presente {
		return def
	}
	return n.Valor
}
