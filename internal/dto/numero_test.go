package dto

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumeroLaxo_Unmarshal(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		valor    string
		presente bool
	}{
		{"numero", `12.5`, "12.5", true},
		{"string numerica", `"3"`, "3", true},
		{"string con espacios", `" 7.25 "`, "7.25", true},
		{"string vacia", `""`, "0", true},
		{"texto", `"abc"`, "0", true},
		{"booleano", `true`, "0", true},
		{"objeto", `{"a":1}`, "0", true},
		{"null", `null`, "0", false},
		{"redondea a 4 decimales", `"2.123456"`, "2.1235", true},
		{"precision excesiva", `1.0000000000000000000000000000000000001`, "1", true},
		{"exponente negativo enorme", `"1e-2000000000"`, "0", true},
		{"exponente positivo enorme", `1e2000000000`, "0", true},
		{"mas de 10 digitos enteros", `12345678901`, "0", true},
		{"10 digitos enteros", `9999999999.5`, "9999999999.5", true},
		{"redondeo desborda", `9999999999.99999`, "0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v struct {
				N NumeroLaxo `json:"n"`
			}
			require.NoError(t, json.Unmarshal([]byte(`{"n":`+tt.raw+`}`), &v))
			assert.True(t, decimal.RequireFromString(tt.valor).Equal(v.N.Valor), v.N.Valor.String())
			assert.Equal(t, tt.presente, v.N.Presente)
		})
	}
}

func TestNumeroLaxo_Ausente(t *testing.T) {
	var item RequisicionItemInput
	require.NoError(t, json.Unmarshal([]byte(`{"descripcion":"Arena"}`), &item))
	assert.False(t, item.Cantidad.Presente)
	assert.True(t, item.Cantidad.O(decimal.NewFromInt(1)).Equal(decimal.NewFromInt(1)))
}

func TestNumeroLaxo_MarshalSinComillas(t *testing.T) {
	b, err := json.Marshal(TotalesItemResponse{Subtotal: decimal.RequireFromString("100"), ITBMS: decimal.RequireFromString("7"), Total: decimal.RequireFromString("107")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"subtotal":100,"itbms":7,"total":107}`, string(b))

	b, err = json.Marshal(NuevoNumero(2.5))
	require.NoError(t, err)
	assert.Equal(t, "2.5", string(b))
}
