package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"obraspm/internal/repository"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	hojaGastos  = "Gastos"
	hojaResumen = "Resumen"
)

var (
	encabezadosGastos  = []string{"Fecha", "Concepto", "Categoría", "Fuente", "Requisición", "Monto (B/.)"}
	encabezadosResumen = []string{"Categoría", "Asignado (B/.)", "Gastado (B/.)", "Disponible (B/.)"}
)

// ExportarGastos builds a workbook with the project's expenses and the
// allocation vs spend summary. Returns the file and a download name.
func (s *costosService) ExportarGastos(ctx context.Context, proyectoID uuid.UUID) (*excelize.File, string, error) {
	p, err := s.proyectos.FindByID(ctx, proyectoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrProyectoNoEncontrado
		}
		return nil, "", err
	}
	gastos, err := s.ListarGastos(ctx, proyectoID)
	if err != nil {
		return nil, "", err
	}
	resumen, err := s.Resumen(ctx, proyectoID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", hojaGastos); err != nil {
		return nil, "", err
	}
	if _, err := f.NewSheet(hojaResumen); err != nil {
		return nil, "", err
	}

	negrita, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	moneda, _ := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00

	escribirEncabezados(f, hojaGastos, encabezadosGastos, negrita)
	for i, g := range gastos {
		fila := i + 2
		categoria := ""
		if g.Categoria != nil {
			categoria = *g.Categoria
		}
		_ = f.SetCellValue(hojaGastos, fmt.Sprintf("A%d", fila), g.Fecha)
		_ = f.SetCellValue(hojaGastos, fmt.Sprintf("B%d", fila), g.Concepto)
		_ = f.SetCellValue(hojaGastos, fmt.Sprintf("C%d", fila), categoria)
		_ = f.SetCellValue(hojaGastos, fmt.Sprintf("D%d", fila), g.Fuente)
		if g.ReferenciaID != nil {
			_ = f.SetCellValue(hojaGastos, fmt.Sprintf("E%d", fila), *g.ReferenciaID)
		}
		_ = f.SetCellValue(hojaGastos, fmt.Sprintf("F%d", fila), g.Monto.InexactFloat64())
	}
	total := len(gastos) + 2
	_ = f.SetCellValue(hojaGastos, fmt.Sprintf("A%d", total), "Total")
	_ = f.SetCellValue(hojaGastos, fmt.Sprintf("F%d", total), resumen.Gastado.InexactFloat64())
	_ = f.SetCellStyle(hojaGastos, "F2", fmt.Sprintf("F%d", total), moneda)
	_ = f.SetColWidth(hojaGastos, "B", "B", 48)

	escribirEncabezados(f, hojaResumen, encabezadosResumen, negrita)
	for i, c := range resumen.Categorias {
		fila := i + 2
		_ = f.SetCellValue(hojaResumen, fmt.Sprintf("A%d", fila), c.Nombre)
		_ = f.SetCellValue(hojaResumen, fmt.Sprintf("B%d", fila), c.Asignado.InexactFloat64())
		_ = f.SetCellValue(hojaResumen, fmt.Sprintf("C%d", fila), c.Gastado.InexactFloat64())
		_ = f.SetCellValue(hojaResumen, fmt.Sprintf("D%d", fila), c.Disponible.InexactFloat64())
	}
	fin := len(resumen.Categorias) + 2
	_ = f.SetCellValue(hojaResumen, fmt.Sprintf("A%d", fin), "Presupuesto")
	_ = f.SetCellValue(hojaResumen, fmt.Sprintf("B%d", fin), resumen.Total.InexactFloat64())
	_ = f.SetCellValue(hojaResumen, fmt.Sprintf("C%d", fin), resumen.Gastado.InexactFloat64())
	_ = f.SetCellValue(hojaResumen, fmt.Sprintf("D%d", fin), resumen.Disponible.InexactFloat64())
	_ = f.SetCellStyle(hojaResumen, "B2", fmt.Sprintf("D%d", fin), moneda)
	_ = f.SetColWidth(hojaResumen, "A", "A", 28)

	return f, fmt.Sprintf("gastos_%s.xlsx", nombreSeguro(p.Codigo)), nil
}

func escribirEncabezados(f *excelize.File, hoja string, encabezados []string, estilo int) {
	for i, h := range encabezados {
		col, _ := excelize.ColumnNumberToName(i + 1)
		celda := col + "1"
		_ = f.SetCellValue(hoja, celda, h)
		_ = f.SetCellStyle(hoja, celda, celda, estilo)
	}
}

func nombreSeguro(s string) string {
	return strings.Map(func(c rune) rune {
		if c == '/' || c == '\\' || c == ' ' {
			return '-'
		}
		return c
	}, s)
}
