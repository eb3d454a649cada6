package infra

// pdf.go renders the printable requisition (A4, portrait) with go-pdf/fpdf:
//   - project and requisition header
//   - supplier, concept, requester
//   - item table
//   - subtotal / ITBMS / total block
//   - status history

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"obraspm/internal/model"

	"github.com/go-pdf/fpdf"
)

var etiquetasEstado = map[model.EstadoRequisicion]string{
	model.EstadoPendiente:    "Pendiente",
	model.EstadoEnCotizacion: "En cotización",
	model.EstadoPorAprobar:   "Por aprobar",
	model.EstadoAprobada:     "Aprobada",
	model.EstadoPagada:       "Pagada",
	model.EstadoRechazada:    "Rechazada",
}

// EtiquetaEstado returns the display label of an estado.
func EtiquetaEstado(e model.EstadoRequisicion) string {
	if l, ok := etiquetasEstado[e]; ok {
		return l
	}
	return string(e)
}

// NombreArchivoRequisicion is the download name of the printout.
func NombreArchivoRequisicion(r *model.Requisicion) string {
	numero := strings.Map(func(c rune) rune {
		if c == '/' || c == '\\' || c == ' ' {
			return '-'
		}
		return c
	}, r.Numero)
	return fmt.Sprintf("requisicion_%s.pdf", numero)
}

// GenerarRequisicionPDF renders r (with Items, Historial and Solicitante
// preloaded) into memory.
func GenerarRequisicionPDF(r *model.Requisicion) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 8, tr("Requisición de compra"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if r.Proyecto != nil {
		pdf.CellFormat(contentW, 5, tr(r.Proyecto.Codigo+" · "+r.Proyecto.Nombre), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	campo := func(label, valor string) {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(35, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(contentW-35, 6, tr(valor), "", "L", false)
	}
	campo("Número:", r.Numero)
	campo("Fecha:", r.Fecha.Format("02/01/2006"))
	campo("Estado:", EtiquetaEstado(r.Estado))
	campo("Proveedor:", r.Proveedor)
	campo("Concepto:", r.Concepto)
	if r.Solicitante != nil {
		campo("Solicitante:", r.Solicitante.Nombre)
	}
	pdf.Ln(3)

	// ── Items ────────────────────────────────────────────────────────────────
	cols := []float64{contentW * 0.44, contentW * 0.12, contentW * 0.12, contentW * 0.16, contentW * 0.16}
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range []string{"Descripción", "Cantidad", "Unidad", "Precio unit.", "Subtotal"} {
		align := "R"
		if i == 0 || i == 2 {
			align = "L"
		}
		pdf.CellFormat(cols[i], 6, tr(h), "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, it := range r.Items {
		desc := it.Descripcion
		if rs := []rune(desc); len(rs) > 60 {
			desc = string(rs[:59]) + "…"
		}
		pdf.CellFormat(cols[0], 6, tr(desc), "1", 0, "L", false, 0, "")
		pdf.CellFormat(cols[1], 6, it.Cantidad.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(cols[2], 6, tr(it.Unidad), "1", 0, "L", false, 0, "")
		pdf.CellFormat(cols[3], 6, "B/. "+it.PrecioUnitario.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(cols[4], 6, "B/. "+it.Subtotal.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.Ln(2)
	labelW := cols[0] + cols[1] + cols[2] + cols[3]
	total := func(label, valor string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 9)
		pdf.CellFormat(labelW, 6, tr(label), "", 0, "R", false, 0, "")
		pdf.CellFormat(cols[4], 6, "B/. "+valor, "", 1, "R", false, 0, "")
	}
	total("Subtotal:", r.Subtotal.StringFixed(2), false)
	if r.AplicaITBMS {
		total("ITBMS (7%):", r.ITBMS.StringFixed(2), false)
	}
	total("Total:", r.MontoTotal.StringFixed(2), true)

	// ── History ──────────────────────────────────────────────────────────────
	if len(r.Historial) > 0 {
		pdf.Ln(5)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(contentW, 6, tr("Historial de estados"), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		for _, h := range r.Historial {
			linea := h.CreatedAt.Format("02/01/2006 15:04") + "  "
			if h.EstadoAnterior != nil {
				linea += EtiquetaEstado(*h.EstadoAnterior) + " -> "
			}
			linea += EtiquetaEstado(h.EstadoNuevo) + "  (" + h.UsuarioNombre + ")"
			if h.Comentario != nil {
				linea += ": " + *h.Comentario
			}
			pdf.MultiCell(contentW, 5, tr(linea), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}

// GuardarPDF writes data under dir, creating it if needed, and returns the
// file path.
func GuardarPDF(dir, nombre string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	path := filepath.Join(dir, nombre)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return path, nil
}
