package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"obraspm/internal/dto"
	"obraspm/internal/model"
	"obraspm/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type CostosService interface {
	ListarCategorias(ctx context.Context, proyectoID uuid.UUID, incluirInactivas bool) ([]dto.CategoriaCostoResponse, error)
	CrearCategoria(ctx context.Context, proyectoID uuid.UUID, req dto.CrearCategoriaCostoRequest) (*dto.CategoriaCostoResponse, error)
	DesactivarCategoria(ctx context.Context, proyectoID, categoriaID uuid.UUID) error
	ActivarCategoria(ctx context.Context, proyectoID, categoriaID uuid.UUID) (*dto.CategoriaCostoResponse, error)

	ObtenerPresupuesto(ctx context.Context, proyectoID uuid.UUID) (*dto.PresupuestoResponse, error)
	GuardarPresupuesto(ctx context.Context, proyectoID uuid.UUID, req dto.GuardarPresupuestoRequest) (*dto.PresupuestoResponse, error)
	AplicarCambios(ctx context.Context, proyectoID uuid.UUID, cambios ConjuntoCambios) (*dto.PresupuestoResponse, error)

	ListarGastos(ctx context.Context, proyectoID uuid.UUID) ([]dto.GastoResponse, error)
	RegistrarGasto(ctx context.Context, proyectoID uuid.UUID, req dto.CrearGastoRequest) (*dto.GastoResponse, error)
	Resumen(ctx context.Context, proyectoID uuid.UUID) (*dto.ResumenCostosResponse, error)
	ExportarGastos(ctx context.Context, proyectoID uuid.UUID) (*excelize.File, string, error)

	RegistradorGastos
}

type costosService struct {
	repo      repository.CostosRepository
	proyectos repository.ProyectoRepository
}

func NewCostosService(repo repository.CostosRepository, proyectos repository.ProyectoRepository) CostosService {
	return &costosService{repo: repo, proyectos: proyectos}
}

// hoy is the date recorded on generated expenses.
var hoy = func() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *costosService) proyecto(ctx context.Context, id uuid.UUID) error {
	if _, err := s.proyectos.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProyectoNoEncontrado
		}
		return err
	}
	return nil
}

// categoria loads a category and checks it belongs to the project.
func (s *costosService) categoria(ctx context.Context, proyectoID, id uuid.UUID) (*model.CategoriaCosto, error) {
	c, err := s.repo.FindCategoria(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCategoriaNoEncontrada
		}
		return nil, err
	}
	if c.ProyectoID != proyectoID {
		return nil, ErrCategoriaNoEncontrada
	}
	return c, nil
}

// ── Categorías ────────────────────────────────────────────────────────────────

func (s *costosService) ListarCategorias(ctx context.Context, proyectoID uuid.UUID, incluirInactivas bool) ([]dto.CategoriaCostoResponse, error) {
	if err := s.proyecto(ctx, proyectoID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListCategorias(ctx, proyectoID, incluirInactivas)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.CategoriaCostoResponse, len(list))
	for i := range list {
		resp[i] = categoriaResponse(&list[i])
	}
	return resp, nil
}

func (s *costosService) CrearCategoria(ctx context.Context, proyectoID uuid.UUID, req dto.CrearCategoriaCostoRequest) (*dto.CategoriaCostoResponse, error) {
	if err := s.proyecto(ctx, proyectoID); err != nil {
		return nil, err
	}
	nombre := strings.TrimSpace(req.Nombre)
	if err := s.nombreLibre(ctx, proyectoID, nombre); err != nil {
		return nil, err
	}
	c := model.CategoriaCosto{ProyectoID: proyectoID, Nombre: nombre, Activo: true}
	if err := s.repo.CreateCategoria(ctx, nil, &c); err != nil {
		return nil, err
	}
	resp := categoriaResponse(&c)
	return &resp, nil
}

func (s *costosService) nombreLibre(ctx context.Context, proyectoID uuid.UUID, nombre string) error {
	_, err := s.repo.FindCategoriaPorNombre(ctx, proyectoID, nombre)
	if err == nil {
		return ErrCategoriaDuplicada
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// DesactivarCategoria refuses while the category still carries budget, so
// a single delete can never leave the budget unbalanced. Use AplicarCambios
// to remove and reassign in one step.
func (s *costosService) DesactivarCategoria(ctx context.Context, proyectoID, categoriaID uuid.UUID) error {
	if _, err := s.categoria(ctx, proyectoID, categoriaID); err != nil {
		return err
	}
	asignaciones, err := s.repo.ListAsignaciones(ctx, proyectoID)
	if err != nil {
		return err
	}
	for _, a := range asignaciones {
		if a.CategoriaID == categoriaID && !a.Monto.IsZero() {
			return ErrCategoriaConAsignacion
		}
	}
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.SetCategoriaActiva(ctx, tx, categoriaID, false); err != nil {
			return err
		}
		return s.repo.DeleteAsignacion(ctx, tx, proyectoID, categoriaID)
	})
}

func (s *costosService) ActivarCategoria(ctx context.Context, proyectoID, categoriaID uuid.UUID) (*dto.CategoriaCostoResponse, error) {
	c, err := s.categoria(ctx, proyectoID, categoriaID)
	if err != nil {
		return nil, err
	}
	if !c.Activo {
		if err := s.repo.SetCategoriaActiva(ctx, nil, categoriaID, true); err != nil {
			return nil, err
		}
		c.Activo = true
	}
	resp := categoriaResponse(c)
	return &resp, nil
}

// ── Presupuesto ───────────────────────────────────────────────────────────────

func (s *costosService) ObtenerPresupuesto(ctx context.Context, proyectoID uuid.UUID) (*dto.PresupuestoResponse, error) {
	if err := s.proyecto(ctx, proyectoID); err != nil {
		return nil, err
	}
	total := decimal.Zero
	configurado := true
	p, err := s.repo.FindPresupuesto(ctx, proyectoID)
	switch {
	case err == nil:
		total = p.Total
	case errors.Is(err, repository.ErrNotFound):
		configurado = false
	default:
		return nil, err
	}

	categorias, err := s.repo.ListCategorias(ctx, proyectoID, false)
	if err != nil {
		return nil, err
	}
	asignaciones, err := s.repo.ListAsignaciones(ctx, proyectoID)
	if err != nil {
		return nil, err
	}
	montos := make(map[uuid.UUID]decimal.Decimal, len(asignaciones))
	for _, a := range asignaciones {
		montos[a.CategoriaID] = a.Monto
	}

	resp := &dto.PresupuestoResponse{
		ProyectoID:  proyectoID.String(),
		Configurado: configurado,
		Categorias:  make([]dto.AsignacionResponse, len(categorias)),
	}
	valores := make([]decimal.Decimal, len(categorias))
	for i, c := range categorias {
		valores[i] = montos[c.ID]
		resp.Categorias[i] = dto.AsignacionResponse{
			CategoriaID: c.ID.String(),
			Nombre:      c.Nombre,
			Activo:      c.Activo,
			Monto:       montos[c.ID],
		}
	}
	conc := Conciliar(total, valores)
	resp.Total = conc.Total
	resp.Asignado = conc.Asignado
	resp.Diferencia = conc.Diferencia
	resp.Balanceado = conc.Balanceado
	return resp, nil
}

// GuardarPresupuesto saves total + mapping without category changes.
func (s *costosService) GuardarPresupuesto(ctx context.Context, proyectoID uuid.UUID, req dto.GuardarPresupuestoRequest) (*dto.PresupuestoResponse, error) {
	cambios, err := ConjuntoDesdeRequest(dto.ConjuntoCambiosRequest{Total: req.Total, Montos: req.Montos})
	if err != nil {
		return nil, err
	}
	return s.AplicarCambios(ctx, proyectoID, cambios)
}

// ── AplicarCambios ────────────────────────────────────────────────────────────
// 1. Check the final mapping balances (nothing is written otherwise)
// 2. Check every referenced category belongs to the project and ends active
// 3. TX: deactivate removals (dropping their allocation), reactivate,
//    create new categories, save total + full mapping

func (s *costosService) AplicarCambios(ctx context.Context, proyectoID uuid.UUID, cambios ConjuntoCambios) (*dto.PresupuestoResponse, error) {
	if err := cambios.Conciliar().Error(); err != nil {
		return nil, err
	}
	for _, m := range cambios.MontosFinales() {
		if m.IsNegative() {
			return nil, ErrMontoNegativo
		}
	}
	if err := s.proyecto(ctx, proyectoID); err != nil {
		return nil, err
	}
	if err := s.validarCambios(ctx, proyectoID, cambios); err != nil {
		return nil, err
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for _, id := range cambios.Eliminar {
			if err := s.repo.SetCategoriaActiva(ctx, tx, id, false); err != nil {
				return fmt.Errorf("desactivar categoría: %w", err)
			}
			if err := s.repo.DeleteAsignacion(ctx, tx, proyectoID, id); err != nil {
				return err
			}
		}
		for _, id := range cambios.Reactivar {
			if err := s.repo.SetCategoriaActiva(ctx, tx, id, true); err != nil {
				return fmt.Errorf("reactivar categoría: %w", err)
			}
		}

		asignaciones := make([]model.AsignacionPresupuesto, 0, len(cambios.Montos)+len(cambios.Nuevas))
		for _, n := range cambios.Nuevas {
			c := model.CategoriaCosto{ProyectoID: proyectoID, Nombre: strings.TrimSpace(n.Nombre), Activo: true}
			if err := s.repo.CreateCategoria(ctx, tx, &c); err != nil {
				return fmt.Errorf("crear categoría: %w", err)
			}
			asignaciones = append(asignaciones, model.AsignacionPresupuesto{CategoriaID: c.ID, Monto: n.Monto})
		}
		for id, m := range cambios.Montos {
			if cambios.elimina(id) {
				continue
			}
			asignaciones = append(asignaciones, model.AsignacionPresupuesto{CategoriaID: id, Monto: m})
		}
		return s.repo.GuardarPresupuesto(ctx, tx, proyectoID, cambios.Total, asignaciones)
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("proyecto_id", proyectoID.String()).
		Str("total", cambios.Total.String()).
		Int("eliminadas", len(cambios.Eliminar)).
		Int("reactivadas", len(cambios.Reactivar)).
		Int("nuevas", len(cambios.Nuevas)).
		Msg("presupuesto actualizado")

	return s.ObtenerPresupuesto(ctx, proyectoID)
}

func (s *costosService) validarCambios(ctx context.Context, proyectoID uuid.UUID, cambios ConjuntoCambios) error {
	for _, id := range cambios.Eliminar {
		if cambios.reactiva(id) {
			return ErrCambiosContradictorios
		}
		if _, err := s.categoria(ctx, proyectoID, id); err != nil {
			return err
		}
	}
	for _, id := range cambios.Reactivar {
		if _, err := s.categoria(ctx, proyectoID, id); err != nil {
			return err
		}
	}
	for id := range cambios.Montos {
		if cambios.elimina(id) {
			continue
		}
		c, err := s.categoria(ctx, proyectoID, id)
		if err != nil {
			return err
		}
		if !c.Activo && !cambios.reactiva(id) {
			return fmt.Errorf("%w: %s", ErrCategoriaInactiva, c.Nombre)
		}
	}
	vistos := make(map[string]bool, len(cambios.Nuevas))
	for _, n := range cambios.Nuevas {
		nombre := strings.TrimSpace(n.Nombre)
		clave := strings.ToLower(nombre)
		if vistos[clave] {
			return ErrCategoriaDuplicada
		}
		vistos[clave] = true
		if err := s.nombreLibre(ctx, proyectoID, nombre); err != nil {
			return err
		}
	}
	return nil
}

// ── Gastos ────────────────────────────────────────────────────────────────────

func (s *costosService) ListarGastos(ctx context.Context, proyectoID uuid.UUID) ([]dto.GastoResponse, error) {
	if err := s.proyecto(ctx, proyectoID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListGastos(ctx, proyectoID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.GastoResponse, len(list))
	for i := range list {
		resp[i] = gastoResponse(&list[i])
	}
	return resp, nil
}

func (s *costosService) RegistrarGasto(ctx context.Context, proyectoID uuid.UUID, req dto.CrearGastoRequest) (*dto.GastoResponse, error) {
	if err := s.proyecto(ctx, proyectoID); err != nil {
		return nil, err
	}
	fecha, err := dto.ParseFecha(req.Fecha)
	if err != nil {
		return nil, ErrFechaInvalida
	}
	g := model.GastoProyecto{
		ProyectoID: proyectoID,
		Monto:      req.Monto,
		Concepto:   strings.TrimSpace(req.Concepto),
		Fuente:     model.FuenteManual,
		Fecha:      fecha,
	}
	if req.CategoriaID != nil {
		catID, err := uuid.Parse(*req.CategoriaID)
		if err != nil {
			return nil, ErrCategoriaNoEncontrada
		}
		c, err := s.categoria(ctx, proyectoID, catID)
		if err != nil {
			return nil, err
		}
		g.CategoriaID = &c.ID
		g.Categoria = c
	}
	if err := s.repo.CreateGasto(ctx, nil, &g); err != nil {
		return nil, err
	}
	resp := gastoResponse(&g)
	return &resp, nil
}

// RegistrarGastoRequisicion books the requisition total as an expense of
// its project. Called once, when the requisition enters pagada.
func (s *costosService) RegistrarGastoRequisicion(ctx context.Context, tx *gorm.DB, r *model.Requisicion) error {
	ref := r.ID
	g := model.GastoProyecto{
		ProyectoID:   r.ProyectoID,
		Monto:        r.MontoTotal,
		Concepto:     fmt.Sprintf("Requisición %s · %s", r.Numero, r.Proveedor),
		Fuente:       model.FuenteRequisicion,
		ReferenciaID: &ref,
		Fecha:        hoy(),
	}
	return s.repo.CreateGasto(ctx, tx, &g)
}

// Resumen compares allocation and realized spend per category. Spend not
// tied to a category (paid requisitions) is reported under "Sin categoría".
func (s *costosService) Resumen(ctx context.Context, proyectoID uuid.UUID) (*dto.ResumenCostosResponse, error) {
	pres, err := s.ObtenerPresupuesto(ctx, proyectoID)
	if err != nil {
		return nil, err
	}
	gastos, err := s.repo.GastoPorCategoria(ctx, proyectoID)
	if err != nil {
		return nil, err
	}
	todas, err := s.repo.ListCategorias(ctx, proyectoID, true)
	if err != nil {
		return nil, err
	}

	asignado := make(map[string]decimal.Decimal, len(pres.Categorias))
	for _, a := range pres.Categorias {
		asignado[a.CategoriaID] = a.Monto
	}
	gastado := make(map[string]decimal.Decimal, len(gastos))
	sinCategoria := decimal.Zero
	totalGastado := decimal.Zero
	for _, g := range gastos {
		totalGastado = totalGastado.Add(g.Total)
		if g.CategoriaID == nil {
			sinCategoria = sinCategoria.Add(g.Total)
			continue
		}
		gastado[g.CategoriaID.String()] = g.Total
	}

	resp := &dto.ResumenCostosResponse{
		ProyectoID: proyectoID.String(),
		Total:      pres.Total,
		Gastado:    totalGastado,
		Disponible: pres.Total.Sub(totalGastado),
		Categorias: []dto.ResumenCategoriaResponse{},
	}
	for _, c := range todas {
		id := c.ID.String()
		a, g := asignado[id], gastado[id]
		if !c.Activo && a.IsZero() && g.IsZero() {
			continue
		}
		catID := id
		resp.Categorias = append(resp.Categorias, dto.ResumenCategoriaResponse{
			CategoriaID: &catID,
			Nombre:      c.Nombre,
			Asignado:    a,
			Gastado:     g,
			Disponible:  a.Sub(g),
		})
	}
	sort.SliceStable(resp.Categorias, func(i, j int) bool {
		return resp.Categorias[i].Nombre < resp.Categorias[j].Nombre
	})
	if !sinCategoria.IsZero() {
		resp.Categorias = append(resp.Categorias, dto.ResumenCategoriaResponse{
			Nombre:     "Sin categoría",
			Asignado:   decimal.Zero,
			Gastado:    sinCategoria,
			Disponible: sinCategoria.Neg(),
		})
	}
	return resp, nil
}

func categoriaResponse(c *model.CategoriaCosto) dto.CategoriaCostoResponse {
	return dto.CategoriaCostoResponse{
		ID:         c.ID.String(),
		ProyectoID: c.ProyectoID.String(),
		Nombre:     c.Nombre,
		Activo:     c.Activo,
	}
}

func gastoResponse(g *model.GastoProyecto) dto.GastoResponse {
	resp := dto.GastoResponse{
		ID:           g.ID.String(),
		ProyectoID:   g.ProyectoID.String(),
		Monto:        g.Monto,
		Concepto:     g.Concepto,
		Fuente:       g.Fuente,
		ReferenciaID: g.ReferenciaID,
		Fecha:        dto.FormatFecha(g.Fecha),
	}
	if g.CategoriaID != nil {
		id := g.CategoriaID.String()
		resp.CategoriaID = &id
	}
	if g.Categoria != nil {
		nombre := g.Categoria.Nombre
		resp.Categoria = &nombre
	}
	return resp
}
