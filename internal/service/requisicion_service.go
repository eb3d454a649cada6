package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"obraspm/internal/dto"
	"obraspm/internal/infra"
	"obraspm/internal/model"
	"obraspm/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// RegistradorGastos books a paid requisition as a realized project expense.
// It runs inside the transition's transaction.
type RegistradorGastos interface {
	RegistrarGastoRequisicion(ctx context.Context, tx *gorm.DB, r *model.Requisicion) error
}

// Notificador enqueues the async status notification. Implemented by
// worker.Dispatcher.
type Notificador interface {
	EnqueueNotificacion(ctx context.Context, job dto.NotificacionEstadoJob) error
}

type RequisicionService interface {
	Crear(ctx context.Context, actor Actor, req dto.CrearRequisicionRequest) (*dto.RequisicionResponse, error)
	Actualizar(ctx context.Context, actor Actor, id int64, req dto.ActualizarRequisicionRequest) (*dto.RequisicionResponse, error)
	Obtener(ctx context.Context, id int64) (*dto.RequisicionResponse, error)
	Listar(ctx context.Context, filter dto.RequisicionFilter) (*dto.RequisicionListResponse, error)
	CambiarEstado(ctx context.Context, actor Actor, id int64, req dto.CambiarEstadoRequest) (*dto.RequisicionResponse, error)
	Archivar(ctx context.Context, actor Actor, id int64) (*dto.RequisicionResponse, error)
	Restaurar(ctx context.Context, actor Actor, id int64) (*dto.RequisicionResponse, error)
	GenerarPDF(ctx context.Context, id int64) ([]byte, string, error)
}

type requisicionService struct {
	repo        repository.RequisicionRepository
	proyectos   repository.ProyectoRepository
	gastos      RegistradorGastos
	notificador Notificador
}

func NewRequisicionService(
	repo repository.RequisicionRepository,
	proyectos repository.ProyectoRepository,
	gastos RegistradorGastos,
	notificador Notificador,
) RequisicionService {
	return &requisicionService{
		repo:        repo,
		proyectos:   proyectos,
		gastos:      gastos,
		notificador: notificador,
	}
}

// ── Crear ─────────────────────────────────────────────────────────────────────
// 1. Resolve project and solicitante (must be a member of that project)
// 2. Reject duplicate numero within the project
// 3. Price items server-side
// 4. TX: insert requisition + items, append the creation history entry

func (s *requisicionService) Crear(ctx context.Context, actor Actor, req dto.CrearRequisicionRequest) (*dto.RequisicionResponse, error) {
	proyectoID, err := uuid.Parse(req.ProyectoID)
	if err != nil {
		return nil, ErrProyectoNoEncontrado
	}
	fecha, err := dto.ParseFecha(req.Fecha)
	if err != nil {
		return nil, ErrFechaInvalida
	}
	if _, err := s.proyectos.FindByID(ctx, proyectoID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProyectoNoEncontrado
		}
		return nil, err
	}
	solicitanteID, err := s.resolverSolicitante(ctx, proyectoID, req.SolicitanteID)
	if err != nil {
		return nil, err
	}

	numero := strings.TrimSpace(req.Numero)
	existe, err := s.repo.ExisteNumero(ctx, proyectoID, numero)
	if err != nil {
		return nil, err
	}
	if existe {
		return nil, ErrNumeroDuplicado
	}

	totales := CalcularTotales(itemsCalculo(req.Items), req.AplicaITBMS)
	if totales.FueraDeRango() {
		return nil, ErrMontoFueraDeRango
	}
	r := model.Requisicion{
		ProyectoID:    proyectoID,
		Numero:        numero,
		Fecha:         fecha,
		Proveedor:     strings.TrimSpace(req.Proveedor),
		Concepto:      strings.TrimSpace(req.Concepto),
		SolicitanteID: solicitanteID,
		Estado:        model.EstadoPendiente,
		AplicaITBMS:   req.AplicaITBMS,
		Subtotal:      totales.Subtotal,
		ITBMS:         totales.ITBMS,
		MontoTotal:    totales.MontoTotal,
		Items:         construirItems(req.Items, totales, req.AplicaITBMS),
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, &r); err != nil {
			// A concurrent create took the numero after ExisteNumero
			if errors.Is(err, repository.ErrDuplicado) {
				return ErrNumeroDuplicado
			}
			return fmt.Errorf("crear requisición: %w", err)
		}
		return s.repo.CreateHistorial(ctx, tx, &model.RequisicionHistorial{
			RequisicionID: r.ID,
			EstadoNuevo:   model.EstadoPendiente,
			UsuarioID:     actor.UsuarioID,
			UsuarioNombre: actor.NombreVisible(),
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Int64("requisicion_id", r.ID).
		Str("numero", r.Numero).
		Str("usuario", actor.NombreVisible()).
		Msg("requisición creada")

	return s.Obtener(ctx, r.ID)
}

// ── Actualizar ────────────────────────────────────────────────────────────────

func (s *requisicionService) Actualizar(ctx context.Context, actor Actor, id int64, req dto.ActualizarRequisicionRequest) (*dto.RequisicionResponse, error) {
	fecha, err := dto.ParseFecha(req.Fecha)
	if err != nil {
		return nil, ErrFechaInvalida
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		r, err := s.repo.FindForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRequisicionNoEncontrada
			}
			return err
		}
		if !EsEditable(r.Estado) {
			return ErrRequisicionNoEditable
		}
		if req.Numero != nil && strings.TrimSpace(*req.Numero) != r.Numero {
			return ErrNumeroInmutable
		}
		solicitanteID, err := s.resolverSolicitante(ctx, r.ProyectoID, req.SolicitanteID)
		if err != nil {
			return err
		}

		totales := CalcularTotales(itemsCalculo(req.Items), req.AplicaITBMS)
		if totales.FueraDeRango() {
			return ErrMontoFueraDeRango
		}
		r.Fecha = fecha
		r.Proveedor = strings.TrimSpace(req.Proveedor)
		r.Concepto = strings.TrimSpace(req.Concepto)
		r.SolicitanteID = solicitanteID
		r.AplicaITBMS = req.AplicaITBMS
		r.Subtotal = totales.Subtotal
		r.ITBMS = totales.ITBMS
		r.MontoTotal = totales.MontoTotal

		if err := s.repo.UpdateCabecera(ctx, tx, r); err != nil {
			return fmt.Errorf("actualizar requisición: %w", err)
		}
		return s.repo.ReplaceItems(ctx, tx, r.ID, construirItems(req.Items, totales, req.AplicaITBMS))
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().Int64("requisicion_id", id).Str("usuario", actor.NombreVisible()).Msg("requisición actualizada")
	return s.Obtener(ctx, id)
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *requisicionService) Obtener(ctx context.Context, id int64) (*dto.RequisicionResponse, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequisicionNoEncontrada
		}
		return nil, err
	}
	resp := requisicionResponse(r, true)
	return &resp, nil
}

func (s *requisicionService) Listar(ctx context.Context, filter dto.RequisicionFilter) (*dto.RequisicionListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.RequisicionResponse, len(list))
	for i := range list {
		data[i] = requisicionResponse(&list[i], false)
	}
	return &dto.RequisicionListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── CambiarEstado ─────────────────────────────────────────────────────────────
// The row is locked for the whole transaction: a concurrent transition waits,
// then re-reads the new estado and is validated against it.

func (s *requisicionService) CambiarEstado(ctx context.Context, actor Actor, id int64, req dto.CambiarEstadoRequest) (*dto.RequisicionResponse, error) {
	destino := model.EstadoRequisicion(req.Estado)
	if !EstadoValido(destino) {
		return nil, fmt.Errorf("%w: estado desconocido %q", ErrTransicionInvalida, req.Estado)
	}
	comentario := limpiarComentario(req.Comentario)

	var anterior model.EstadoRequisicion
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		r, err := s.repo.FindForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRequisicionNoEncontrada
			}
			return err
		}
		if !PuedeTransicionar(r.Estado, destino) {
			return fmt.Errorf("%w: %s → %s", ErrTransicionInvalida, r.Estado, destino)
		}
		anterior = r.Estado

		if err := s.repo.UpdateEstado(ctx, tx, r.ID, destino); err != nil {
			return err
		}
		if err := s.repo.CreateHistorial(ctx, tx, &model.RequisicionHistorial{
			RequisicionID:  r.ID,
			EstadoAnterior: &anterior,
			EstadoNuevo:    destino,
			Comentario:     comentario,
			UsuarioID:      actor.UsuarioID,
			UsuarioNombre:  actor.NombreVisible(),
		}); err != nil {
			return err
		}

		if destino == model.EstadoPagada && s.gastos != nil {
			r.Estado = destino
			if err := s.gastos.RegistrarGastoRequisicion(ctx, tx, r); err != nil {
				return fmt.Errorf("registrar gasto: %w", err)
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Int64("requisicion_id", id).
		Str("estado_anterior", string(anterior)).
		Str("estado_nuevo", string(destino)).
		Str("usuario", actor.NombreVisible()).
		Msg("estado de requisición actualizado")
	infra.Transiciones.WithLabelValues(string(anterior), string(destino)).Inc()

	s.notificar(ctx, dto.NotificacionEstadoJob{
		RequisicionID:  id,
		EstadoAnterior: string(anterior),
		EstadoNuevo:    string(destino),
		Comentario:     comentario,
		UsuarioNombre:  actor.NombreVisible(),
	})

	return s.Obtener(ctx, id)
}

// notificar is best effort: the transition is already committed.
func (s *requisicionService) notificar(ctx context.Context, job dto.NotificacionEstadoJob) {
	if s.notificador == nil {
		return
	}
	if err := s.notificador.EnqueueNotificacion(ctx, job); err != nil {
		log.Warn().Err(err).Int64("requisicion_id", job.RequisicionID).Msg("no se pudo encolar la notificación")
	}
}

// ── Archivo ───────────────────────────────────────────────────────────────────

func (s *requisicionService) Archivar(ctx context.Context, actor Actor, id int64) (*dto.RequisicionResponse, error) {
	return s.setArchivada(ctx, actor, id, true)
}

func (s *requisicionService) Restaurar(ctx context.Context, actor Actor, id int64) (*dto.RequisicionResponse, error) {
	return s.setArchivada(ctx, actor, id, false)
}

// setArchivada is idempotent: when the flag already has the requested value
// nothing is written.
func (s *requisicionService) setArchivada(ctx context.Context, actor Actor, id int64, archivada bool) (*dto.RequisicionResponse, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequisicionNoEncontrada
		}
		return nil, err
	}
	if r.Archivada != archivada {
		if err := s.repo.SetArchivada(ctx, id, archivada); err != nil {
			return nil, err
		}
		r.Archivada = archivada
		log.Info().
			Int64("requisicion_id", id).
			Bool("archivada", archivada).
			Str("usuario", actor.NombreVisible()).
			Msg("archivo de requisición actualizado")
	}
	resp := requisicionResponse(r, true)
	return &resp, nil
}

// ── PDF ───────────────────────────────────────────────────────────────────────

func (s *requisicionService) GenerarPDF(ctx context.Context, id int64) ([]byte, string, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrRequisicionNoEncontrada
		}
		return nil, "", err
	}
	data, err := infra.GenerarRequisicionPDF(r)
	if err != nil {
		return nil, "", err
	}
	return data, infra.NombreArchivoRequisicion(r), nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (s *requisicionService) resolverSolicitante(ctx context.Context, proyectoID uuid.UUID, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrSolicitanteInvalido
	}
	m, err := s.proyectos.FindMiembro(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, ErrSolicitanteInvalido
		}
		return uuid.Nil, err
	}
	if m.ProyectoID != proyectoID {
		return uuid.Nil, ErrSolicitanteInvalido
	}
	return m.ID, nil
}

func construirItems(in []dto.RequisicionItemInput, t Totales, aplicaITBMS bool) []model.RequisicionItem {
	items := make([]model.RequisicionItem, len(in))
	calc := itemsCalculo(in)
	for i, it := range in {
		unidad := it.Unidad
		if unidad == "" {
			unidad = "unidad"
		}
		items[i] = model.RequisicionItem{
			Orden:          i,
			Descripcion:    strings.TrimSpace(it.Descripcion),
			Cantidad:       calc[i].Cantidad,
			Unidad:         unidad,
			PrecioUnitario: calc[i].PrecioUnitario,
			AplicaITBMS:    aplicaITBMS,
			Subtotal:       t.Items[i].Subtotal,
			ITBMS:          t.Items[i].ITBMS,
			Total:          t.Items[i].Total,
		}
	}
	return items
}

func limpiarComentario(c *string) *string {
	if c == nil {
		return nil
	}
	v := strings.TrimSpace(*c)
	if v == "" {
		return nil
	}
	return &v
}

func requisicionResponse(r *model.Requisicion, detalle bool) dto.RequisicionResponse {
	siguientes := EstadosSiguientes(r.Estado)
	estados := make([]string, len(siguientes))
	for i, e := range siguientes {
		estados[i] = string(e)
	}
	resp := dto.RequisicionResponse{
		ID:                r.ID,
		ProyectoID:        r.ProyectoID.String(),
		Numero:            r.Numero,
		Fecha:             dto.FormatFecha(r.Fecha),
		Proveedor:         r.Proveedor,
		Concepto:          r.Concepto,
		SolicitanteID:     r.SolicitanteID.String(),
		Estado:            string(r.Estado),
		EstadosSiguientes: estados,
		Editable:          EsEditable(r.Estado),
		Archivada:         r.Archivada,
		AplicaITBMS:       r.AplicaITBMS,
		Subtotal:          r.Subtotal,
		ITBMS:             r.ITBMS,
		MontoTotal:        r.MontoTotal,
		CreatedAt:         dto.FormatTimestamp(r.CreatedAt),
		UpdatedAt:         dto.FormatTimestamp(r.UpdatedAt),
	}
	if r.Solicitante != nil {
		nombre := r.Solicitante.Nombre
		resp.SolicitanteNombre = &nombre
	}
	if !detalle {
		return resp
	}
	resp.Items = make([]dto.RequisicionItemResponse, len(r.Items))
	for i, it := range r.Items {
		resp.Items[i] = dto.RequisicionItemResponse{
			ID:             it.ID,
			Descripcion:    it.Descripcion,
			Cantidad:       it.Cantidad,
			Unidad:         it.Unidad,
			PrecioUnitario: it.PrecioUnitario,
			AplicaITBMS:    it.AplicaITBMS,
			Subtotal:       it.Subtotal,
			ITBMS:          it.ITBMS,
			Total:          it.Total,
		}
	}
	resp.Historial = make([]dto.HistorialEstadoResponse, len(r.Historial))
	for i, h := range r.Historial {
		var anterior *string
		if h.EstadoAnterior != nil {
			v := string(*h.EstadoAnterior)
			anterior = &v
		}
		resp.Historial[i] = dto.HistorialEstadoResponse{
			ID:             h.ID,
			EstadoAnterior: anterior,
			EstadoNuevo:    string(h.EstadoNuevo),
			Comentario:     h.Comentario,
			UsuarioNombre:  h.UsuarioNombre,
			CreatedAt:      dto.FormatTimestamp(h.CreatedAt),
		}
	}
	return resp
}
