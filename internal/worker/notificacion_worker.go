package worker

// notificacion_worker.go mails the solicitante when a requisition changes
// estado, with the current printout attached.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"obraspm/internal/dto"
	"obraspm/internal/infra"
	"obraspm/internal/model"
	"obraspm/internal/repository"

	"github.com/rs/zerolog/log"
)

// Enviador sends mail. Implemented by *infra.Mailer.
type Enviador interface {
	Habilitado() bool
	Enviar(msg infra.Mensaje) error
}

type NotificacionWorker struct {
	repo    repository.RequisicionRepository
	mailer  Enviador
	almacen infra.AlmacenPDF // optional
}

func NewNotificacionWorker(repo repository.RequisicionRepository, mailer Enviador, almacen infra.AlmacenPDF) *NotificacionWorker {
	return &NotificacionWorker{repo: repo, mailer: mailer, almacen: almacen}
}

func (w *NotificacionWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var job dto.NotificacionEstadoJob
	if err := json.Unmarshal(raw, &job); err != nil {
		// Retrying a malformed payload cannot succeed.
		log.Error().Err(err).Msg("notificacion_worker: invalid payload")
		return nil
	}

	r, err := w.repo.FindByID(ctx, job.RequisicionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn().Int64("requisicion_id", job.RequisicionID).Msg("notificacion_worker: requisition gone, skipping")
			return nil
		}
		return err
	}

	var to *string
	if r.Solicitante != nil {
		to = r.Solicitante.Contacto()
	}
	if to == nil {
		log.Info().Int64("requisicion_id", r.ID).Msg("notificacion_worker: solicitante has no email, skipping")
		return nil
	}
	if w.mailer == nil || !w.mailer.Habilitado() {
		log.Debug().Int64("requisicion_id", r.ID).Msg("notificacion_worker: smtp not configured, skipping")
		return nil
	}

	pdf, err := infra.GenerarRequisicionPDF(r)
	if err != nil {
		return err
	}
	nombre := infra.NombreArchivoRequisicion(r)
	if w.almacen != nil {
		if _, err := w.almacen.Guardar(ctx, nombre, pdf); err != nil {
			log.Warn().Err(err).Msg("notificacion_worker: could not archive pdf")
		}
	}

	msg := infra.Mensaje{
		Para:     []string{*to},
		Asunto:   fmt.Sprintf("Requisición %s: %s", r.Numero, infra.EtiquetaEstado(model.EstadoRequisicion(job.EstadoNuevo))),
		Texto:    cuerpoNotificacion(r, job),
		Adjuntos: []infra.Adjunto{{Nombre: nombre, ContentType: "application/pdf", Datos: pdf}},
	}
	if err := w.mailer.Enviar(msg); err != nil {
		return fmt.Errorf("enviar notificación: %w", err)
	}
	log.Info().Int64("requisicion_id", r.ID).Str("to", *to).Msg("notificacion_worker: sent")
	return nil
}

func cuerpoNotificacion(r *model.Requisicion, job dto.NotificacionEstadoJob) string {
	var b strings.Builder
	fmt.Fprintf(&b, "La requisición %s (%s) cambió de estado.\n\n", r.Numero, r.Proveedor)
	if job.EstadoAnterior != "" {
		fmt.Fprintf(&b, "Estado anterior: %s\n", infra.EtiquetaEstado(model.EstadoRequisicion(job.EstadoAnterior)))
	}
	fmt.Fprintf(&b, "Estado nuevo: %s\n", infra.EtiquetaEstado(model.EstadoRequisicion(job.EstadoNuevo)))
	fmt.Fprintf(&b, "Actualizado por: %s\n", job.UsuarioNombre)
	if job.Comentario != nil {
		fmt.Fprintf(&b, "Comentario: %s\n", *job.Comentario)
	}
	fmt.Fprintf(&b, "\nMonto total: B/. %s\n", r.MontoTotal.StringFixed(2))
	return b.String()
}
