package service

import (
	"context"
	"errors"
	"testing"

	"obraspm/internal/dto"
	"obraspm/internal/infra"
	"obraspm/internal/model"
	"obraspm/internal/repository"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requisicionFixture struct {
	svc         RequisicionService
	repo        *stubRequisicionRepo
	proyectos   *stubProyectoRepo
	gastos      *stubGastos
	notificador *stubNotificador
	proyectoID  uuid.UUID
	miembroID   uuid.UUID
	actor       Actor
}

func newRequisicionFixture() *requisicionFixture {
	f := &requisicionFixture{
		repo:        newStubRequisicionRepo(),
		proyectos:   newStubProyectoRepo(),
		gastos:      &stubGastos{},
		notificador: &stubNotificador{},
	}
	f.proyectoID, f.miembroID = seedProyecto(f.proyectos)
	uid := uuid.New()
	f.actor = Actor{UsuarioID: &uid, Username: "lgarcia", Nombre: "Luis García", Rol: "supervisor"}
	f.svc = NewRequisicionService(f.repo, f.proyectos, f.gastos, f.notificador)
	return f
}

func (f *requisicionFixture) crearRequest(numero string) dto.CrearRequisicionRequest {
	return dto.CrearRequisicionRequest{
		ProyectoID:    f.proyectoID.String(),
		Numero:        numero,
		Fecha:         "2026-03-15",
		Proveedor:     "Ferretería Central",
		Concepto:      "Materiales losa nivel 2",
		SolicitanteID: f.miembroID.String(),
		AplicaITBMS:   true,
		Items: []dto.RequisicionItemInput{
			{Descripcion: "Cemento gris", Cantidad: dto.NuevoNumero(2), Unidad: "bolsa", PrecioUnitario: dto.NuevoNumero(50)},
		},
	}
}

func (f *requisicionFixture) crear(t *testing.T, numero string) *dto.RequisicionResponse {
	t.Helper()
	resp, err := f.svc.Crear(context.Background(), f.actor, f.crearRequest(numero))
	require.NoError(t, err)
	return resp
}

func (f *requisicionFixture) cambiar(id int64, estado string) (*dto.RequisicionResponse, error) {
	return f.svc.CambiarEstado(context.Background(), f.actor, id, dto.CambiarEstadoRequest{Estado: estado})
}

func TestRequisicion_CrearRegistraHistorialInicial(t *testing.T) {
	f := newRequisicionFixture()

	resp := f.crear(t, "REQ-001")

	assert.Equal(t, "pendiente", resp.Estado)
	assert.True(t, resp.Editable)
	assert.True(t, dec("100").Equal(resp.Subtotal))
	assert.True(t, dec("7").Equal(resp.ITBMS))
	assert.True(t, dec("107").Equal(resp.MontoTotal))
	assert.Equal(t, "2026-03-15", resp.Fecha)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "bolsa", resp.Items[0].Unidad)
	assert.True(t, resp.Items[0].AplicaITBMS)

	require.Len(t, resp.Historial, 1)
	assert.Nil(t, resp.Historial[0].EstadoAnterior)
	assert.Equal(t, "pendiente", resp.Historial[0].EstadoNuevo)
	assert.Equal(t, "Luis García", resp.Historial[0].UsuarioNombre)
}

func TestRequisicion_CrearNumeroDuplicado(t *testing.T) {
	f := newRequisicionFixture()
	f.crear(t, "REQ-001")

	_, err := f.svc.Crear(context.Background(), f.actor, f.crearRequest("REQ-001"))
	assert.ErrorIs(t, err, ErrNumeroDuplicado)
	assert.Len(t, f.repo.rows, 1)
}

func TestRequisicion_CrearNumeroTomadoEnCarrera(t *testing.T) {
	f := newRequisicionFixture()
	f.repo.createErr = repository.ErrDuplicado

	_, err := f.svc.Crear(context.Background(), f.actor, f.crearRequest("REQ-001"))

	assert.ErrorIs(t, err, ErrNumeroDuplicado)
	assert.Empty(t, f.repo.historial)
	assert.Empty(t, f.notificador.jobs)
}

func TestRequisicion_CrearGuardaMontosEnCentimos(t *testing.T) {
	f := newRequisicionFixture()
	req := f.crearRequest("REQ-001")
	req.Items[0].Cantidad = dto.NuevoNumero(2.375)
	req.Items[0].PrecioUnitario = dto.NuevoNumero(10.33)

	resp, err := f.svc.Crear(context.Background(), f.actor, req)
	require.NoError(t, err)

	row := f.repo.rows[resp.ID]
	assert.True(t, dec("24.53").Equal(row.Subtotal), row.Subtotal.String())
	assert.True(t, dec("1.72").Equal(row.ITBMS), row.ITBMS.String())
	assert.True(t, dec("26.25").Equal(row.MontoTotal), row.MontoTotal.String())
	assert.True(t, row.Subtotal.Add(row.ITBMS).Equal(row.MontoTotal))
}

func TestRequisicion_CrearMontoFueraDeRango(t *testing.T) {
	f := newRequisicionFixture()
	req := f.crearRequest("REQ-001")
	req.Items[0].Cantidad = dto.NuevoNumero(9999999999)
	req.Items[0].PrecioUnitario = dto.NuevoNumero(9999999999)

	_, err := f.svc.Crear(context.Background(), f.actor, req)

	assert.ErrorIs(t, err, ErrMontoFueraDeRango)
	assert.Empty(t, f.repo.rows)
}

func TestRequisicion_CrearSolicitanteDeOtroProyecto(t *testing.T) {
	f := newRequisicionFixture()
	otroProyecto, otroMiembro := seedProyecto(f.proyectos)
	require.NotEqual(t, f.proyectoID, otroProyecto)

	req := f.crearRequest("REQ-001")
	req.SolicitanteID = otroMiembro.String()

	_, err := f.svc.Crear(context.Background(), f.actor, req)
	assert.ErrorIs(t, err, ErrSolicitanteInvalido)
	assert.Empty(t, f.repo.rows)
}

func TestRequisicion_CrearProyectoInexistente(t *testing.T) {
	f := newRequisicionFixture()
	req := f.crearRequest("REQ-001")
	req.ProyectoID = uuid.NewString()

	_, err := f.svc.Crear(context.Background(), f.actor, req)
	assert.ErrorIs(t, err, ErrProyectoNoEncontrado)
}

func TestRequisicion_TransicionInvalidaNoEscribeHistorial(t *testing.T) {
	f := newRequisicionFixture()
	r := f.crear(t, "REQ-001")
	salto := infra.Transiciones.WithLabelValues("pendiente", "pagada")
	antes := testutil.ToFloat64(salto)

	_, err := f.cambiar(r.ID, "pagada")

	assert.ErrorIs(t, err, ErrTransicionInvalida)
	assert.Equal(t, antes, testutil.ToFloat64(salto))
	assert.Len(t, f.repo.historialDe(r.ID), 1)
	assert.Equal(t, model.EstadoPendiente, f.repo.rows[r.ID].Estado)
	assert.Empty(t, f.notificador.jobs)
	assert.Empty(t, f.gastos.pagadas)
}

func TestRequisicion_FlujoHastaPagada(t *testing.T) {
	f := newRequisicionFixture()
	r := f.crear(t, "REQ-001")
	pago := infra.Transiciones.WithLabelValues("aprobada", "pagada")
	antes := testutil.ToFloat64(pago)

	for _, e := range []string{"por_aprobar", "aprobada", "pagada"} {
		_, err := f.cambiar(r.ID, e)
		require.NoError(t, err, e)
	}

	got, err := f.svc.Obtener(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, "pagada", got.Estado)
	assert.Empty(t, got.EstadosSiguientes)
	assert.False(t, got.Editable)

	// creation + 3 transitions, newest first
	require.Len(t, got.Historial, 4)
	assert.Equal(t, "pagada", got.Historial[0].EstadoNuevo)
	require.NotNil(t, got.Historial[0].EstadoAnterior)
	assert.Equal(t, "aprobada", *got.Historial[0].EstadoAnterior)

	assert.Equal(t, []int64{r.ID}, f.gastos.pagadas)
	assert.Equal(t, antes+1, testutil.ToFloat64(pago))
	require.Len(t, f.notificador.jobs, 3)
	assert.Equal(t, "aprobada", f.notificador.jobs[2].EstadoAnterior)
	assert.Equal(t, "pagada", f.notificador.jobs[2].EstadoNuevo)

	for _, e := range Estados {
		_, err := f.cambiar(r.ID, string(e))
		assert.ErrorIs(t, err, ErrTransicionInvalida, e)
	}
	assert.Len(t, f.repo.historialDe(r.ID), 4)
}

func TestRequisicion_RechazadaVuelveAPendienteConComentario(t *testing.T) {
	f := newRequisicionFixture()
	r := f.crear(t, "REQ-001")

	_, err := f.cambiar(r.ID, "rechazada")
	require.NoError(t, err)

	comentario := "  Cotización vencida  "
	got, err := f.svc.CambiarEstado(context.Background(), f.actor, r.ID,
		dto.CambiarEstadoRequest{Estado: "pendiente", Comentario: &comentario})
	require.NoError(t, err)
	assert.Equal(t, "pendiente", got.Estado)
	require.NotNil(t, got.Historial[0].Comentario)
	assert.Equal(t, "Cotización vencida", *got.Historial[0].Comentario)
}

func TestRequisicion_EstadoDesconocido(t *testing.T) {
	f := newRequisicionFixture()
	r := f.crear(t, "REQ-001")

	_, err := f.cambiar(r.ID, "borrador")
	assert.ErrorIs(t, err, ErrTransicionInvalida)
}

func TestRequisicion_CambiarEstadoNoEncontrada(t *testing.T) {
	f := newRequisicionFixture()
	_, err := f.cambiar(999, "por_aprobar")
	assert.ErrorIs(t, err, ErrRequisicionNoEncontrada)
}

func TestRequisicion_FalloDeNotificacionNoRevierte(t *testing.T) {
	f := newRequisicionFixture()
	f.notificador.err = errors.New("redis caído")
	r := f.crear(t, "REQ-001")

	got, err := f.cambiar(r.ID, "en_cotizacion")

	require.NoError(t, err)
	assert.Equal(t, "en_cotizacion", got.Estado)
	assert.Len(t, f.repo.historialDe(r.ID), 2)
}

func TestRequisicion_ArchivarEsIdempotente(t *testing.T) {
	f := newRequisicionFixture()
	r := f.crear(t, "REQ-001")
	writes := f.repo.writes

	got, err := f.svc.Archivar(context.Background(), f.actor, r.ID)
	require.NoError(t, err)
	assert.True(t, got.Archivada)
	assert.Equal(t, writes+1, f.repo.writes)

	got, err = f.svc.Archivar(context.Background(), f.actor, r.ID)
	require.NoError(t, err)
	assert.True(t, got.Archivada)
	assert.Equal(t, writes+1, f.repo.writes, "second archive must not write")

	// archiving never touches estado or history
	assert.Equal(t, "pendiente", got.Estado)
	assert.Len(t, f.repo.historialDe(r.ID), 1)

	got, err = f.svc.Restaurar(context.Background(), f.actor, r.ID)
	require.NoError(t, err)
	assert.False(t, got.Archivada)
}

func TestRequisicion_ListarSeparaArchivadas(t *testing.T) {
	f := newRequisicionFixture()
	a := f.crear(t, "REQ-001")
	f.crear(t, "REQ-002")
	_, err := f.svc.Archivar(context.Background(), f.actor, a.ID)
	require.NoError(t, err)

	activas, err := f.svc.Listar(context.Background(), dto.RequisicionFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, activas.Total)
	assert.Equal(t, "REQ-002", activas.Data[0].Numero)
	assert.Equal(t, 1, activas.Page)
	assert.Equal(t, 20, activas.Limit)
	assert.Empty(t, activas.Data[0].Items, "list rows carry no detail")

	archivadas, err := f.svc.Listar(context.Background(), dto.RequisicionFilter{Archivadas: true, Limit: 500})
	require.NoError(t, err)
	assert.EqualValues(t, 1, archivadas.Total)
	assert.Equal(t, "REQ-001", archivadas.Data[0].Numero)
	assert.Equal(t, 20, archivadas.Limit)
}

func (f *requisicionFixture) actualizarRequest(numero *string) dto.ActualizarRequisicionRequest {
	return dto.ActualizarRequisicionRequest{
		Numero:        numero,
		Fecha:         "2026-03-20",
		Proveedor:     "Materiales del Istmo",
		Concepto:      "Materiales losa nivel 2 (revisado)",
		SolicitanteID: f.miembroID.String(),
		AplicaITBMS:   false,
		Items: []dto.RequisicionItemInput{
			{Descripcion: "Cemento gris", Cantidad: dto.NuevoNumero(4), PrecioUnitario: dto.NuevoNumero(48)},
			{Descripcion: "Arena", PrecioUnitario: dto.NuevoNumero(30)},
		},
	}
}

func TestRequisicion_ActualizarRecalculaTotales(t *testing.T) {
	f := newRequisicionFixture()
	r := f.crear(t, "REQ-001")
	numero := "REQ-001"

	got, err := f.svc.Actualizar(context.Background(), f.actor, r.ID, f.actualizarRequest(&numero))

	require.NoError(t, err)
	assert.Equal(t, "Materiales del Istmo", got.Proveedor)
	assert.Equal(t, "2026-03-20", got.Fecha)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "unidad", got.Items[1].Unidad)
	assert.True(t, dec("222").Equal(got.Subtotal), got.Subtotal.String())
	assert.True(t, got.ITBMS.IsZero())
	assert.True(t, dec("222").Equal(got.MontoTotal))
	assert.Len(t, got.Historial, 1, "edits are not transitions")
}

func TestRequisicion_NumeroInmutable(t *testing.T) {
	f := newRequisicionFixture()
	r := f.crear(t, "REQ-001")
	otro := "REQ-999"

	_, err := f.svc.Actualizar(context.Background(), f.actor, r.ID, f.actualizarRequest(&otro))

	assert.ErrorIs(t, err, ErrNumeroInmutable)
	assert.Equal(t, "REQ-001", f.repo.rows[r.ID].Numero)
}

func TestRequisicion_NoEditableFueraDePendienteOCotizacion(t *testing.T) {
	f := newRequisicionFixture()
	r := f.crear(t, "REQ-001")
	_, err := f.cambiar(r.ID, "en_cotizacion")
	require.NoError(t, err)

	_, err = f.svc.Actualizar(context.Background(), f.actor, r.ID, f.actualizarRequest(nil))
	require.NoError(t, err, "en_cotizacion is still editable")

	_, err = f.cambiar(r.ID, "por_aprobar")
	require.NoError(t, err)

	_, err = f.svc.Actualizar(context.Background(), f.actor, r.ID, f.actualizarRequest(nil))
	assert.ErrorIs(t, err, ErrRequisicionNoEditable)
}

func TestRequisicion_GenerarPDF(t *testing.T) {
	f := newRequisicionFixture()
	r := f.crear(t, "REQ/001")

	data, nombre, err := f.svc.GenerarPDF(context.Background(), r.ID)

	require.NoError(t, err)
	assert.True(t, len(data) > 4)
	assert.Equal(t, "%PDF", string(data[:4]))
	assert.NotContains(t, nombre, "/")
}
