package handler

import (
	"net/http"
	"strconv"

	"obraspm/internal/apierror"
	"obraspm/internal/dto"
	"obraspm/internal/service"

	"github.com/gin-gonic/gin"
)

type RequisicionesHandler struct{ svc service.RequisicionService }

func NewRequisicionesHandler(svc service.RequisicionService) *RequisicionesHandler {
	return &RequisicionesHandler{svc: svc}
}

// Crear godoc
// @Summary      Crear requisición
// @Description  Valida cabecera e ítems, calcula totales en el servidor y registra la entrada inicial del historial.
// @Tags         requisiciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearRequisicionRequest true "Requisición"
// @Success      201  {object} dto.RequisicionResponse
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/requisiciones [post]
func (h *RequisicionesHandler) Crear(c *gin.Context) {
	var req dto.CrearRequisicionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), actor(c), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Actualizar godoc
// @Summary      Editar requisición
// @Description  Solo en estado pendiente o en_cotizacion. Reemplaza los ítems y recalcula totales. El número no puede cambiar.
// @Tags         requisiciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path int                              true "ID de la requisición"
// @Param        body body dto.ActualizarRequisicionRequest true "Requisición"
// @Success      200  {object} dto.RequisicionResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/requisiciones/{id} [put]
func (h *RequisicionesHandler) Actualizar(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarRequisicionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), actor(c), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary      Detalle de requisición
// @Description  Incluye ítems e historial de estados (más reciente primero).
// @Tags         requisiciones
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "ID de la requisición"
// @Success      200 {object} dto.RequisicionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/requisiciones/{id} [get]
func (h *RequisicionesHandler) Obtener(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary      Listar requisiciones
// @Description  Excluye archivadas salvo archivadas=true, que devuelve solo las archivadas.
// @Tags         requisiciones
// @Produce      json
// @Security     BearerAuth
// @Param        archivadas query bool   false "Solo archivadas"
// @Param        estado     query string false "Filtrar por estado"
// @Param        q          query string false "Buscar en número, proveedor o concepto"
// @Param        page       query int    false "Página" default(1)
// @Param        limit      query int    false "Tamaño de página" default(20)
// @Success      200 {object} dto.RequisicionListResponse
// @Router       /v1/requisiciones [get]
func (h *RequisicionesHandler) Listar(c *gin.Context) {
	h.listar(c, "")
}

// ListarPorProyecto GET /v1/requisiciones/project/:projectId
func (h *RequisicionesHandler) ListarPorProyecto(c *gin.Context) {
	id, ok := paramUUID(c, "projectId")
	if !ok {
		return
	}
	h.listar(c, id.String())
}

func (h *RequisicionesHandler) listar(c *gin.Context, proyectoID string) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter := dto.RequisicionFilter{
		ProyectoID: proyectoID,
		Archivadas: c.Query("archivadas") == "true",
		Estado:     c.Query("estado"),
		Q:          c.Query("q"),
		Page:       page,
		Limit:      limit,
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CambiarEstado godoc
// @Summary      Cambiar estado
// @Description  Aplica una transición permitida y agrega una entrada al historial. Pasar a pagada registra el gasto del proyecto.
// @Tags         requisiciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path int                      true "ID de la requisición"
// @Param        body body dto.CambiarEstadoRequest true "Nuevo estado"
// @Success      200  {object} dto.RequisicionResponse
// @Failure      409  {object} apierror.APIError "Transición no permitida"
// @Router       /v1/requisiciones/{id}/estado [patch]
func (h *RequisicionesHandler) CambiarEstado(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var req dto.CambiarEstadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CambiarEstado(c.Request.Context(), actor(c), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Archivar godoc
// @Summary      Archivar requisición
// @Description  Oculta la requisición de los listados por defecto. Idempotente.
// @Tags         requisiciones
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "ID de la requisición"
// @Success      200 {object} dto.RequisicionResponse
// @Router       /v1/requisiciones/{id}/archivar [patch]
func (h *RequisicionesHandler) Archivar(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Archivar(c.Request.Context(), actor(c), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Restaurar PATCH /v1/requisiciones/:id/restaurar (administrador)
func (h *RequisicionesHandler) Restaurar(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Restaurar(c.Request.Context(), actor(c), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Calcular godoc
// @Summary      Previsualizar totales
// @Description  Cálculo sin estado. Valores no numéricos cuentan como cero; cantidad ausente cuenta como 1.
// @Tags         requisiciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CalcularTotalesRequest true "Ítems"
// @Success      200  {object} dto.TotalesResponse
// @Router       /v1/requisiciones/calcular [post]
func (h *RequisicionesHandler) Calcular(c *gin.Context) {
	var req dto.CalcularTotalesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, service.PrevisualizarTotales(req))
}

// PDF godoc
// @Summary      Descargar requisición en PDF
// @Tags         requisiciones
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path int true "ID de la requisición"
// @Success      200 {file} file
// @Router       /v1/requisiciones/{id}/pdf [get]
func (h *RequisicionesHandler) PDF(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	data, nombre, err := h.svc.GenerarPDF(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+nombre+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
