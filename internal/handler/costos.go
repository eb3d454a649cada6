package handler

import (
	"net/http"

	"obraspm/internal/dto"
	"obraspm/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type CostosHandler struct{ svc service.CostosService }

func NewCostosHandler(svc service.CostosService) *CostosHandler {
	return &CostosHandler{svc: svc}
}

// ListarCategorias GET /v1/costs/projects/:id/categories?incluir_inactivas=true
func (h *CostosHandler) ListarCategorias(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarCategorias(c.Request.Context(), id, c.Query("incluir_inactivas") == "true")
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CrearCategoria POST /v1/costs/projects/:id/categories
func (h *CostosHandler) CrearCategoria(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CrearCategoriaCostoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearCategoria(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// EliminarCategoria godoc
// @Summary      Desactivar categoría de costo
// @Description  Rechazado mientras la categoría tenga monto asignado; use budget/batch para quitarla y reasignar en un paso.
// @Tags         costos
// @Security     BearerAuth
// @Param        id    path string true "UUID del proyecto"
// @Param        catId path string true "UUID de la categoría"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/costs/projects/{id}/categories/{catId} [delete]
func (h *CostosHandler) EliminarCategoria(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	catID, ok := paramUUID(c, "catId")
	if !ok {
		return
	}
	if err := h.svc.DesactivarCategoria(c.Request.Context(), id, catID); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ActivarCategoria POST /v1/costs/projects/:id/categories/:catId/activate
func (h *CostosHandler) ActivarCategoria(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	catID, ok := paramUUID(c, "catId")
	if !ok {
		return
	}
	resp, err := h.svc.ActivarCategoria(c.Request.Context(), id, catID)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerPresupuesto GET /v1/costs/projects/:id/budget
func (h *CostosHandler) ObtenerPresupuesto(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPresupuesto(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GuardarPresupuesto godoc
// @Summary      Guardar presupuesto
// @Description  La suma de montos debe igualar el total (tolerancia 0.01).
// @Tags         costos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                        true "UUID del proyecto"
// @Param        body body dto.GuardarPresupuestoRequest true "Total y montos por categoría"
// @Success      200  {object} dto.PresupuestoResponse
// @Failure      422  {object} apierror.APIError "Presupuesto descuadrado"
// @Router       /v1/costs/projects/{id}/budget [post]
func (h *CostosHandler) GuardarPresupuesto(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.GuardarPresupuestoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.GuardarPresupuesto(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AplicarCambios godoc
// @Summary      Aplicar cambios de presupuesto
// @Description  Elimina, reactiva y crea categorías y guarda el mapeo completo en una sola transacción. Nada se escribe si el presupuesto no cuadra.
// @Tags         costos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                     true "UUID del proyecto"
// @Param        body body dto.ConjuntoCambiosRequest true "Cambios"
// @Success      200  {object} dto.PresupuestoResponse
// @Failure      422  {object} apierror.APIError "Presupuesto descuadrado"
// @Router       /v1/costs/projects/{id}/budget/batch [post]
func (h *CostosHandler) AplicarCambios(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ConjuntoCambiosRequest
	if !bindAndValidate(c, &req) {
		return
	}
	cambios, err := service.ConjuntoDesdeRequest(req)
	if err != nil {
		responderError(c, err)
		return
	}
	resp, err := h.svc.AplicarCambios(c.Request.Context(), id, cambios)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarGastos GET /v1/costs/projects/:id/expenses
func (h *CostosHandler) ListarGastos(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarGastos(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportarGastos GET /v1/costs/projects/:id/expenses/export
func (h *CostosHandler) ExportarGastos(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	f, nombre, err := h.svc.ExportarGastos(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+nombre+`"`)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		log.Error().Err(err).Str("proyecto_id", id.String()).Msg("exportar gastos: write failed")
	}
}

// RegistrarGasto POST /v1/costs/projects/:id/expenses
func (h *CostosHandler) RegistrarGasto(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CrearGastoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarGasto(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Resumen GET /v1/costs/projects/:id/summary
func (h *CostosHandler) Resumen(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Resumen(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
