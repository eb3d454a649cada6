package handler

import (
	"net/http"

	"obraspm/internal/dto"
	"obraspm/internal/service"

	"github.com/gin-gonic/gin"
)

type ProyectosHandler struct{ svc service.ProyectoService }

func NewProyectosHandler(svc service.ProyectoService) *ProyectosHandler {
	return &ProyectosHandler{svc: svc}
}

// Crear godoc
// @Summary      Crear proyecto
// @Tags         proyectos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearProyectoRequest true "Proyecto"
// @Success      201  {object} dto.ProyectoResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/proyectos [post]
func (h *ProyectosHandler) Crear(c *gin.Context) {
	var req dto.CrearProyectoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar GET /v1/proyectos?incluir_inactivos=true
func (h *ProyectosHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context(), c.Query("incluir_inactivos") == "true")
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener GET /v1/proyectos/:id
func (h *ProyectosHandler) Obtener(c *gin.Context) {
	id, ok := paramUUID(c, "id")
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

// AgregarMiembro godoc
// @Summary      Agregar miembro al proyecto
// @Description  Vincula un usuario interno (usuario_id) o registra un contacto externo.
// @Tags         proyectos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                  true "UUID del proyecto"
// @Param        body body dto.CrearMiembroRequest true "Miembro"
// @Success      201  {object} dto.MiembroResponse
// @Router       /v1/proyectos/{id}/miembros [post]
func (h *ProyectosHandler) AgregarMiembro(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CrearMiembroRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AgregarMiembro(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarMiembros GET /v1/proyectos/:id/miembros
func (h *ProyectosHandler) ListarMiembros(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarMiembros(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
