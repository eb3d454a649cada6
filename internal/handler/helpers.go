package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"obraspm/internal/apierror"
	"obraspm/internal/dto"
	"obraspm/internal/middleware"
	"obraspm/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(dto.NumeroLaxo); ok {
			f, _ := v.Valor.Float64()
			return f
		}
		return nil
	}, dto.NumeroLaxo{})

	// Field errors use the JSON names the client sent.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = validate.RegisterValidation("notblank", validators.NotBlank)
	_ = validate.RegisterValidation("fecha", func(fl validator.FieldLevel) bool {
		_, err := dto.ParseFecha(fl.Field().String())
		return err == nil
	})
	// mintrim=N: at least N characters once surrounding spaces are dropped,
	// which is what the services store.
	_ = validate.RegisterValidation("mintrim", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= n
	})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[campo(fe)] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// campo turns "CrearRequisicionRequest.items[0].descripcion" into
// "items[0].descripcion".
func campo(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// actor builds the audit identity from the JWT claims.
func actor(c *gin.Context) service.Actor {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return service.Actor{}
	}
	return service.Actor{
		UsuarioID: claims.UsuarioID(),
		Username:  claims.Username,
		Nombre:    claims.Nombre,
		Rol:       claims.Rol,
	}
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}

func paramInt64(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return 0, false
	}
	return id, true
}

// descuadreResponse is the 422 body of an unbalanced budget.
type descuadreResponse struct {
	Detail     string          `json:"detail"`
	Tipo       string          `json:"tipo"` // faltante | exceso | total_invalido
	Total      decimal.Decimal `json:"total"`
	Asignado   decimal.Decimal `json:"asignado"`
	Diferencia decimal.Decimal `json:"diferencia"`
}

// responderError maps service errors to HTTP statuses. Anything unknown is
// logged and answered with a generic 500.
func responderError(c *gin.Context, err error) {
	var desc *service.DescuadreError
	switch {
	case errors.As(err, &desc):
		tipo := "exceso"
		if !desc.Total.IsPositive() {
			tipo = "total_invalido"
		} else if desc.Faltante() {
			tipo = "faltante"
		}
		c.JSON(http.StatusUnprocessableEntity, descuadreResponse{
			Detail:     desc.Error(),
			Tipo:       tipo,
			Total:      desc.Total,
			Asignado:   desc.Asignado,
			Diferencia: desc.Diferencia,
		})

	case errors.Is(err, service.ErrRequisicionNoEncontrada),
		errors.Is(err, service.ErrProyectoNoEncontrado),
		errors.Is(err, service.ErrCategoriaNoEncontrada),
		errors.Is(err, service.ErrUsuarioNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))

	case errors.Is(err, service.ErrTransicionInvalida),
		errors.Is(err, service.ErrRequisicionNoEditable),
		errors.Is(err, service.ErrNumeroDuplicado),
		errors.Is(err, service.ErrCodigoDuplicado),
		errors.Is(err, service.ErrMiembroDuplicado),
		errors.Is(err, service.ErrCategoriaDuplicada),
		errors.Is(err, service.ErrCategoriaConAsignacion),
		errors.Is(err, service.ErrUsuarioDuplicado):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))

	case errors.Is(err, service.ErrNumeroInmutable):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidationMsg(err.Error(), map[string]string{"numero": "inmutable"}))
	case errors.Is(err, service.ErrFechaInvalida):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidationMsg(err.Error(), map[string]string{"fecha": "fecha"}))
	case errors.Is(err, service.ErrSolicitanteInvalido):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidationMsg(err.Error(), map[string]string{"solicitante_id": "miembro"}))
	case errors.Is(err, service.ErrMontoFueraDeRango):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidationMsg(err.Error(), map[string]string{"items": "monto"}))
	case errors.Is(err, service.ErrMiembroSinNombre):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidationMsg(err.Error(), map[string]string{"nombre": "required"}))
	case errors.Is(err, service.ErrCategoriaInactiva),
		errors.Is(err, service.ErrCambiosContradictorios),
		errors.Is(err, service.ErrMontoNegativo):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))

	case errors.Is(err, service.ErrCredencialesInvalidas),
		errors.Is(err, service.ErrTokenInvalido):
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))

	default:
		log.Error().
			Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("unexpected service error")
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
	}
}
