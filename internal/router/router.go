package router

import (
	"context"
	"time"

	"obraspm/internal/config"
	"obraspm/internal/handler"
	"obraspm/internal/infra"
	"obraspm/internal/middleware"
	"obraspm/internal/repository"
	"obraspm/internal/service"
	"obraspm/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	admin      = middleware.RolAdministrador
	supervisor = middleware.RolSupervisor
	colab      = middleware.RolColaborador
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// ctx bounds the background goroutines started here (rate limiter purge).
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, smtpCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	apiLimiter := middleware.NewLimiter("api", cfg.RateLimitPerMinute, time.Minute)
	loginLimiter := middleware.NewLimiter("login", 20, time.Minute)
	go apiLimiter.RunPurge(ctx, 5*time.Minute)
	go loginLimiter.RunPurge(ctx, 5*time.Minute)

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(apiLimiter))

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	proyectoRepo := repository.NewProyectoRepository(db)
	requisicionRepo := repository.NewRequisicionRepository(db)
	costosRepo := repository.NewCostosRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// Worker dispatcher, injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	authSvc := service.NewAuthService(usuarioRepo, cfg)
	proyectoSvc := service.NewProyectoService(proyectoRepo, usuarioRepo)
	costosSvc := service.NewCostosService(costosRepo, proyectoRepo)
	requisicionSvc := service.NewRequisicionService(requisicionRepo, proyectoRepo, costosSvc, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	proyectosH := handler.NewProyectosHandler(proyectoSvc)
	requisicionesH := handler.NewRequisicionesHandler(requisicionSvc)
	costosH := handler.NewCostosHandler(costosSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(loginLimiter), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		todos := middleware.RequireRole(admin, supervisor, colab)

		req := v1.Group("/requisiciones", todos)
		{
			req.GET("", requisicionesH.Listar)
			req.POST("", requisicionesH.Crear)
			req.POST("/calcular", requisicionesH.Calcular)
			req.GET("/project/:projectId", requisicionesH.ListarPorProyecto)
			req.GET("/:id", requisicionesH.Obtener)
			req.PUT("/:id", requisicionesH.Actualizar)
			req.GET("/:id/pdf", requisicionesH.PDF)
			req.PATCH("/:id/estado", requisicionesH.CambiarEstado)
			req.PATCH("/:id/archivar", requisicionesH.Archivar)
		}
		// Restore is not part of the everyday workflow: administrador only
		v1.PATCH("/requisiciones/:id/restaurar", middleware.RequireRole(admin), requisicionesH.Restaurar)

		// Costs: everyone reads, supervisor/administrador write
		costs := v1.Group("/costs/projects/:id")
		{
			escritura := middleware.RequireRole(admin, supervisor)

			costs.GET("/categories", todos, costosH.ListarCategorias)
			costs.POST("/categories", escritura, costosH.CrearCategoria)
			costs.DELETE("/categories/:catId", escritura, costosH.EliminarCategoria)
			costs.POST("/categories/:catId/activate", escritura, costosH.ActivarCategoria)
			costs.GET("/budget", todos, costosH.ObtenerPresupuesto)
			costs.POST("/budget", escritura, costosH.GuardarPresupuesto)
			costs.POST("/budget/batch", escritura, costosH.AplicarCambios)
			costs.GET("/expenses", todos, costosH.ListarGastos)
			costs.GET("/expenses/export", todos, costosH.ExportarGastos)
			costs.POST("/expenses", escritura, costosH.RegistrarGasto)
			costs.GET("/summary", todos, costosH.Resumen)
		}

		proy := v1.Group("/proyectos")
		{
			proy.GET("", todos, proyectosH.Listar)
			proy.POST("", middleware.RequireRole(admin), proyectosH.Crear)
			proy.GET("/:id", todos, proyectosH.Obtener)
			proy.GET("/:id/miembros", todos, proyectosH.ListarMiembros)
			proy.POST("/:id/miembros", middleware.RequireRole(admin, supervisor), proyectosH.AgregarMiembro)
		}

		usuarios := v1.Group("/usuarios", middleware.RequireRole(admin))
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
