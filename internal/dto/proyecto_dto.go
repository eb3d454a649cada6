package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProyectoRequest struct {
	Codigo    string  `json:"codigo"    validate:"required,notblank,mintrim=2,max=30"`
	Nombre    string  `json:"nombre"    validate:"required,notblank,mintrim=2,max=200"`
	Cliente   *string `json:"cliente"`
	Ubicacion *string `json:"ubicacion"`
}

// CrearMiembroRequest adds either an internal user (usuario_id) or an
// external contact (nombre, email).
type CrearMiembroRequest struct {
	UsuarioID *string `json:"usuario_id" validate:"omitempty,uuid"`
	Nombre    string  `json:"nombre"     validate:"omitempty,mintrim=2"`
	Email     *string `json:"email"      validate:"omitempty,email"`
	Telefono  *string `json:"telefono"`
	Cargo     *string `json:"cargo"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProyectoResponse struct {
	ID        string  `json:"id"`
	Codigo    string  `json:"codigo"`
	Nombre    string  `json:"nombre"`
	Cliente   *string `json:"cliente"`
	Ubicacion *string `json:"ubicacion"`
	Activo    bool    `json:"activo"`
}

type MiembroResponse struct {
	ID         string  `json:"id"`
	ProyectoID string  `json:"project_id"`
	UsuarioID  *string `json:"usuario_id"`
	Tipo       string  `json:"tipo"`
	Nombre     string  `json:"nombre"`
	Email      *string `json:"email"`
	Telefono   *string `json:"telefono"`
	Cargo      *string `json:"cargo"`
}
