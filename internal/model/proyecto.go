package model

import (
	"time"

	"github.com/google/uuid"
)

// Proyecto is a construction project. Requisitions, budgets and expenses
// all hang off a project.
type Proyecto struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo    string    `gorm:"uniqueIndex;not null"`
	Nombre    string    `gorm:"not null"`
	Cliente   *string
	Ubicacion *string
	Activo    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Miembros []MiembroProyecto `gorm:"foreignKey:ProyectoID"`
}

func (Proyecto) TableName() string { return "proyectos" }

// Tipo de miembro
const (
	MiembroInterno = "interno" // backed by a Usuario
	MiembroExterno = "externo" // external contact, no login
)

// MiembroProyecto is a person attached to a project: either an internal
// user (UsuarioID set) or an external contact (Nombre/Email only).
type MiembroProyecto struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProyectoID uuid.UUID  `gorm:"type:uuid;not null;index"`
	UsuarioID  *uuid.UUID `gorm:"type:uuid;index"`
	Tipo       string     `gorm:"type:varchar(10);not null"`
	Nombre     string     `gorm:"not null"`
	Email      *string
	Telefono   *string
	Cargo      *string
	CreatedAt  time.Time

	Usuario *Usuario `gorm:"foreignKey:UsuarioID"`
}

func (MiembroProyecto) TableName() string { return "miembros_proyecto" }

// Contacto returns the best email to reach the member, preferring the
// linked user's address.
func (m *MiembroProyecto) Contacto() *string {
	if m.Usuario != nil && m.Usuario.Email != nil && *m.Usuario.Email != "" {
		return m.Usuario.Email
	}
	if m.Email != nil && *m.Email != "" {
		return m.Email
	}
	return nil
}
