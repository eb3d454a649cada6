package service

import "github.com/google/uuid"

// Actor is the authenticated user behind a mutating call, as read from the
// JWT claims.
type Actor struct {
	UsuarioID *uuid.UUID
	Username  string
	Nombre    string
	Rol       string
}

// NombreVisible is what the audit trail records.
func (a Actor) NombreVisible() string {
	if a.Nombre != "" {
		return a.Nombre
	}
	if a.Username != "" {
		return a.Username
	}
	return "sistema"
}
