// cmd/seeduser creates or updates the administrador account and, with
// -demo, a demo project where that user is a member.
// Uso: go run ./cmd/seeduser -username admin -password secreto -demo
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"obraspm/internal/config"
	"obraspm/internal/infra"
	"obraspm/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	username := flag.String("username", "admin", "username del administrador")
	password := flag.String("password", "", "password (min 8 caracteres)")
	nombre := flag.String("nombre", "Administrador", "nombre visible")
	email := flag.String("email", "", "email opcional")
	demo := flag.Bool("demo", false, "crear también un proyecto de demostración")
	flag.Parse()

	if len(*password) < 8 {
		log.Fatal().Msg("-password es obligatorio (min 8 caracteres)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.RunMigrations {
		if err := infra.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	u := model.Usuario{
		Username:     *username,
		Nombre:       *nombre,
		PasswordHash: string(hash),
		Rol:          "administrador",
		Activo:       true,
	}
	if *email != "" {
		u.Email = email
	}
	err = db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "nombre", "email", "rol", "activo", "updated_at"}),
	}).Create(&u).Error
	if err != nil {
		log.Fatal().Err(err).Msg("upsert usuario")
	}
	// On conflict Postgres does not hand back the existing id.
	if err := db.WithContext(ctx).Where("username = ?", *username).First(&u).Error; err != nil {
		log.Fatal().Err(err).Msg("reload usuario")
	}
	log.Info().Str("username", u.Username).Str("id", u.ID.String()).Msg("usuario administrador listo")

	if *demo {
		if err := seedDemo(ctx, db, &u); err != nil {
			log.Fatal().Err(err).Msg("seed demo")
		}
	}
}

func seedDemo(ctx context.Context, db *gorm.DB, admin *model.Usuario) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p := model.Proyecto{Codigo: "DEMO-001", Nombre: "Proyecto de demostración", Activo: true}
		if err := tx.Where("codigo = ?", p.Codigo).FirstOrCreate(&p).Error; err != nil {
			return err
		}
		m := model.MiembroProyecto{
			ProyectoID: p.ID,
			UsuarioID:  &admin.ID,
			Tipo:       model.MiembroInterno,
			Nombre:     admin.Nombre,
		}
		if err := tx.Where("proyecto_id = ? AND usuario_id = ?", p.ID, admin.ID).FirstOrCreate(&m).Error; err != nil {
			return err
		}
		for _, nombre := range []string{"Materiales", "Mano de obra", "Equipos", "Subcontratos"} {
			c := model.CategoriaCosto{ProyectoID: p.ID, Nombre: nombre, Activo: true}
			if err := tx.Where("proyecto_id = ? AND nombre = ?", p.ID, nombre).FirstOrCreate(&c).Error; err != nil {
				return err
			}
		}
		log.Info().Str("proyecto", p.Codigo).Str("miembro_id", m.ID.String()).Msg("proyecto demo listo")
		return nil
	})
}
