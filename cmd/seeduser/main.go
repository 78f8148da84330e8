// seeduser crea el primer usuario MANAGER. El alta de usuarios por API exige un gerente
// autenticado, así que una instalación nueva arranca con este comando.
//
// Uso: go run ./cmd/seeduser -email admin@bodega.co -password secreta123 [-name Admin] [-login admin]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/Bodega-api/internal/application/auth"
	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Bodega-api/pkg/config"
	"github.com/jhoicas/Bodega-api/pkg/logger"
)

func main() {
	email := flag.String("email", "", "email del gerente (obligatorio)")
	password := flag.String("password", "", "password, mínimo 8 caracteres (obligatorio)")
	name := flag.String("name", "Administrador", "nombre visible")
	login := flag.String("login", "", "login opcional (por defecto la parte local del email)")
	flag.Parse()

	if *email == "" || len(*password) < 8 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seeduser"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migración del esquema")
		}
	}

	uc := auth.NewAuthUseCase(postgres.NewUserRepository(pool), auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log)

	resp, err := uc.Register(ctx, dto.RegisterRequest{
		Name:     *name,
		Email:    *email,
		LoginID:  *login,
		Password: *password,
		Role:     entity.RoleManager,
	})
	switch {
	case errors.Is(err, domain.ErrConflict):
		log.Warn().Str("email", *email).Msg("el usuario ya existe, no se modifica")
		return
	case err != nil:
		log.Fatal().Err(err).Msg("crear gerente")
	}

	log.Info().
		Str("user_id", resp.User.ID).
		Str("login", resp.User.LoginID).
		Msg("gerente creado")
}
