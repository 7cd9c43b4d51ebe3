// Command devtoken prints a bearer token signed with JWT_SECRET for local use
// of the API.
//
//	go run ./cmd/devtoken -id 1 -role student -ttl 24h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lshigami/learnhub/config"
	"github.com/lshigami/learnhub/internal/middleware"
	"github.com/lshigami/learnhub/internal/model"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	id := flag.Uint("id", 1, "user id placed in the sub claim")
	role := flag.String("role", string(model.RoleStudent), "student or admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	r := model.Role(*role)
	if r != model.RoleStudent && r != model.RoleAdmin {
		log.Fatal().Str("role", *role).Msg("Unknown role")
	}

	token, err := middleware.IssueToken(cfg.JWTSecret, model.Identity{ID: uint(*id), Role: r}, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sign token")
	}
	fmt.Println(token)
}
