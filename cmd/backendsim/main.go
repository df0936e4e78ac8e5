// Command backendsim runs the in-memory admin backend used for local
// development of the gateway.
package main

import (
	"os"

	"github.com/channy-sao/admin-gateway/internal/backendsim"
	"github.com/channy-sao/admin-gateway/pkg/logger"
)

func main() {
	log := logger.Init(logger.Options{Level: "debug", Pretty: true})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	secret := os.Getenv("JWT_SECRET")

	sim, err := backendsim.New(backendsim.Options{Secret: secret})
	if err != nil {
		log.Fatal().Err(err).Msg("backendsim init failed")
	}

	log.Info().Str("port", port).Msg("backendsim listening")
	if err := sim.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
