package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/mkamenev/clinicbot/core/cmd"
	"github.com/mkamenev/clinicbot/internal/app"
)

func main() {
	_ = godotenv.Load()

	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.LoadConfig,
		Bootstrap:         app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("clinicbot: %v", err)
	}
}
