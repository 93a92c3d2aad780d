package main

import (
	"context"
	"flag"

	"github.com/paihq/pai/internal/app"
	"github.com/paihq/pai/internal/config"
	log "github.com/sirupsen/logrus"
)

var configPath = flag.String("config", "./config/application.yaml", "configuration file")

func main() {
	flag.Parse()
	if err := config.ConfigureLogging(log.InfoLevel); err != nil {
		log.Fatal(err)
	}

	application, err := app.NewApplication(context.Background(), *configPath)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	if err := application.Run(); err != nil {
		log.Fatal(err)
	}
}
