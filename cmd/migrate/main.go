package main

import (
	"context"
	"flag"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"

	"github.com/fdg312/coach-hub/internal/config"
	"github.com/fdg312/coach-hub/internal/dbmigrate"
	"github.com/fdg312/coach-hub/internal/logging"
)

func main() {
	dir := flag.String("dir", "", "read migrations from this directory instead of the embedded set")
	flag.Parse()

	logging.Setup(logging.SetupParams{LogToStdout: true, LogLevel: "info"})

	if flag.NArg() < 1 {
		log.Fatalf("usage: go run ./cmd/migrate [-dir path] [%s]", strings.Join(dbmigrate.Commands, "|"))
	}

	command := flag.Arg(0)
	if !dbmigrate.IsCommand(command) {
		log.Fatalf("unsupported command %q (allowed: %s)", command, strings.Join(dbmigrate.Commands, ", "))
	}

	cfg := config.Load()
	sel, err := dbmigrate.SelectDatabaseURL(cfg, false)
	if err != nil {
		log.Fatal(err)
	}

	if sel.Warning != "" {
		log.Warnf("migrate: %s", sel.Warning)
	}
	log.Infof("migrate: command=%s using=%s", command, sel.Source)

	if err := dbmigrate.Run(context.Background(), command, sel.URL, *dir); err != nil {
		log.Error(err)
		os.Exit(1)
	}

	log.Infof("migrate: %s completed successfully", command)
}
