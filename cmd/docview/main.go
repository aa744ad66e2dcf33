package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JaimeStill/docview/internal/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "Configuration file (default: docview.toml when present)")
		docID      = flag.String("doc", "", "Document id to open")
		selectID   = flag.String("select", "", "Version id to preview instead of the latest")
		download   = flag.Bool("download", false, "Save the selected version to storage")
		upload     = flag.String("upload", "", "File to upload as a new version")
		tag        = flag.String("tag", "", "Tag to ensure on the document")
		watch      = flag.Bool("watch", false, "Keep the session open until interrupted")
	)
	flag.Parse()

	if *docID == "" {
		fmt.Println("usage: docview -doc <id> [-select <version-id>] [-upload <file>] [-tag <name>] [-download] [-watch]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal("env load failed:", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("config load failed:", err)
	}

	if err := cfg.Finalize(); err != nil {
		log.Fatal("config finalize failed:", err)
	}

	svc, err := NewService(cfg, os.Stdout)
	if err != nil {
		log.Fatal("service init failed:", err)
	}

	if err := svc.Start(); err != nil {
		log.Fatal("service start failed:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	runErr := svc.Run(ctx, Options{
		DocumentID: *docID,
		VersionID:  *selectID,
		Upload:     *upload,
		Tag:        *tag,
		Download:   *download,
		Watch:      *watch,
	})
	stop()

	if err := svc.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		log.Fatal("shutdown failed:", err)
	}

	if runErr != nil {
		log.Fatal(runErr)
	}
}
