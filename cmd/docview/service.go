package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/JaimeStill/docview/internal/api"
	"github.com/JaimeStill/docview/internal/auth"
	"github.com/JaimeStill/docview/internal/config"
	"github.com/JaimeStill/docview/internal/download"
	"github.com/JaimeStill/docview/internal/preview"
	"github.com/JaimeStill/docview/internal/session"
	"github.com/JaimeStill/docview/internal/storage"
	"github.com/JaimeStill/docview/pkg/lifecycle"
	"github.com/JaimeStill/docview/pkg/logging"
)

// Options selects what a run does after the session opens.
type Options struct {
	DocumentID string
	VersionID  string
	Upload     string
	Tag        string
	Download   bool
	Watch      bool
}

// Service wires the subsystems of one docview run.
type Service struct {
	lc     *lifecycle.Coordinator
	logger *slog.Logger
	out    io.Writer

	client    *api.Client
	storage   storage.System
	session   *session.Controller
	downloads *download.Materializer
}

// NewService creates every subsystem from cfg. Reports go to out.
func NewService(cfg *config.Config, out io.Writer) (*Service, error) {
	logger := logging.New(&cfg.Logging, os.Stderr)

	creds := auth.Env(cfg.Auth.TokenEnv)
	if _, ok := creds.Token(); !ok {
		logger.Warn("no bearer token set; requests are unauthenticated", "env", cfg.Auth.TokenEnv)
	}
	client := api.New(&cfg.API, creds, logger)

	previews, err := preview.New(cfg.Preview.MaxLive, logger)
	if err != nil {
		return nil, err
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Service{
		lc:        lifecycle.New(),
		logger:    logger,
		out:       out,
		client:    client,
		storage:   store,
		session:   session.New(client, previews, logger),
		downloads: download.New(client, store, logger),
	}, nil
}

// Start registers lifecycle hooks and waits for startup to finish.
func (s *Service) Start() error {
	s.logger.Info("starting docview")

	if err := s.storage.Start(s.lc); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}

	s.lc.OnShutdown(func() {
		<-s.lc.Context().Done()
		s.session.Close()
	})

	s.lc.WaitForStartup()
	return nil
}

// Run opens the session and applies opts in order: tag, upload, select,
// download.
func (s *Service) Run(ctx context.Context, opts Options) error {
	s.session.Observe(func(snap session.Snapshot) {
		s.logger.Debug("session transition", "state", snap.State, "version_id", snap.SelectedVersionID)
	})

	if err := s.settle(s.session.OpenSession(ctx, opts.DocumentID)); err != nil {
		return err
	}

	if opts.Tag != "" {
		if err := s.client.EnsureTag(ctx, opts.DocumentID, opts.Tag); err != nil {
			return err
		}
	}

	if opts.Upload != "" {
		data, err := os.ReadFile(opts.Upload)
		if err != nil {
			return fmt.Errorf("read upload: %w", err)
		}
		if _, err := s.session.UploadVersion(ctx, filepath.Base(opts.Upload), data); s.settle(err) != nil {
			return err
		}
	}

	if opts.VersionID != "" {
		if err := s.settle(s.session.SelectVersion(ctx, opts.VersionID)); err != nil {
			return err
		}
	}

	snap := s.session.Snapshot()
	report(s.out, snap)

	if opts.Download {
		if err := s.download(ctx, snap); err != nil {
			s.logger.Error("download failed", "error", err)
			fmt.Fprintf(s.out, "download failed: %v\n", err)
		}
	}

	if opts.Watch {
		s.logger.Info("session open; waiting for interrupt")
		<-ctx.Done()
	}
	return nil
}

// Shutdown closes the session through the lifecycle coordinator.
func (s *Service) Shutdown(timeout time.Duration) error {
	s.logger.Info("initiating shutdown")

	if err := s.lc.Shutdown(timeout); err != nil {
		return err
	}

	s.logger.Info("docview stopped")
	return nil
}

func (s *Service) download(ctx context.Context, snap session.Snapshot) error {
	v := snap.Selected()
	if v == nil {
		return fmt.Errorf("no version selected")
	}

	res, err := s.downloads.Download(ctx, snap.Document, *v)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "saved %s\n", res.Path)
	return nil
}

// settle drops preview failures: they leave the session usable and show up
// in the report.
func (s *Service) settle(err error) error {
	if errors.Is(err, session.ErrPreview) {
		return nil
	}
	return err
}
