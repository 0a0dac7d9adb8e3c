// Package api serves run records, version medians, comparisons and trend
// charts over HTTP.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/txreports/pkg/config"
	"github.com/ethpandaops/txreports/pkg/indexer"
	"github.com/ethpandaops/txreports/pkg/indexstore"
	"github.com/ethpandaops/txreports/pkg/reportstore"
)

const shutdownTimeout = 10 * time.Second

// Server exposes the API HTTP server lifecycle.
type Server interface {
	Start(ctx context.Context) error
	Stop() error
}

// Compile-time interface check.
var _ Server = (*server)(nil)

type server struct {
	log        logrus.FieldLogger
	cfg        *config.APIConfig
	dir        string
	reports    reportstore.Store
	indexStore indexstore.Store
	indexer    indexer.Indexer
	httpServer *http.Server
	wg         sync.WaitGroup
	done       chan struct{}
}

// NewServer creates a new API server serving the records of dir.
func NewServer(
	log logrus.FieldLogger,
	cfg *config.APIConfig,
	reports reportstore.Store,
	dir string,
) Server {
	return &server{
		log:     log.WithField("component", "api"),
		cfg:     cfg,
		dir:     dir,
		reports: reports,
		done:    make(chan struct{}),
	}
}

// Start prepares indexing when enabled and starts the HTTP server.
func (s *server) Start(ctx context.Context) error {
	// The index store must exist before the router is built so the index
	// endpoint is wired; the indexer itself starts once we are listening.
	if s.cfg.IndexingEnabled() {
		if err := s.prepareIndexing(ctx); err != nil {
			return fmt.Errorf("preparing indexing: %w", err)
		}
	}

	s.httpServer = &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           s.buildRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Bind the listener synchronously so we fail fast on port conflicts.
	ln, err := net.Listen("tcp", s.cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Server.Listen, err)
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		s.log.WithFields(logrus.Fields{
			"listen": s.cfg.Server.Listen,
			"dir":    s.dir,
		}).Info("API server starting")

		if err := s.httpServer.Serve(ln); err != nil &&
			err != http.ErrServerClosed {
			s.log.WithError(err).Error("HTTP server error")
		}
	}()

	if s.indexer != nil {
		if err := s.indexer.Start(ctx); err != nil {
			return fmt.Errorf("starting indexer: %w", err)
		}
	}

	return nil
}

// Stop gracefully shuts down the HTTP server and the indexing service.
func (s *server) Stop() error {
	close(s.done)

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(
			context.Background(), shutdownTimeout,
		)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.log.WithError(err).Warn("HTTP server shutdown error")
		}
	}

	s.wg.Wait()

	if s.indexer != nil {
		if err := s.indexer.Stop(); err != nil {
			s.log.WithError(err).Warn("Indexer stop error")
		}
	}

	if s.indexStore != nil {
		if err := s.indexStore.Stop(); err != nil {
			return fmt.Errorf("stopping index store: %w", err)
		}
	}

	s.log.Info("API server stopped")

	return nil
}

// prepareIndexing opens the index store and creates the indexer without
// starting it.
func (s *server) prepareIndexing(ctx context.Context) error {
	s.indexStore = indexstore.NewStore(s.log, &s.cfg.Indexing.Database)

	if err := s.indexStore.Start(ctx); err != nil {
		return fmt.Errorf("starting index store: %w", err)
	}

	s.indexer = indexer.NewIndexer(
		s.log, s.reports, s.indexStore, []string{s.dir}, s.cfg.Indexing.Interval,
	)

	s.log.Info("Indexing service enabled")

	return nil
}
