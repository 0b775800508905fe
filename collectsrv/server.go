// Package collectsrv hosts the training-example collection service. The
// train command's remediation hints point operators here when the dataset
// is missing or empty.
package collectsrv

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mindfulware/companion/pkg/dataset"
	"github.com/mindfulware/companion/pkg/llm"
)

// Server serves and persists the training example collection over HTTP.
// The collection lives in the JSON data file; an in-process copy is kept
// for reads and refreshed when the file changes on disk, so operators can
// also edit it by hand while the server runs.
type Server struct {
	config  Config
	logger  *zap.Logger
	app     *fiber.App
	watcher *fsnotify.Watcher

	mu       sync.RWMutex
	examples []dataset.Example
}

// New creates a Server and loads the current collection. A missing data
// file is fine; collection starts empty.
func New(config Config, logger *zap.Logger) (*Server, error) {
	examples, err := dataset.Read(config.DataPath)
	if err != nil {
		return nil, fmt.Errorf("could not load training data: %w", err)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		logger:   logger,
		app:      app,
		examples: examples,
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	app.Get("/examples", s.handleListExamples)
	app.Post("/examples", s.handleAddExample)
	app.Delete("/examples/:index", s.handleDeleteExample)
	app.Get("/examples/stats", s.handleStats)

	return s, nil
}

// Run starts the file watcher and serves until the listener fails.
func (s *Server) Run() error {
	if err := s.watch(); err != nil {
		return err
	}

	s.logger.Info("collect server listening",
		zap.String("addr", s.config.ListenAddr),
		zap.String("data", s.config.DataPath),
	)

	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener serves on an existing listener. Used by tests.
func (s *Server) RunWithListener(ln net.Listener) error {
	if err := s.watch(); err != nil {
		return err
	}
	return s.app.Listener(ln)
}

// Shutdown stops the HTTP server and the watcher.
func (s *Server) Shutdown() error {
	if s.watcher != nil {
		s.watcher.Close()
	}
	return s.app.Shutdown()
}

// watch reloads the in-process collection when the data file changes on
// disk. Our own saves also arrive as events; reloading what we just wrote
// is harmless.
func (s *Server) watch() error {
	dir := filepath.Dir(s.config.DataPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create data directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create file watcher: %w", err)
	}

	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("could not watch %s: %w", dir, err)
	}
	s.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.config.DataPath {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				s.reload()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("file watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}

func (s *Server) reload() {
	examples, err := dataset.Read(s.config.DataPath)
	if err != nil {
		s.logger.Warn("could not reload training data", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.examples = examples
	s.mu.Unlock()

	s.logger.Info("training data reloaded", zap.Int("examples", len(examples)))
}

func (s *Server) handleListExamples(c *fiber.Ctx) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return c.JSON(s.examples)
}

func (s *Server) handleAddExample(c *fiber.Ctx) error {
	var ex dataset.Example
	if err := c.BodyParser(&ex); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	if err := dataset.Validate(ex); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := append(append([]dataset.Example{}, s.examples...), ex)
	if err := dataset.Save(s.config.DataPath, updated); err != nil {
		s.logger.Error("could not save training data", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "could not save training data"})
	}
	s.examples = updated

	s.logger.Info("example added", zap.Int("total", len(updated)))

	return c.Status(fiber.StatusCreated).JSON(map[string]int{"count": len(updated)})
}

func (s *Server) handleDeleteExample(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "index must be an integer"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.examples) {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "example index out of range"})
	}

	updated := append(append([]dataset.Example{}, s.examples[:index]...), s.examples[index+1:]...)
	if err := dataset.Save(s.config.DataPath, updated); err != nil {
		s.logger.Error("could not save training data", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "could not save training data"})
	}
	s.examples = updated

	return c.JSON(map[string]int{"count": len(updated)})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return c.JSON(map[string]any{
		"count":               len(s.examples),
		"avg_response_length": dataset.AvgResponseLength(s.examples),
		"under_recommended":   len(s.examples) < dataset.MinRecommended,
	})
}
