package graceful

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 20 * time.Second

// Server wraps an http.Server with signal-driven graceful shutdown.
type Server struct {
	log logrus.FieldLogger
	svr *http.Server
}

// NewGracefulServer prepares a server for the given handler.
func NewGracefulServer(handler http.Handler, log logrus.FieldLogger) *Server {
	return &Server{
		log: log,
		svr: &http.Server{Handler: handler},
	}
}

// ListenAndServe serves until SIGTERM/SIGINT, then drains in-flight
// requests before returning.
func (s *Server) ListenAndServe(addr string) error {
	s.svr.Addr = addr

	done := make(chan error, 1)
	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		sig := <-signals
		s.log.Infof("Triggering shutdown from signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		done <- s.svr.Shutdown(ctx)
	}()

	if err := s.svr.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	if err := <-done; err != nil {
		s.log.WithError(err).Error("Graceful shutdown failed")
		return err
	}
	s.log.Info("Shutdown finished")
	return nil
}
