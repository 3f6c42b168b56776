package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// shutdownGrace is how long in-flight requests get to finish once a
// termination signal arrives.
const shutdownGrace = 15 * time.Second

// Server wraps the HTTP listener with signal-driven graceful shutdown.
type Server struct {
	httpServer *http.Server
	port       string
}

// NewServer creates the API server. Uploads and downloads stream directly
// to object storage via presigned URLs, so request bodies stay small and
// the timeouts can be tight.
func NewServer(port string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      20 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		port: port,
	}
}

// Start serves until the process receives SIGINT or SIGTERM, then drains
// in-flight requests before returning.
func (s *Server) Start() error {
	serverErrors := make(chan error, 1)

	go func() {
		log.Printf("api listening on :%s", s.port)
		serverErrors <- s.httpServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Printf("shutdown signal received: %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.httpServer.Close()
			return fmt.Errorf("could not drain server: %w", err)
		}
		log.Println("server stopped")
	}

	return nil
}
