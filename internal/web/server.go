package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/counselmatch/internal/db"
	"github.com/counselmatch/internal/web/handlers"
	"github.com/counselmatch/internal/web/middleware"
)

// Server is the review API: a read-only HTTP surface over persisted run
// output for manual review of unmatched units, dropped duplicates and
// suspicious rank bands.
type Server struct {
	config     *Config
	conn       *db.Connection
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates a review API server over an open database connection.
func NewServer(config *Config, conn *db.Connection) *Server {
	server := &Server{config: config, conn: conn}
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      server.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server
}

func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	review := &handlers.ReviewHandler{DB: s.conn.DB}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", review.Health).Methods("GET")
	api.HandleFunc("/runs", review.ListRuns).Methods("GET")
	api.HandleFunc("/links", review.ListLinks).Methods("GET")
	api.HandleFunc("/diagnostics", review.ListDiagnostics).Methods("GET")
	api.HandleFunc("/aggregates/suspicious", review.ListSuspiciousAggregates).Methods("GET")

	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogging())
}

// Start runs the server until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		fmt.Printf("Starting review API on http://%s\n", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Server error: %v\n", err)
		}
	}()

	<-stop
	fmt.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		fmt.Printf("Server shutdown error: %v\n", err)
	}
	if err := s.conn.Close(); err != nil {
		fmt.Printf("Database close error: %v\n", err)
	}

	fmt.Println("Server stopped")
	return nil
}
