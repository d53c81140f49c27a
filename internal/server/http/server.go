package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/runtime"
	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/server/http/controllers"
	dequeuesvc "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/services/dequeue"
	getdeletesvc "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/services/getdelete"
	logpkg "github.com/dpa-newslab/dpa-digitalwires-wireq-example/pkg/log"
)

type Server struct {
	rt     *runtime.Runtime
	srv    *http.Server
	lis    net.Listener
	logger logpkg.Logger
}

func New(rt *runtime.Runtime, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = rt.Logger()
	}
	logger = logger.With(logpkg.Component("http"))

	router := mux.NewRouter()
	router.Use(observe(rt, logger))
	registry := controllers.NewControllerRegistry(rt,
		dequeuesvc.New(rt),
		getdeletesvc.New(rt),
		logger)
	registry.RegisterAllRoutes(router)

	s := &Server{
		rt:     rt,
		logger: logger,
		srv: &http.Server{
			Handler:           requestID(recoverer(logger, cors(router))),
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          logpkg.ToStdLogger(logger),
		},
	}
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Addr returns the bound address once listening, or "".
func (s *Server) Addr() string {
	if s.lis == nil {
		return ""
	}
	return s.lis.Addr().String()
}

// Listen binds addr without serving. Serve must follow.
func (s *Server) Listen(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	return nil
}

// Serve serves on the bound listener until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if s.lis == nil {
		return errors.New("httpserver: Listen not called")
	}
	s.logger.Info("listening", logpkg.Str("addr", s.lis.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(s.lis) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// ListenAndServe binds addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := s.Listen(addr); err != nil {
		return err
	}
	return s.Serve(ctx)
}

func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}
