package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const defaultShutdownTimeout = 10 * time.Second

// HTTPServer matches the lifecycle methods of *http.Server.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPService runs an HTTP server until its context is cancelled.
type HTTPService struct {
	name            string
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPService wraps server. A non-positive timeout selects 10s.
func NewHTTPService(name string, server HTTPServer, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &HTTPService{name: name, server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("%s failed: %w", s.name, err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s shutdown failed: %w", s.name, err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *HTTPService) String() string { return s.name }

// GRPCServer matches the lifecycle methods of *grpc.Server.
type GRPCServer interface {
	Serve(lis net.Listener) error
	GracefulStop()
	Stop()
}

// GRPCService listens on address and serves a gRPC server. The listener is
// re-created on every restart.
type GRPCService struct {
	name            string
	address         string
	server          GRPCServer
	shutdownTimeout time.Duration
	listen          func(network, address string) (net.Listener, error)
}

// NewGRPCService wraps server. A non-positive timeout selects 10s.
func NewGRPCService(name, address string, server GRPCServer, shutdownTimeout time.Duration) *GRPCService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &GRPCService{name: name, address: address, server: server, shutdownTimeout: shutdownTimeout, listen: net.Listen}
}

// Serve implements suture.Service. Graceful stop falls back to a hard stop
// after the shutdown timeout.
func (s *GRPCService) Serve(ctx context.Context) error {
	lis, err := s.listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("%s: failed to listen on %s: %w", s.name, s.address, err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("%s failed: %w", s.name, err)
		}
		return nil
	case <-ctx.Done():
		stopped := make(chan struct{})
		go func() {
			s.server.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(s.shutdownTimeout):
			s.server.Stop()
			<-stopped
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *GRPCService) String() string { return s.name }

// FuncService runs fn as a supervised service. fn must return when its
// context is cancelled.
type FuncService struct {
	name string
	fn   func(ctx context.Context) error
}

// NewFuncService wraps fn.
func NewFuncService(name string, fn func(ctx context.Context) error) *FuncService {
	return &FuncService{name: name, fn: fn}
}

// Serve implements suture.Service.
func (s *FuncService) Serve(ctx context.Context) error {
	return s.fn(ctx)
}

func (s *FuncService) String() string { return s.name }
