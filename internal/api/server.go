package api

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"

	"shareit/internal/config"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

type GRPCServer struct {
	server   *grpc.Server
	listener net.Listener
	log      zerolog.Logger
}

func NewGRPCServer(cfg *config.Config, svc Services, logger *zerolog.Logger) (*GRPCServer, error) {
	addr := fmt.Sprintf(":%d", cfg.API.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc listen %s: %w", addr, err)
	}

	srv, err := newGRPCServer(cfg, lis, svc, logger)
	if err != nil {
		_ = lis.Close()
		return nil, err
	}
	return srv, nil
}

func newGRPCServer(cfg *config.Config, lis net.Listener, svc Services, logger *zerolog.Logger) (*GRPCServer, error) {
	auth := NewAuthInterceptor(cfg.API)
	unary := ChainUnaryInterceptors(
		LoggingUnaryInterceptor(logger),
		auth.Unary(),
	)

	serverOpts := []grpc.ServerOption{grpc.UnaryInterceptor(unary)}
	if cfg.API.GRPC.TLS.Enabled {
		tlsCfg, err := buildTLSConfig(cfg.API.GRPC.TLS)
		if err != nil {
			return nil, err
		}
		serverOpts = append(serverOpts, grpc.Creds(credentials.NewTLS(tlsCfg)))
	}

	grpcServer := grpc.NewServer(serverOpts...)
	RegisterBookingQueryServer(grpcServer, NewBookingQueryService(svc, cfg.Booking.DefaultPageSize, logger))

	serverLogger := zerolog.Nop()
	if logger != nil {
		serverLogger = logger.With().Str("component", "grpc").Logger()
	}

	return &GRPCServer{
		server:   grpcServer,
		listener: lis,
		log:      serverLogger,
	}, nil
}

// buildTLSConfig loads the server key pair and, when client certificates
// are required, the CA pool they must chain to.
func buildTLSConfig(cfg config.APITLSConfig) (*tls.Config, error) {
	if cfg.CertFile == "" || cfg.KeyFile == "" {
		return nil, errors.New("grpc tls: cert_file and key_file are required")
	}
	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("grpc tls: load key pair: %w", err)
	}

	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if !cfg.RequireClientCert {
		return tlsCfg, nil
	}

	pool, err := loadClientCAs(cfg.ClientCAFile)
	if err != nil {
		return nil, err
	}
	tlsCfg.ClientAuth = tls.RequireAndVerifyClientCert
	tlsCfg.ClientCAs = pool
	return tlsCfg, nil
}

func loadClientCAs(path string) (*x509.CertPool, error) {
	if path == "" {
		return nil, errors.New("grpc tls: client_ca_file is required with require_client_cert")
	}
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("grpc tls: read client CA: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("grpc tls: no certificates in %s", path)
	}
	return pool, nil
}

func (s *GRPCServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *GRPCServer) Serve() error {
	s.log.Info().Str("addr", s.Addr()).Msg("gRPC API listening")
	return s.server.Serve(s.listener)
}

// Shutdown waits for in-flight calls until ctx is done, then forces the stop.
func (s *GRPCServer) Shutdown(ctx context.Context) {
	if s.server == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn().Msg("gRPC graceful shutdown timed out; forcing stop")
		s.server.Stop()
	}
}
