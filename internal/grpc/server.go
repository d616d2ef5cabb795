package grpcserver

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"tradeSite/internal/accounts"
	"tradeSite/internal/auth"
	"tradeSite/internal/config"
	"tradeSite/internal/logging"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// NewServer builds the admin gRPC server: every AccountAdmin call passes the
// bearer-token interceptor; the health service is exempt.
func NewServer(authn *auth.Authenticator, authz *auth.Authorizer, svc *accounts.Service, log logging.Logger) *grpc.Server {
	log = log.With("component", "grpc")
	srv := grpc.NewServer(grpc.UnaryInterceptor(auth.NewUnaryAuthInterceptor(authn, log, healthCheckMethod)))

	RegisterAccountAdminServer(srv, &AccountAdmin{Accounts: svc, Authz: authz, Log: log})

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(AccountAdminServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv
}

// StartGRPC starts the gRPC server on the configured address and returns a shutdown function.
func StartGRPC(cfg *config.Config, authn *auth.Authenticator, authz *auth.Authorizer, svc *accounts.Service, log logging.Logger) (func(context.Context) error, error) {
	if cfg == nil {
		panic("config is required")
	}

	addr := cfg.GRPC.Address
	if addr == "" {
		addr = ":50051"
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	// Plaintext; terminate TLS in front of the process.
	srv := NewServer(authn, authz, svc, log)

	go func() {
		if err := srv.Serve(lis); err != nil {
			log.Error(context.Background(), "grpc serve", "error", err)
		}
	}()

	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, nil
}
