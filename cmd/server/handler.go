package main

import (
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/weekledger/internal/auth"
	"github.com/mmynk/weekledger/internal/config"
	"github.com/mmynk/weekledger/internal/httpapi"
	"github.com/mmynk/weekledger/internal/ledger"
	"github.com/mmynk/weekledger/internal/metrics"
	"github.com/mmynk/weekledger/internal/middleware"
	"github.com/mmynk/weekledger/internal/service"
	"github.com/mmynk/weekledger/pkg/api/apiconnect"
)

// newHandler mounts the Connect services, the REST routes and, when
// gatherer is non-nil, the metrics endpoint.
func newHandler(cfg *config.Config, l *ledger.Ledger, m *metrics.Metrics, gatherer prometheus.Gatherer) http.Handler {
	interceptors := []connect.Interceptor{
		middleware.LoggingInterceptor(),
		middleware.MetricsInterceptor(m),
	}

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled() {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	}

	mux := http.NewServeMux()

	if jwtManager != nil {
		authenticator := auth.NewPasswordAuthenticator(auth.NewStaticUsers(cfg.AuthUsers))
		authPath, authHandler := apiconnect.NewAuthServiceHandler(
			service.NewAuthService(authenticator, jwtManager, slog.Default()),
			connect.WithInterceptors(interceptors...),
		)
		mux.Handle(authPath, authHandler)
		interceptors = append(interceptors, middleware.RequireAuth(jwtManager))
		slog.Info("Authentication enabled", "users", len(cfg.AuthUsers))
	}

	recordPath, recordHandler := apiconnect.NewRecordServiceHandler(
		service.NewRecordService(l),
		connect.WithInterceptors(interceptors...),
	)
	mux.Handle(recordPath, recordHandler)

	if gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(gatherer))
	}

	mux.Handle("/", httpapi.NewHandler(l, jwtManager))

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.AccessLog,
		middleware.CORS(cfg.CORSAllowedOrigins),
	)
}
