package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/tablebot/api"
	"github.com/Domenick1991/tablebot/config"
	conciergeapi "github.com/Domenick1991/tablebot/internal/api/concierge_service_api"
	"github.com/gin-gonic/gin"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 5 * time.Second

type Servers struct {
	grpcServer  *grpc.Server
	health      *health.Server
	httpServer  *http.Server
	gatewayConn *grpc.ClientConn
}

// Run starts gRPC and HTTP (REST, websocket, grpc-gateway, swagger, metrics)
// servers and blocks until ctx is cancelled or a server fails.
func Run(ctx context.Context, app *App) error {
	s, err := NewServers(app)
	if err != nil {
		return err
	}
	defer s.gatewayConn.Close()

	lis, err := net.Listen("tcp", app.Config.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", app.Config.GRPC.Address, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("bootstrap: gRPC listening on %s", app.Config.GRPC.Address)
		return s.grpcServer.Serve(lis)
	})
	g.Go(func() error {
		log.Printf("bootstrap: HTTP listening on %s", app.Config.HTTP.Address)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.health.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func NewServers(app *App) (*Servers, error) {
	cfg := app.Config

	grpcSrv := grpc.NewServer()
	conciergeapi.RegisterConciergeServer(grpcSrv, conciergeapi.NewServer(app.Dialogue))
	hs := health.NewServer()
	hs.SetServingStatus(conciergeapi.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcSrv, hs)

	conn, err := grpc.NewClient("passthrough:///"+cfg.GRPC.Address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial gRPC for gateway: %w", err)
	}
	gw := runtime.NewServeMux()
	if err := conciergeapi.RegisterGateway(gw, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("register concierge gateway: %w", err)
	}

	router := NewRouter(app, cfg.HTTP)
	router.Any("/v1/*path", gin.WrapH(gw))

	return &Servers{
		grpcServer: grpcSrv,
		health:     hs,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           otelhttp.NewHandler(router, "tablebot-http"),
			ReadHeaderTimeout: 10 * time.Second,
		},
		gatewayConn: conn,
	}, nil
}

// NewRouter mounts the REST API, the websocket chat, docs and metrics.
func NewRouter(app *App, cfg config.HTTPConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestID())

	apiGroup := router.Group("/api")
	api.NewConversationHandler(app.Dialogue).Register(apiGroup.Group("/conversations"))
	api.NewTableHandler(app.Catalog, app.Availability).Register(apiGroup.Group("/tables"))
	api.NewReservationHandler(app.Bookings).Register(apiGroup.Group("/reservations"))
	api.NewChatSocket(app.Dialogue, cfg.AllowedOrigins).Register(router.Group("/ws"))

	router.GET("/metrics", gin.WrapH(app.Metrics.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.SwaggerDir != "" {
		router.Static("/swagger", cfg.SwaggerDir)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/tablebot.swagger.json"))))
	}
	return router
}
