package restserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/solarstats/internal/dashboard"
	"github.com/chrissnell/solarstats/internal/log"
	"github.com/chrissnell/solarstats/internal/metrics"
	"github.com/chrissnell/solarstats/pkg/config"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Reporter produces reports and column listings for the handlers
type Reporter interface {
	Build(req dashboard.Request) (*dashboard.Report, error)
	Columns() *dashboard.ColumnInfo
}

// Controller represents the REST server controller
type Controller struct {
	ctx          context.Context
	wg           *sync.WaitGroup
	serverConfig config.ServerData
	Server       http.Server
	reporter     Reporter
	metrics      *metrics.Metrics
	logger       *zap.SugaredLogger
	handlers     *Handlers
}

// NewController creates a new REST server controller. m may be nil, in which case no
// /metrics endpoint is served.
func NewController(ctx context.Context, wg *sync.WaitGroup, sc config.ServerData, reporter Reporter, m *metrics.Metrics, logger *zap.SugaredLogger) (*Controller, error) {
	if reporter == nil {
		return nil, errors.New("REST server requires a reporter")
	}
	if logger == nil {
		logger = log.GetSugaredLogger()
	}

	ctrl := &Controller{
		ctx:          ctx,
		wg:           wg,
		serverConfig: sc,
		reporter:     reporter,
		metrics:      m,
		logger:       logger,
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if ctrl.serverConfig.ListenAddr == "" {
		logger.Info("server.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		ctrl.serverConfig.ListenAddr = config.DefaultListenAddr
	}

	// Set default HTTP port if not specified
	if ctrl.serverConfig.HTTPPort == 0 {
		logger.Infof("server.http_port not provided; defaulting to %d", config.DefaultHTTPPort)
		ctrl.serverConfig.HTTPPort = config.DefaultHTTPPort
	}

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = ctrl.serverConfig.Addr()
	ctrl.Server.Handler = ctrl.Handler()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server and stops it when the controller's context ends
func (c *Controller) StartController() error {
	c.logger.Infof("Starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if err := c.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("Shutting down the REST server...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := c.Server.Shutdown(ctx); err != nil {
			c.logger.Warnf("REST server shutdown: %v", err)
		}
	}()

	return nil
}

// Handler returns the fully wrapped HTTP handler: routes, access logging, panic recovery
// and response compression
func (c *Controller) Handler() http.Handler {
	router := c.setupRouter()

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{c.logger}),
		handlers.PrintRecoveryStack(true),
	)
	return handlers.CompressHandler(recovery(router))
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(log.HTTPMiddleware(c.logger))
	router.Use(c.metrics.Middleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/report", c.handlers.GetReport).Methods(http.MethodGet)
	api.HandleFunc("/export/{format}", c.handlers.GetExport).Methods(http.MethodGet)
	api.HandleFunc("/columns", c.handlers.GetColumns).Methods(http.MethodGet)

	router.HandleFunc("/healthz", c.handlers.GetHealth).Methods(http.MethodGet)
	if c.metrics != nil {
		router.Handle("/metrics", c.metrics.Handler()).Methods(http.MethodGet)
	}

	router.NotFoundHandler = http.HandlerFunc(c.handlers.NotFound)

	return router
}

// recoveryLogger adapts a zap logger to handlers.RecoveryHandlerLogger
type recoveryLogger struct {
	logger *zap.SugaredLogger
}

func (l recoveryLogger) Println(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}
