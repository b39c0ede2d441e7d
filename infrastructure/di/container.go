package di

import (
	"go.uber.org/zap"

	"labeltree/application/commands/bus"
	"labeltree/application/ports"
	querybus "labeltree/application/queries/bus"
	"labeltree/application/services"
	"labeltree/infrastructure/config"
	"labeltree/interfaces/http/rest"
	"labeltree/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	LogLevel   zap.AtomicLevel
	Store      ports.NodeStore
	Health     ports.HealthChecker
	Publisher  ports.EventPublisher
	Trees      *services.TreeService
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Metrics    *observability.Collector
	Tracer     *observability.TracerProvider
	Watcher    *config.ConfigWatcher
}

// Router builds the HTTP router over the container's buses
func (c *Container) Router() *rest.Router {
	var metrics *observability.Collector
	if c.Config.EnableMetrics {
		metrics = c.Metrics
	}

	return rest.NewRouter(
		c.CommandBus,
		c.QueryBus,
		c.Health,
		metrics,
		c.Logger,
		rest.Options{
			EnableCORS:  c.Config.EnableCORS,
			CORSOrigins: c.Config.CORSOrigins,
			EnableXRay:  c.Config.EnableXRay,
			ServiceName: serviceName,
			Debug:       c.Config.IsDevelopment(),
		},
	)
}
