//go:build wireinject
// +build wireinject

package di

import (
	"HemoWatch/pkg/config"
	"HemoWatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
    wire.Build(
        // Observability
        ProvideMetrics,
        ProvideLogger,

        // Infrastructure clients
        ProvideClickHouseClient,
        ProvideKafkaProducer,
        ProvideKafkaConsumer,
        ProvideRedisCache,

        // Repositories (with business logic)
        ProvideSampleStorage,
        ProvideSeriesStore,
        ProvideSamplePublisher,
        ProvideAlarmPublisher,
        ProvideStateStore,
        ProvideGatewayStream,
        ProvideBackfillClient,

        // Use cases
        ProvideSampleProcessor,
        ProvideMonitorUseCase,
        ProvideSeriesUseCase,
        ProvideDriftReportUseCase,
        ProvideSessionCollector,
        ProvideReplayJob,
        ProvideKafkaSamplesHandler,

        // Application server
        ProvideApp,
    )
    return &server.App{}, nil
}
