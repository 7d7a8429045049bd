//go:build wireinject
// +build wireinject

package di

import (
	"EconDash/pkg/config"
	"EconDash/pkg/server"

	"github.com/google/wire"
)

var updaterSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideHTTPClient,
	ProvideSourceRegistry,
	ProvideCatalog,
	ProvideCacheService,
	ProvideEntryStore,
	ProvideHistory,
	ProvidePublisher,
	ProvideNotifier,
	ProvideIndicatorCache,
	ProvideUpdater,
)

// InitializeApp wires the web process.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		updaterSet,
		ProvideDashboardService,
		ProvideRenderCache,
		ProvideChartRenderer,
		ProvideReportGenerator,
		ProvideHub,
		ProvideScheduler,
		ProvideHandler,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeUpdateCommand wires the one-shot update command.
func InitializeUpdateCommand(cfg *config.Config) (*UpdateCommand, func(), error) {
	wire.Build(updaterSet, wire.Struct(new(UpdateCommand), "*"))
	return nil, nil, nil
}
