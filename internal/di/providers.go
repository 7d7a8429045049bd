package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	domrepo "EconDash/internal/domain/repository"
	"EconDash/internal/handler/api"
	internalrepo "EconDash/internal/repository"
	rcache "EconDash/internal/service/cache"
	"EconDash/internal/service/charts"
	rmetrics "EconDash/internal/service/metrics"
	"EconDash/internal/service/ratelimit"
	"EconDash/internal/service/realtime"
	"EconDash/internal/service/report"
	"EconDash/internal/service/scheduler"
	"EconDash/internal/service/sources"
	"EconDash/internal/usecase"
	"EconDash/pkg/cache"
	pkgch "EconDash/pkg/clickhouse"
	"EconDash/pkg/config"
	xhttp "EconDash/pkg/http"
	pkgkafka "EconDash/pkg/kafka"
	applogger "EconDash/pkg/logger"
	"EconDash/pkg/metrics"
	"EconDash/pkg/server"
)

const renderCacheSize = 256

// UpdateCommand is what cmd/update needs to run once.
type UpdateCommand struct {
	Updater *usecase.Updater
	Log     *applogger.Logger
}

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates the Prometheus recorder and registers the render
// collectors alongside it.
func ProvideMetrics() domrepo.Metrics {
	rmetrics.Register()
	return metrics.New()
}

func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.HTTPClient.Timeout),
		xhttp.WithUserAgent(cfg.HTTPClient.UserAgent),
	)
}

// ProvideSourceRegistry registers one adapter per provider.
func ProvideSourceRegistry(cfg *config.Config, client *xhttp.Client, m domrepo.Metrics, l *applogger.Logger) *sources.Registry {
	s := cfg.Sources
	return sources.NewRegistry(l.With("sources"), m,
		sources.NewCSO(client, s.CSO.BaseURL),
		sources.NewECB(client, s.ECB.BaseURL, s.ECB.LookbackDays),
		sources.NewYahoo(client, s.Yahoo.BaseURL, s.Yahoo.Range),
		sources.NewBonds(client, s.Bonds.BaseURL),
		sources.NewPMI(client, s.PMI.HistoryURL, s.PMI.HubURL),
		sources.NewStatic(),
	)
}

func ProvideCatalog(cfg *config.Config) (*usecase.Catalog, error) {
	c, err := usecase.NewCatalog(cfg, time.Now())
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return c, nil
}

// ProvideCacheService returns the in-process cache, layered over Redis when
// redis is enabled. It backs the entry read cache and the refresh lock.
func ProvideCacheService(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	if !cfg.Redis.Enabled {
		mc := cache.NewMemoryCache()
		return mc, func() { _ = mc.Close() }, nil
	}
	remote, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	lc := cache.NewLayeredCache(remote, cache.WithLayeredMemoryTTL(cfg.Storage.ReadCacheTTL))
	l.Info("redis cache enabled", applogger.String("host", cfg.Redis.Host), applogger.Int("port", cfg.Redis.Port))
	return lc, func() {
		if err := lc.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}, nil
}

// ProvideEntryStore opens the JSON file store behind a read cache.
func ProvideEntryStore(cfg *config.Config, svc cache.Service, l *applogger.Logger) (domrepo.EntryStore, error) {
	fs, err := internalrepo.NewFileStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	return internalrepo.NewCachedEntryStore(fs, svc, cfg.Storage.ReadCacheTTL, l.With("store")), nil
}

// ProvideHistory opens the configured observation archive and creates its
// schema.
func ProvideHistory(cfg *config.Config, l *applogger.Logger) (domrepo.HistoryRepository, func(), error) {
	var h domrepo.HistoryRepository
	switch cfg.Storage.History {
	case "none":
		return internalrepo.NopHistory{}, func() {}, nil
	case "clickhouse":
		ch, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(5, 2),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		h = internalrepo.NewCHHistory(ch, l.With("history"))
	default:
		sh, err := internalrepo.NewSQLiteHistory(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		h = sh
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.Init(ctx); err != nil {
		_ = h.Close()
		return nil, nil, fmt.Errorf("history schema: %w", err)
	}
	return h, func() {
		if err := h.Close(); err != nil {
			l.Warn("history close error", applogger.Error(err))
		}
	}, nil
}

// ProvidePublisher returns the Kafka run publisher, or a no-op when kafka is
// disabled. The log collector ships through the same producer.
func ProvidePublisher(cfg *config.Config, l *applogger.Logger) (domrepo.EventPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopPublisher{}, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithAutoCreateTopics(true),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)

	if cfg.Log.Collector.Enabled {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.Collector.Interval,
			CountThreshold: cfg.Log.Collector.Threshold,
			Topic:          cfg.Log.Collector.Topic,
			Publisher:      pub,
			Service:        "econdash",
		})
	}
	return pub, func() {
		l.RemoveCollector()
		if err := pub.Close(); err != nil {
			l.Warn("kafka publisher close error", applogger.Error(err))
		}
	}, nil
}

func ProvideNotifier(cfg *config.Config) (domrepo.Notifier, error) {
	if !cfg.Telegram.Enabled {
		return internalrepo.NopNotifier{}, nil
	}
	n, err := internalrepo.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, cfg.Telegram.NotifyOn, cfg.Report.Title)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func ProvideIndicatorCache(store domrepo.EntryStore, reg *sources.Registry, history domrepo.HistoryRepository, m domrepo.Metrics, l *applogger.Logger) *usecase.IndicatorCache {
	return usecase.NewIndicatorCache(store, reg, history, m, l.With("cache"))
}

func ProvideUpdater(
	catalog *usecase.Catalog,
	ic *usecase.IndicatorCache,
	store domrepo.EntryStore,
	pub domrepo.EventPublisher,
	notifier domrepo.Notifier,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.Updater {
	return usecase.NewUpdater(catalog, ic, store, pub, notifier, m, l)
}

func ProvideDashboardService(cfg *config.Config, catalog *usecase.Catalog, store domrepo.EntryStore, history domrepo.HistoryRepository) *usecase.DashboardService {
	return usecase.NewDashboardService(catalog, store, history, cfg.Report.Title)
}

// ProvideRenderCache keeps rendered PNG and PDF bytes, in Redis when enabled
// so several web instances share them.
func ProvideRenderCache(cfg *config.Config, l *applogger.Logger) (rcache.BytesCache, func()) {
	if !cfg.Redis.Enabled {
		return rcache.NewTTLCache(renderCacheSize), func() {}
	}
	rc := rcache.NewRedisCache(rcache.RedisConfig{
		Addr:     net.JoinHostPort(cfg.Redis.Host, strconv.Itoa(cfg.Redis.Port)),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	return rc, func() {
		if err := rc.Close(); err != nil {
			l.Warn("render cache close error", applogger.Error(err))
		}
	}
}

func ProvideChartRenderer(cfg *config.Config, dash *usecase.DashboardService, catalog *usecase.Catalog, rc rcache.BytesCache, l *applogger.Logger) *charts.Renderer {
	return charts.NewRenderer(dash, catalog, rc, cfg.Charts.CacheTTL, charts.Options{
		Width:  cfg.Charts.Width,
		Height: cfg.Charts.Height,
		Points: cfg.Charts.Points,
	}, l.With("charts"))
}

func ProvideReportGenerator(cfg *config.Config, dash *usecase.DashboardService, cr *charts.Renderer, rc rcache.BytesCache, l *applogger.Logger) *report.Generator {
	groups := make([]string, 0, len(cfg.Charts.Groups))
	for _, g := range cfg.Charts.Groups {
		groups = append(groups, g.Name)
	}
	return report.NewGenerator(dash, cr, rc, cfg.Charts.CacheTTL, cfg.Report.Author, groups, l.With("report"))
}

func ProvideHub(l *applogger.Logger) *realtime.Hub {
	return realtime.NewHub(l)
}

// ProvideScheduler returns nil when the in-process schedule is disabled.
func ProvideScheduler(cfg *config.Config, u *usecase.Updater, l *applogger.Logger) (*scheduler.Scheduler, error) {
	if !cfg.Schedule.Enabled {
		return nil, nil
	}
	s, err := scheduler.New(u, cfg.Schedule.Day, cfg.Schedule.At, cfg.Schedule.Timezone, cfg.Server.RefreshTimeout, l)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	return s, nil
}

func ProvideHandler(
	cfg *config.Config,
	dash *usecase.DashboardService,
	u *usecase.Updater,
	cr *charts.Renderer,
	rg *report.Generator,
	hub *realtime.Hub,
	locks cache.Service,
	l *applogger.Logger,
) *api.DashboardHandler {
	limiter := ratelimit.New(cfg.Server.RefreshBurst, cfg.Server.RefreshPerMin)
	return api.NewDashboardHandler(dash, u, cr, rg, hub, locks, limiter, cfg.Server.RefreshTimeout, l)
}

// ProvideApp assembles the web process and subscribes the hub to finished
// runs.
func ProvideApp(
	cfg *config.Config,
	h *api.DashboardHandler,
	u *usecase.Updater,
	hub *realtime.Hub,
	sched *scheduler.Scheduler,
	l *applogger.Logger,
) *server.App {
	u.AddListener(hub)
	var schedule server.Schedule
	if sched != nil {
		schedule = sched
	}
	return server.New(cfg, h, hub, schedule, l)
}
