package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kilianp07/fjsm/auth"
	"github.com/kilianp07/fjsm/config"
	coremetrics "github.com/kilianp07/fjsm/core/metrics"
	"github.com/kilianp07/fjsm/core/model"
	coremon "github.com/kilianp07/fjsm/core/monitoring"
	corepref "github.com/kilianp07/fjsm/core/preference"
	"github.com/kilianp07/fjsm/infra/backend"
	"github.com/kilianp07/fjsm/infra/logger"
	"github.com/kilianp07/fjsm/infra/metrics"
	"github.com/kilianp07/fjsm/infra/monitoring"
	"github.com/kilianp07/fjsm/infra/notify"
	_ "github.com/kilianp07/fjsm/infra/preference"
)

const drainTimeout = 3 * time.Second

// Service owns the preference store, the backend client and everything
// that observes them.
type Service struct {
	Store  *corepref.Store
	Client *backend.Client
	Sink   coremetrics.MetricsSink

	cfg      *config.Config
	notifier *notify.Notifier
	log      logger.Logger
	cancel   context.CancelFunc
	workers  []<-chan struct{}
}

// New creates a Service from the configuration.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	if err := checkModules(cfg); err != nil {
		return nil, err
	}
	if err := logger.Configure(cfg.Logging.Options()); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logg := logger.New("service")

	persister, err := corepref.NewPersister(cfg.Preference.Store)
	if err != nil {
		return nil, fmt.Errorf("preference store: %w", err)
	}
	store, err := corepref.NewStore(ctx, persister, cfg.Preference.Key, logger.New("preference"))
	if err != nil {
		_ = persister.Close()
		return nil, fmt.Errorf("preference store: %w", err)
	}

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry, store)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	var notifier *notify.Notifier
	if cfg.Notify.Enabled() {
		notifier, err = notify.NewNotifier(cfg.Notify)
		if err != nil {
			closeSinks(sink)
			_ = store.Close()
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	svc := &Service{
		Store:    store,
		Sink:     sink,
		cfg:      cfg,
		notifier: notifier,
		log:      logg,
		cancel:   cancel,
	}
	svc.workers = append(svc.workers, metrics.StartSelectionCollector(bgCtx, store, sink))
	if notifier != nil {
		svc.workers = append(svc.workers, notifier.Run(bgCtx, store))
	}
	svc.Client = backend.New(cfg.Backend, store,
		backend.WithAuthorizer(auth.New(cfg.Auth)),
		backend.WithMetrics(sink),
		backend.WithLogger(logger.New("backend")),
	)
	logg.Debugw("service ready", map[string]any{
		"base_url": svc.Client.BaseURL(),
		"db":       store.Current().String(),
		"store":    cfg.Preference.Store.Type,
		"notify":   notifier != nil,
	})
	return svc, nil
}

// checkModules rejects module types no package registered, before any
// resource is opened.
func checkModules(cfg *config.Config) error {
	if t := cfg.Preference.Store.Type; t != "" && !slices.Contains(corepref.Backends(), t) {
		return fmt.Errorf("preference store: unknown type %q (known: %s)", t, strings.Join(corepref.Backends(), ", "))
	}
	for _, s := range cfg.Metrics.Sinks {
		if !coremetrics.KnownSink(s.Type) {
			return fmt.Errorf("metrics sink: unknown type %q", s.Type)
		}
	}
	return nil
}

// Config returns the configuration the service was built from.
func (s *Service) Config() *config.Config { return s.cfg }

// Selection returns the active database selection.
func (s *Service) Selection() model.DatabaseSelection { return s.Store.Current() }

// SetSelection changes the active database selection. Observers are told
// about the change even when persisting it fails.
func (s *Service) SetSelection(ctx context.Context, v any) (model.DatabaseSelection, error) {
	return s.Store.Set(ctx, v)
}

// NotifyTopic returns the MQTT topic selection changes go to, or "" when
// notifications are disabled.
func (s *Service) NotifyTopic() string {
	if s.notifier == nil {
		return ""
	}
	return s.notifier.Topic()
}

// ServeMetrics exposes /metrics on the configured address until ctx is
// canceled. It reports false when no address is configured.
func (s *Service) ServeMetrics(ctx context.Context) bool {
	addr := s.cfg.Metrics.PrometheusAddr
	if addr == "" {
		return false
	}
	go func() {
		defer coremon.Recover()
		if err := metrics.StartPromServer(ctx, addr); err != nil {
			s.log.Errorf("prom server: %v", err)
			coremon.CaptureException(err, map[string]string{"module": "metrics"})
		}
	}()
	return true
}

// Close drains pending selection notifications, flushes metrics and
// releases every resource held by the service.
func (s *Service) Close() error {
	var errs []error
	if st := s.Store.Stats(); st.Dropped > 0 {
		s.log.Warnf("%d selection changes were not delivered to slow observers", st.Dropped)
	}
	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("preference store: %w", err))
	}
	timeout := time.After(drainTimeout)
	for _, done := range s.workers {
		select {
		case <-done:
		case <-timeout:
			s.log.Warnf("background workers did not drain in %s", drainTimeout)
		}
	}
	s.cancel()

	if f, ok := s.Sink.(coremetrics.Flusher); ok {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		if err := f.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics flush: %w", err))
		}
		cancel()
	}
	closeSinks(s.Sink)
	if s.notifier != nil {
		if err := s.notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("mqtt notifier: %w", err))
		}
	}
	coremon.Flush(2 * time.Second)
	if err := logger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("logger: %w", err))
	}
	return errors.Join(errs...)
}

func closeSinks(sink coremetrics.MetricsSink) {
	if m, ok := sink.(*coremetrics.MultiSink); ok {
		for _, s := range m.Sinks {
			closeSinks(s)
		}
		return
	}
	if c, ok := sink.(interface{ Close() }); ok {
		c.Close()
	}
}
