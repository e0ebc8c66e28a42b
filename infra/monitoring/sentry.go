package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/fjsm/config"
	"github.com/kilianp07/fjsm/core/model"
	coremon "github.com/kilianp07/fjsm/core/monitoring"
)

// Selection reports the database variant requests are currently sent to.
type Selection interface {
	Current() model.DatabaseSelection
}

// beforeSend is installed as the Sentry BeforeSend hook when set.
var beforeSend func(*sentry.Event, *sentry.EventHint) *sentry.Event

// NewSentryMonitor initializes Sentry using the provided configuration and
// returns a Monitor implementation. Every captured event is tagged with the
// selection active at capture time. An empty DSN disables reporting.
func NewSentryMonitor(cfg config.SentryConfig, sel Selection) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
		ServerName:       "fjsm",
		BeforeSend:       beforeSend,
	})
	if err != nil {
		return nil, err
	}
	return &sentryMonitor{sel: sel}, nil
}

type sentryMonitor struct {
	sel Selection
}

func (s *sentryMonitor) tagSelection(scope *sentry.Scope) {
	if s.sel == nil {
		return
	}
	cur := s.sel.Current()
	scope.SetTag("db", cur.HeaderValue())
	scope.SetTag("db_query", cur.QueryValue())
}

// CaptureException reports err. Explicit tags override the selection tags.
func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		s.tagSelection(scope)
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}

func (s *sentryMonitor) Recover() {
	if r := recover(); r != nil {
		sentry.WithScope(func(scope *sentry.Scope) {
			s.tagSelection(scope)
			sentry.CurrentHub().Recover(r)
		})
		sentry.Flush(2 * time.Second)
		panic(r)
	}
}

func (s *sentryMonitor) Flush(timeout time.Duration) { sentry.Flush(timeout) }
