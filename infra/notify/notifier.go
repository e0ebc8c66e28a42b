package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/fjsm/core/model"
	coremon "github.com/kilianp07/fjsm/core/monitoring"
	"github.com/kilianp07/fjsm/infra/logger"
)

// Change is the retained payload describing the active selection.
type Change struct {
	DB     string    `json:"db"`
	Query  string    `json:"query"`
	Source string    `json:"source"`
	Time   time.Time `json:"time"`
}

// SelectionFeed is the subscription side of the preference store.
type SelectionFeed interface {
	Subscribe() <-chan model.DatabaseSelection
	Unsubscribe(<-chan model.DatabaseSelection)
}

// Notifier publishes selection changes as retained MQTT messages so late
// subscribers always see the current value.
type Notifier struct {
	cli        pahoClient
	topic      string
	qos        byte
	source     string
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
	now        func() time.Time
}

// NewNotifier connects to the broker described by cfg.
func NewNotifier(cfg Config) (*Notifier, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_notifier")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, token.Error())
	}
	return &Notifier{
		cli:        c,
		topic:      cfg.Topic,
		qos:        cfg.QoS,
		source:     cfg.ClientID,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
		now:        time.Now,
	}, nil
}

// Topic returns the topic changes are published on.
func (n *Notifier) Topic() string { return n.topic }

// Publish sends sel as the retained value of the topic, retrying with
// exponential backoff. Failures are reported to the monitor.
func (n *Notifier) Publish(ctx context.Context, sel model.DatabaseSelection) error {
	payload, err := json.Marshal(Change{
		DB:     sel.HeaderValue(),
		Query:  sel.QueryValue(),
		Source: n.source,
		Time:   n.now().UTC(),
	})
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		token := n.cli.Publish(n.topic, n.qos, true, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			n.log.Infof("published %s to %s", sel, n.topic)
			return nil
		}
		n.log.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt == n.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return n.fail(sel, ctx.Err())
		case <-time.After(n.backoff * time.Duration(1<<attempt)):
		}
	}
	return n.fail(sel, publishErr)
}

func (n *Notifier) fail(sel model.DatabaseSelection, err error) error {
	coremon.CaptureException(err, map[string]string{"module": "notify", "db": sel.String()})
	return fmt.Errorf("publish %s: %w", n.topic, err)
}

// Run publishes every change received from feed until ctx is canceled or
// the feed closes. The returned channel is closed when Run has exited.
func (n *Notifier) Run(ctx context.Context, feed SelectionFeed) <-chan struct{} {
	done := make(chan struct{})
	sub := feed.Subscribe()
	go func() {
		defer close(done)
		defer feed.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case sel, ok := <-sub:
				if !ok {
					return
				}
				_ = n.Publish(ctx, sel)
			}
		}
	}()
	return done
}

// Close disconnects from the broker.
func (n *Notifier) Close() error {
	if n.cli != nil && n.cli.IsConnected() {
		n.cli.Disconnect(250)
	}
	return nil
}
