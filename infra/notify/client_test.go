package notify

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fjsm/core/model"
	coremon "github.com/kilianp07/fjsm/core/monitoring"
	"github.com/kilianp07/fjsm/core/preference"
)

// helper to generate self-signed cert
func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "test"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	dir := t.TempDir()
	certFile = dir + "/cert.pem"
	keyFile = dir + "/key.pem"
	caFile = dir + "/ca.pem"
	require.NoError(t, os.WriteFile(certFile, certPEM, 0o644))
	require.NoError(t, os.WriteFile(keyFile, keyPEM, 0o644))
	require.NoError(t, os.WriteFile(caFile, certPEM, 0o644))
	return
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	cfg := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}
	tlsCfg, err := cfg.LoadTLSConfig()
	require.NoError(t, err)
	assert.NotEmpty(t, tlsCfg.Certificates)
	assert.NotNil(t, tlsCfg.RootCAs)

	_, err = Config{UseTLS: true, ClientCert: cert}.LoadTLSConfig()
	assert.Error(t, err)
}

func TestNewClientOptionsAuth(t *testing.T) {
	opts, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", ClientID: "id", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "u", opts.Username)
	assert.Equal(t, "p", opts.Password)

	opts, err = NewClientOptions(Config{Broker: "tcp://localhost:1883", AuthMethod: "certificate", Username: "u"})
	require.NoError(t, err)
	assert.Empty(t, opts.Username)
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	cfg := Config{}
	assert.False(t, cfg.Enabled())
	assert.NoError(t, cfg.Validate())

	cfg = Config{Broker: "tcp://b:1883"}
	cfg.SetDefaults()
	assert.Equal(t, DefaultTopic, cfg.Topic)
	assert.Equal(t, "fjsm", cfg.ClientID)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.NoError(t, cfg.Validate())

	cfg.QoS = 3
	assert.Error(t, cfg.Validate())
	cfg.QoS = 1
	cfg.AuthMethod = "kerberos"
	assert.Error(t, cfg.Validate())
}

func TestLWTConfigured(t *testing.T) {
	mc := useMockClient(t)
	n, err := NewNotifier(Config{Broker: "tcp://localhost:1883", LWTTopic: "lwt", LWTPayload: "bye", LWTQoS: 1})
	require.NoError(t, err)
	assert.True(t, mc.opts.WillEnabled)
	assert.Equal(t, "lwt", mc.opts.WillTopic)
	assert.Equal(t, "bye", string(mc.opts.WillPayload))
	require.NoError(t, n.Close())
	assert.Empty(t, mc.messages())
	assert.True(t, mc.disconnected)
}

func TestConnectError(t *testing.T) {
	mc := useMockClient(t)
	mc.connectErr = errors.New("refused")
	_, err := NewNotifier(Config{Broker: "tcp://localhost:1883"})
	assert.ErrorContains(t, err, "refused")
}

func TestPublishRetained(t *testing.T) {
	mc := useMockClient(t)
	n, err := NewNotifier(Config{Broker: "tcp://localhost:1883", ClientID: "cli", QoS: 1})
	require.NoError(t, err)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	require.NoError(t, n.Publish(context.Background(), model.SelectionMongo))
	msgs := mc.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, DefaultTopic, msgs[0].topic)
	assert.Equal(t, byte(1), msgs[0].qos)
	assert.True(t, msgs[0].retained)

	var ch Change
	require.NoError(t, json.Unmarshal(msgs[0].payload, &ch))
	assert.Equal(t, Change{DB: "MONGO", Query: "mongo", Source: "cli", Time: fixed}, ch)
}

func TestPublishRetry(t *testing.T) {
	mc := useMockClient(t)
	mc.publishErrs = []error{errors.New("net fail"), nil}
	n, err := NewNotifier(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)
	require.NoError(t, n.Publish(context.Background(), model.SelectionPG))
	assert.Len(t, mc.messages(), 2)
}

type recordMonitor struct {
	mu   sync.Mutex
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Recover()            {}
func (r *recordMonitor) Flush(time.Duration) {}

func TestPublishErrorCaptured(t *testing.T) {
	mc := useMockClient(t)
	fail := errors.New("net fail")
	mc.publishErrs = []error{fail, fail}
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	n, err := NewNotifier(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)
	err = n.Publish(context.Background(), model.SelectionMongo)
	require.ErrorIs(t, err, fail)
	assert.Len(t, mc.messages(), 2)
	assert.ErrorIs(t, mon.err, fail)
	assert.Equal(t, map[string]string{"module": "notify", "db": "MONGO"}, mon.tags)
}

func TestRunPublishesStoreChanges(t *testing.T) {
	mc := useMockClient(t)
	n, err := NewNotifier(Config{Broker: "tcp://localhost:1883"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	store, err := preference.NewStore(ctx, nil, "", nil)
	require.NoError(t, err)
	done := n.Run(ctx, store)

	_, err = store.Set(ctx, "mongo")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(mc.messages()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notifier did not stop")
	}
	var ch Change
	require.NoError(t, json.Unmarshal(mc.messages()[0].payload, &ch))
	assert.Equal(t, "MONGO", ch.DB)
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// mockClient implements pahoClient for tests
type mockClient struct {
	mu           sync.Mutex
	opts         *paho.ClientOptions
	published    []published
	publishErrs  []error
	connectErr   error
	disconnected bool
}

func useMockClient(t *testing.T) *mockClient {
	t.Helper()
	mc := &mockClient{}
	prev := newMQTTClient
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = prev })
	return mc
}

func (m *mockClient) messages() []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]published(nil), m.published...)
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	if m.connectErr != nil {
		return &dummyToken{err: m.connectErr}
	}
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(nil)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) { m.disconnected = true }
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := payload.([]byte)
	m.published = append(m.published, published{topic, qos, retained, data})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }
