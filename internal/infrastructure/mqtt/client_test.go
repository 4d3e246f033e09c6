package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "smartwaste-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// disconnected returns a client that was never connected.
func disconnected() *Client {
	return &Client{cfg: testConfig(), subscriptions: make(map[string]subscription)}
}

// mockLogger implements Logger.
type mockLogger struct {
	errors []string
	warns  []string
	mu     sync.Mutex
}

func (l *mockLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

// =============================================================================
// Topic Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"AllBinFill", topics.AllBinFill(), "smartwaste/bin/+/fill"},
		{"CoreBinStatus", topics.CoreBinStatus("Bin-7"), "smartwaste/core/bin/Bin-7/status"},
		{"CoreAlert", topics.CoreAlert("Bin-7"), "smartwaste/core/alert/Bin-7"},
		{"SystemStatus", topics.SystemStatus(), "smartwaste/system/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestDeviceFromFillTopic(t *testing.T) {
	tests := []struct {
		topic  string
		want   string
		wantOK bool
	}{
		{"smartwaste/bin/Bin-7/fill", "Bin-7", true},
		{"smartwaste/bin/ScriptDebug/fill", "ScriptDebug", true},
		{"smartwaste/bin//fill", "", false},
		{"smartwaste/bin/Bin-7/status", "", false},
		{"smartwaste/core/bin/Bin-7/status", "", false},
		{"other/bin/Bin-7/fill", "", false},
		{"smartwaste/bin/a/b/fill", "", false},
	}

	for _, tt := range tests {
		got, ok := Topics{}.DeviceFromFillTopic(tt.topic)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("DeviceFromFillTopic(%q) = (%q, %v), want (%q, %v)", tt.topic, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestValidTopicLevel(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"Bin-7", true},
		{"bin 7 (north)", true},
		{"", false},
		{"a/b", false},
		{"bin+1", false},
		{"bin#1", false},
		{"bin\x00", false},
		{"\xff", false},
	}
	for _, tt := range tests {
		if got := ValidTopicLevel(tt.level); got != tt.want {
			t.Errorf("ValidTopicLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

// =============================================================================
// Option Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.MQTTAuthConfig{Username: "core", Password: "secret"}

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want tcp://127.0.0.1:1883", opts.Servers)
	}
	if opts.ClientID != "smartwaste-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "core" || opts.Password != "secret" {
		t.Errorf("credentials = %q/%q", opts.Username, opts.Password)
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Error("expected auto-reconnect and clean session")
	}
	if opts.TLSConfig != nil {
		t.Error("TLSConfig set without broker.tls")
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)

	if opts.Servers[0].Scheme != "ssl" {
		t.Errorf("scheme = %q, want ssl", opts.Servers[0].Scheme)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("expected TLS 1.2 minimum")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, "smartwaste-test")

	if !opts.WillEnabled || !opts.WillRetained {
		t.Fatal("LWT should be enabled and retained")
	}
	if opts.WillTopic != "smartwaste/system/status" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}

	var payload availability
	if err := json.Unmarshal(opts.WillPayload, &payload); err != nil {
		t.Fatalf("unmarshal LWT: %v", err)
	}
	if payload.Status != "offline" || payload.Reason != "unexpected_disconnect" || payload.ClientID != "smartwaste-test" {
		t.Errorf("LWT payload = %+v", payload)
	}
}

func TestAvailabilityPayload_OmitsEmptyReason(t *testing.T) {
	got := availabilityPayload("online", "core", "")
	if strings.Contains(got, "reason") {
		t.Errorf("payload %s should not carry a reason", got)
	}
}

// =============================================================================
// Disconnected Client Tests
// =============================================================================

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on unconnected client error = %v, want nil", err)
	}
}

func TestIsConnected_InitialState(t *testing.T) {
	if disconnected().IsConnected() {
		t.Error("IsConnected() = true for new client")
	}
}

func TestHealthCheck_Disconnected(t *testing.T) {
	client := disconnected()

	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}

func TestPublish_Validation(t *testing.T) {
	client := disconnected()

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		want    error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"invalid qos", "smartwaste/test", []byte("x"), 3, ErrInvalidQoS},
		{"oversized payload", "smartwaste/test", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"not connected", "smartwaste/test", []byte("x"), 1, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := client.Publish(tt.topic, tt.payload, tt.qos, false); !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSubscribe_Validation(t *testing.T) {
	client := disconnected()
	noop := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		want    error
	}{
		{"empty topic", "", 1, noop, ErrInvalidTopic},
		{"invalid qos", "smartwaste/test", 5, noop, ErrInvalidQoS},
		{"nil handler", "smartwaste/test", 1, nil, ErrSubscribeFailed},
		{"not connected", "smartwaste/test", 1, noop, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := client.Subscribe(tt.topic, tt.qos, tt.handler); !errors.Is(err, tt.want) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.want)
			}
		})
	}

	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after failed subscribes, want 0", client.SubscriptionCount())
	}
	if client.HasSubscription("smartwaste/test") {
		t.Error("HasSubscription() = true after failed subscribe")
	}
}

func TestUnsubscribe_Validation(t *testing.T) {
	client := disconnected()

	if err := client.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe(\"\") error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Unsubscribe("smartwaste/test"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() error = %v, want ErrNotConnected", err)
	}
}

// =============================================================================
// Handler Dispatch Tests
// =============================================================================

func TestDispatch_LogsHandlerError(t *testing.T) {
	client := disconnected()
	logger := &mockLogger{}
	client.SetLogger(logger)

	client.dispatch(func(string, []byte) error {
		return errors.New("bad payload")
	}, "smartwaste/bin/Bin-1/fill", nil)

	if len(logger.warns) != 1 {
		t.Errorf("warns = %v, want one entry", logger.warns)
	}
}

func TestDispatch_RecoversPanic(t *testing.T) {
	client := disconnected()
	logger := &mockLogger{}
	client.SetLogger(logger)

	client.dispatch(func(string, []byte) error {
		panic("boom")
	}, "smartwaste/bin/Bin-1/fill", nil)

	if len(logger.errors) != 1 {
		t.Errorf("errors = %v, want one entry", logger.errors)
	}
}

func TestDispatch_NoLogger(t *testing.T) {
	client := disconnected()
	client.dispatch(func(string, []byte) error { panic("boom") }, "t", nil)
}

func TestCallbacks(t *testing.T) {
	client := disconnected()

	var gotErr error
	client.SetOnDisconnect(func(err error) { gotErr = err })
	client.handleDisconnect(errors.New("link down"))

	if gotErr == nil || gotErr.Error() != "link down" {
		t.Errorf("onDisconnect error = %v", gotErr)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after disconnect")
	}
}
