// Package mqtt implements a request/reply completion collaborator over an
// MQTT broker using Eclipse Paho.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/planday/config"
	"github.com/kilianp07/planday/core/completion"
	"github.com/kilianp07/planday/core/monitoring"
	"github.com/kilianp07/planday/infra/logger"
)

// ErrTimeout is returned when no response arrives in time.
var ErrTimeout = errors.New("completion response timeout")

// Config is the broker configuration, shared with the config package.
type Config = config.MQTTConfig

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// RequestMessage is published on the request topic.
type RequestMessage struct {
	CorrelationID string `json:"correlation_id"`
	ReplyTo       string `json:"reply_to"`
	RecordID      string `json:"record_id"`
	System        string `json:"system"`
	User          string `json:"user"`
	Timestamp     int64  `json:"timestamp"`
}

// ResponseMessage is expected on the response topic.
type ResponseMessage struct {
	CorrelationID string `json:"correlation_id"`
	Completion    string `json:"completion"`
	Error         string `json:"error,omitempty"`
}

// Completer publishes completion requests and waits for the correlated
// response. It is safe for concurrent use.
type Completer struct {
	cli           pahoClient
	requestTopic  string
	responseTopic string
	qos           map[string]byte

	mu      sync.Mutex
	pending map[string]chan ResponseMessage

	log        logger.Logger
	mon        monitoring.Monitor
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
}

var _ completion.Completer = (*Completer)(nil)

// NewCompleter connects to the broker and subscribes to the response topic.
func NewCompleter(cfg Config, log logger.Logger, mon monitoring.Monitor) (*Completer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.New("mqtt_completer")
	}
	c := &Completer{
		requestTopic:  cfg.RequestTopic,
		responseTopic: cfg.ResponseTopic,
		qos:           cfg.QoS,
		pending:       make(map[string]chan ResponseMessage),
		log:           log,
		mon:           monitoring.OrNop(mon),
		maxRetries:    cfg.MaxRetries,
		backoff:       time.Duration(cfg.BackoffMS) * time.Millisecond,
		timeout:       time.Duration(cfg.TimeoutSeconds) * time.Second,
	}

	opts.OnConnect = func(pc paho.Client) {
		log.Infof("MQTT connected")
		if token := pc.Subscribe(c.responseTopic, c.qosFor("response"), c.onResponse); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
			c.mon.CaptureException(token.Error(), map[string]string{"module": "mqtt", "topic": c.responseTopic})
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	c.cli = cli
	return c, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := LoadTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in c.
func LoadTLSConfig(c Config) (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caBytes) {
		return nil, fmt.Errorf("no certificates in %s", c.CABundle)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func (c *Completer) qosFor(kind string) byte {
	if q, ok := c.qos[kind]; ok {
		return q
	}
	return 0
}

func (c *Completer) onResponse(_ paho.Client, msg paho.Message) {
	var m ResponseMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		c.log.Errorf("failed to decode response: %v", err)
		return
	}
	c.mu.Lock()
	ch, ok := c.pending[m.CorrelationID]
	if ok {
		delete(c.pending, m.CorrelationID)
	}
	c.mu.Unlock()
	if !ok {
		c.log.Debugf("dropping response %s with no pending request", m.CorrelationID)
		return
	}
	ch <- m
}

// Complete publishes req and blocks until its response arrives, ctx ends or
// the configured timeout elapses.
func (c *Completer) Complete(ctx context.Context, req completion.Request) (string, error) {
	corrID := uuid.NewString()
	payload, err := json.Marshal(RequestMessage{
		CorrelationID: corrID,
		ReplyTo:       c.responseTopic,
		RecordID:      req.ID,
		System:        req.System,
		User:          req.User,
		Timestamp:     time.Now().UnixMilli(),
	})
	if err != nil {
		return "", err
	}

	ch := make(chan ResponseMessage, 1)
	c.mu.Lock()
	c.pending[corrID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, corrID)
		c.mu.Unlock()
	}()

	if err := c.publish(ctx, payload); err != nil {
		c.mon.CaptureException(err, map[string]string{"module": "mqtt", "record_id": req.ID})
		return "", fmt.Errorf("publish request %s: %w", req.ID, err)
	}
	c.log.Debugf("sent request %s for %s", corrID, req.ID)

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case m := <-ch:
		if m.Error != "" {
			return "", fmt.Errorf("request %s: remote error: %s", req.ID, m.Error)
		}
		return m.Completion, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", fmt.Errorf("request %s: %w", req.ID, ErrTimeout)
	}
}

// publish retries with exponential backoff.
func (c *Completer) publish(ctx context.Context, payload []byte) error {
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		token := c.cli.Publish(c.requestTopic, c.qosFor("request"), false, payload)
		token.Wait()
		if err = token.Error(); err == nil {
			return nil
		}
		c.log.Errorf("publish attempt %d failed: %v", attempt+1, err)
		if attempt == c.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff * time.Duration(1<<attempt)):
		}
	}
	return err
}

// Pending returns the number of requests awaiting a response.
func (c *Completer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close gracefully closes the MQTT connection.
func (c *Completer) Close() error {
	if c.cli != nil && c.cli.IsConnected() {
		c.cli.Disconnect(250)
	}
	return nil
}
