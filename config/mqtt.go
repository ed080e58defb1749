package config

import (
	"crypto/tls"
	"fmt"

	"github.com/google/uuid"
)

// MQTTConfig defines the connection parameters of the MQTT completer.
type MQTTConfig struct {
	Broker        string          `json:"broker"`
	ClientID      string          `json:"client_id"`
	Username      string          `json:"username"`
	Password      string          `json:"password"`
	RequestTopic  string          `json:"request_topic"`
	ResponseTopic string          `json:"response_topic"`
	UseTLS        bool            `json:"use_tls"`
	ClientCert    string          `json:"client_cert"`
	ClientKey     string          `json:"client_key"`
	CABundle      string          `json:"ca_bundle"`
	AuthMethod    string          `json:"auth_method"`
	QoS           map[string]byte `json:"qos"`
	LWTTopic      string          `json:"lwt_topic"`
	LWTPayload    string          `json:"lwt_payload"`
	LWTQoS        byte            `json:"lwt_qos"`
	LWTRetain     bool            `json:"lwt_retain"`
	MaxRetries    int             `json:"max_retries"`
	BackoffMS     int             `json:"backoff_ms"`
	// TimeoutSeconds bounds the wait for one response.
	TimeoutSeconds int         `json:"timeout_seconds"`
	TLSConfig      *tls.Config `json:"-"`
}

// SetDefaults applies sane defaults.
func (c *MQTTConfig) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "planday-" + uuid.NewString()[:8]
	}
	if c.RequestTopic == "" {
		c.RequestTopic = "planday/completion/request"
	}
	if c.ResponseTopic == "" {
		c.ResponseTopic = "planday/completion/response/" + c.ClientID
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 120
	}
}

// Validate checks mandatory fields.
func (c MQTTConfig) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	if c.RequestTopic == c.ResponseTopic {
		return fmt.Errorf("request and response topics must differ")
	}
	return nil
}
