// Package mqtt connects the servo to an MQTT broker for remote commands and
// status reports.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"servoap/servo"
)

// Config holds MQTT connection settings.
type Config struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	CACert     string `yaml:"ca_cert"`
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`
}

// Handlers receives connection changes and decoded control commands.
// Command handlers run on the paho router goroutine and must not block.
type Handlers struct {
	OnConnect    func()
	OnDisconnect func()
	OnRotate     func(dir servo.Direction, turns int)
	OnDuty       func(duty servo.Duty)
	OnStop       func()
}

// Client is the servo's broker session. A Client built without a host is
// disabled: it reports itself connected and drops every publish.
type Client struct {
	client   paho.Client
	topics   Topics
	logger   *zap.SugaredLogger
	handlers Handlers
}

const (
	stateOnline  = "online"
	stateOffline = "offline"

	publishTimeout = 2 * time.Second
)

// New creates a Client for clientID. The broker sees the node go offline
// through a retained last will on the state topic.
func New(cfg Config, clientID string, logger *zap.SugaredLogger, handlers Handlers) (*Client, error) {
	c := &Client{
		topics:   NewTopics(clientID),
		logger:   logger,
		handlers: handlers,
	}
	if cfg.Host == "" {
		logger.Info("MQTT disabled (no host configured)")
		return c, nil
	}

	scheme, port := "tcp", 1883
	var tlsConfig *tls.Config
	if cfg.CACert != "" || cfg.ClientCert != "" {
		scheme, port = "ssl", 8883
		var err error
		if tlsConfig, err = buildTLSConfig(cfg); err != nil {
			return nil, fmt.Errorf("build TLS config: %w", err)
		}
	} else {
		logger.Info("MQTT using non-TLS connection")
	}
	if cfg.Port != 0 {
		port = cfg.Port
	}

	opts := paho.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, port)).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetKeepAlive(60*time.Second).
		SetWill(c.topics.State, stateOffline, 1, true).
		SetConnectionLostHandler(c.handleConnectionLost).
		SetOnConnectHandler(c.handleConnect)
	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
	}

	base := logger.Desugar().Named("paho")
	paho.ERROR = zap.NewStdLog(base.Named("error"))
	paho.CRITICAL = zap.NewStdLog(base.Named("crit"))
	paho.WARN = zap.NewStdLog(base.Named("warn"))

	c.client = paho.NewClient(opts)
	return c, nil
}

func buildTLSConfig(cfg Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{}

	if cfg.CACert != "" {
		pem, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("read CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates in %s", cfg.CACert)
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.ClientCert != "" && cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// Connect starts the broker session. paho keeps retrying in the background,
// so an error here only reports the first attempt.
func (c *Client) Connect() error {
	if c.client == nil {
		if c.handlers.OnConnect != nil {
			c.handlers.OnConnect()
		}
		return nil
	}
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect: %w", token.Error())
	}
	return nil
}

// Disconnect marks the node offline and closes the session.
func (c *Client) Disconnect() {
	if c.client == nil {
		return
	}
	if c.client.IsConnected() {
		c.publish(c.topics.State, 1, true, stateOffline).WaitTimeout(publishTimeout)
	}
	c.client.Disconnect(250)
}

// PublishDuty reports a committed duty value.
func (c *Client) PublishDuty(duty servo.Duty) {
	payload, err := encodeDutyStatus(duty)
	if err != nil {
		c.logger.Errorf("Encode duty status: %v", err)
		return
	}
	c.publish(c.topics.DutyStatus, 0, false, payload)
}

// RunPing publishes a keepalive status every interval until ctx is done.
func (c *Client) RunPing(ctx context.Context, interval time.Duration) {
	if c.client == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.publish(c.topics.Ping, 0, false, `{"status":"ok"}`)
		}
	}
}

// publish sends payload unless the client is disabled.
func (c *Client) publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	if c.client == nil {
		return doneToken{}
	}
	return c.client.Publish(topic, qos, retained, payload)
}

func (c *Client) handleConnect(client paho.Client) {
	c.logger.Info("MQTT connection established")

	c.publish(c.topics.State, 1, true, stateOnline)

	if token := client.SubscribeMultiple(c.topics.control(), c.handleMessage); token.Wait() && token.Error() != nil {
		c.logger.Errorf("Subscribe control topics: %v", token.Error())
	}
	if c.handlers.OnConnect != nil {
		c.handlers.OnConnect()
	}
}

func (c *Client) handleConnectionLost(client paho.Client, err error) {
	c.logger.Warnf("MQTT connection lost: %v", err)
	if c.handlers.OnDisconnect != nil {
		c.handlers.OnDisconnect()
	}
}

func (c *Client) handleMessage(client paho.Client, msg paho.Message) {
	if err := c.dispatch(msg.Topic(), msg.Payload()); err != nil {
		c.logger.Warnf("Remote command on %s: %v", msg.Topic(), err)
	}
}

// doneToken is returned for publishes on a disabled client.
type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (doneToken) Error() error { return nil }
