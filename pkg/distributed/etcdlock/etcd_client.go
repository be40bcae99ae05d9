package etcdlock

import (
	"crypto/tls"
	"errors"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

var ErrNoEndpoints = errors.New("etcdlock: at least one endpoint is required")

// ClientConfig is the subset of clientv3.Config exposed for JSON/YAML
// deserialization by the config layer; NewClient turns it into a real
// clientv3.Config.
type ClientConfig struct {
	Endpoints            []string      `koanf:"endpoints"`
	DialTimeout          time.Duration `koanf:"dial_timeout"`
	DialKeepAliveTime    time.Duration `koanf:"dial_keepalive_time"`
	DialKeepAliveTimeout time.Duration `koanf:"dial_keepalive_timeout"`
	Username             string        `koanf:"username"`
	Password             string        `koanf:"password"`
	TLS                  *tls.Config   `koanf:"-"`
}

// DefaultClientConfig returns the dial defaults the teacher's backend
// used for its etcd client: a 5s dial timeout and a 10s/3s keepalive
// pair, tuned so a dead node is noticed well inside a typical request
// deadline.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		DialTimeout:          5 * time.Second,
		DialKeepAliveTime:    10 * time.Second,
		DialKeepAliveTimeout: 3 * time.Second,
	}
}

// Validate reports whether cfg is usable to dial a cluster.
func (c *ClientConfig) Validate() error {
	if c == nil {
		return ErrNilClient
	}
	if len(c.Endpoints) == 0 {
		return ErrNoEndpoints
	}
	return nil
}

// NewClient dials an etcd cluster per cfg. The caller owns the returned
// client's lifecycle (Close it when done).
func NewClient(cfg *ClientConfig) (*clientv3.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return clientv3.New(clientv3.Config{
		Endpoints:            cfg.Endpoints,
		DialTimeout:          cfg.DialTimeout,
		DialKeepAliveTime:    cfg.DialKeepAliveTime,
		DialKeepAliveTimeout: cfg.DialKeepAliveTimeout,
		Username:             cfg.Username,
		Password:             cfg.Password,
		TLS:                  cfg.TLS,
	})
}

// NewFactoryFromConfig is a convenience wrapper equivalent to
// NewClient + NewFactory. The returned client must be closed by the
// caller once the factory is no longer needed.
func NewFactoryFromConfig(cfg *ClientConfig, factoryOpts ...FactoryOption) (Factory, *clientv3.Client, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}

	f, err := NewFactory(client, factoryOpts...)
	if err != nil {
		closeErr := client.Close()
		return nil, nil, errors.Join(err, closeErr)
	}
	return f, client, nil
}
