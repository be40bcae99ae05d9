package redlockconf

import "github.com/redis/go-redis/v9"

// BuildClients dials one *redis.Client per configured server, returning
// them alongside their addresses (for breaker/observability labeling).
// The caller owns the returned clients' lifecycle.
func (s *Settings) BuildClients() ([]redis.UniversalClient, []string, error) {
	clients := make([]redis.UniversalClient, len(s.Servers))
	addrs := make([]string, len(s.Servers))
	for i, sv := range s.Servers {
		cfg, err := redis.ParseURL(sv.Addr)
		if err != nil {
			return nil, nil, err
		}
		cfg.DialTimeout = s.NetworkTimeout
		clients[i] = redis.NewClient(cfg)
		addrs[i] = sv.Addr
	}
	return clients, addrs, nil
}
