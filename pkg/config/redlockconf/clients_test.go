package redlockconf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildClients_OneClientPerServer(t *testing.T) {
	s := &Settings{
		Servers: []ServerConfig{
			{Addr: "redis://localhost:6379"},
			{Addr: "redis://localhost:6380"},
		},
		NetworkTimeout: 50 * time.Millisecond,
	}

	clients, addrs, err := s.BuildClients()
	require.NoError(t, err)
	assert.Len(t, clients, 2)
	assert.Equal(t, []string{"redis://localhost:6379", "redis://localhost:6380"}, addrs)

	for _, c := range clients {
		_ = c.Close()
	}
}

func TestBuildClients_InvalidURL(t *testing.T) {
	s := &Settings{Servers: []ServerConfig{{Addr: "not a url"}}}
	_, _, err := s.BuildClients()
	assert.Error(t, err)
}
