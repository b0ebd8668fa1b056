package server

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConnObserver struct {
	mu           sync.Mutex
	connected    []string
	disconnected []string
}

func (o *recordingConnObserver) NotifyClientConnected(ip string, at time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.connected = append(o.connected, ip)
}

func (o *recordingConnObserver) NotifyClientDisconnected(ip string, at time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.disconnected = append(o.disconnected, ip)
}

func TestRegistryRegisterUnregister(t *testing.T) {
	obs := &recordingConnObserver{}
	r := NewRegistry(obs)

	info := r.Register("c1", "127.0.0.1:54321")
	assert.Equal(t, "127.0.0.1", info.IP)
	assert.Equal(t, 1, r.Count())

	r.Register("c2", "10.0.0.5:1000")
	assert.Equal(t, 2, r.Count())

	r.Unregister("c1")
	assert.Equal(t, 1, r.Count())

	assert.Equal(t, []string{"127.0.0.1", "10.0.0.5"}, obs.connected)
	assert.Equal(t, []string{"127.0.0.1"}, obs.disconnected)
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	obs := &recordingConnObserver{}
	r := NewRegistry(obs)

	r.Register("c1", "127.0.0.1:54321")
	r.Unregister("c1")
	r.Unregister("c1")
	r.Unregister("never-registered")

	assert.Equal(t, 0, r.Count())
	assert.Len(t, obs.disconnected, 1)
}

func TestRegistryAll(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("c1", "127.0.0.1:1")
	r.Register("c2", "127.0.0.1:2")

	all := r.All()
	require.Len(t, all, 2)
	ids := map[string]bool{all[0].ID: true, all[1].ID: true}
	assert.True(t, ids["c1"] && ids["c2"])
}

func TestNormalizeIP(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "127.0.0.1:54321", want: "127.0.0.1"},
		{input: "[::1]:54321", want: "127.0.0.1"},
		{input: "[::ffff:192.168.1.10]:9999", want: "192.168.1.10"},
		{input: "::ffff:10.1.2.3", want: "10.1.2.3"},
		{input: "::1", want: "127.0.0.1"},
		{input: "192.168.0.7", want: "192.168.0.7"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeIP(tt.input))
		})
	}
}
