package server

import (
	"strings"
	"sync"
	"time"
)

// ConnObserver is told when clients come and go. Notifications are
// fire-and-forget; a slow or failing observer must not block the
// connection lifecycle.
type ConnObserver interface {
	NotifyClientConnected(ip string, at time.Time)
	NotifyClientDisconnected(ip string, at time.Time)
}

// ClientInfo is a registry snapshot entry.
type ClientInfo struct {
	ID          string    `json:"id"`
	IP          string    `json:"ip"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// Registry tracks live client connections by id.
type Registry struct {
	mu       sync.Mutex
	clients  map[string]ClientInfo
	observer ConnObserver
}

func NewRegistry(observer ConnObserver) *Registry {
	return &Registry{
		clients:  make(map[string]ClientInfo),
		observer: observer,
	}
}

// Register records a connection under its id and notifies the observer.
func (r *Registry) Register(id, remoteAddr string) ClientInfo {
	info := ClientInfo{
		ID:          id,
		IP:          NormalizeIP(remoteAddr),
		ConnectedAt: time.Now(),
	}

	r.mu.Lock()
	r.clients[id] = info
	r.mu.Unlock()

	if r.observer != nil {
		r.observer.NotifyClientConnected(info.IP, info.ConnectedAt)
	}
	return info
}

// Unregister removes a connection. Unknown ids are ignored so a double
// close cannot fire a second disconnect notification.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	info, ok := r.clients[id]
	if ok {
		delete(r.clients, id)
	}
	r.mu.Unlock()

	if ok && r.observer != nil {
		r.observer.NotifyClientDisconnected(info.IP, time.Now())
	}
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// All returns a snapshot of the live connections.
func (r *Registry) All() []ClientInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ClientInfo, 0, len(r.clients))
	for _, info := range r.clients {
		out = append(out, info)
	}
	return out
}

// NormalizeIP strips the port and collapses IPv6 spellings of local and
// IPv4-mapped addresses to their familiar dotted form.
func NormalizeIP(remoteAddr string) string {
	ip := remoteAddr

	// net.Conn RemoteAddr renders as host:port, with IPv6 hosts in
	// brackets.
	if i := strings.LastIndex(ip, ":"); i >= 0 && strings.Count(ip, ":") == 1 {
		ip = ip[:i]
	} else if strings.HasPrefix(ip, "[") {
		if j := strings.Index(ip, "]"); j > 0 {
			ip = ip[1:j]
		}
	}

	ip = strings.TrimPrefix(ip, "::ffff:")
	if ip == "::1" {
		ip = "127.0.0.1"
	}
	return ip
}
