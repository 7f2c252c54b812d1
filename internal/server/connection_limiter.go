package server

import (
	"sync"
	"sync/atomic"
)

// LimitReason explains why a connection attempt was refused.
type LimitReason string

const (
	LimitReasonGlobal LimitReason = "global_limit"
	LimitReasonPerIP  LimitReason = "per_ip_limit"
)

// ConnectionLimits caps the total number of WebSocket connections and the
// number held by a single client IP.
type ConnectionLimits struct {
	globalMax int64
	perIPMax  int

	current int64

	mu    sync.Mutex
	perIP map[string]int
}

func NewConnectionLimits(globalMax int64, perIPMax int) *ConnectionLimits {
	return &ConnectionLimits{
		globalMax: globalMax,
		perIPMax:  perIPMax,
		perIP:     make(map[string]int),
	}
}

// Acquire reserves a connection slot for ip. On refusal the returned reason
// names the exhausted limit.
func (l *ConnectionLimits) Acquire(ip string) (bool, LimitReason) {
	if atomic.AddInt64(&l.current, 1) > l.globalMax {
		atomic.AddInt64(&l.current, -1)
		return false, LimitReasonGlobal
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.perIP[ip] >= l.perIPMax {
		atomic.AddInt64(&l.current, -1)
		return false, LimitReasonPerIP
	}
	l.perIP[ip]++
	return true, ""
}

// Release returns a slot previously handed out by Acquire.
func (l *ConnectionLimits) Release(ip string) {
	atomic.AddInt64(&l.current, -1)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.perIP[ip] <= 1 {
		delete(l.perIP, ip)
	} else {
		l.perIP[ip]--
	}
}

// Active reports the current number of held slots.
func (l *ConnectionLimits) Active() int64 {
	return atomic.LoadInt64(&l.current)
}
