// Package netcheck answers "is the network reachable" for the sync gate.
// Probes never retry; one failed attempt means offline.
package netcheck

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"
)

// Probe modes accepted by New.
const (
	ModeDial    = "dial"
	ModeHealth  = "health"
	ModeOnline  = "online"
	ModeOffline = "offline"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 3 * time.Second

// HealthChecker is the subset of the sink client used by HealthProbe.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// DialProbe reports reachable when a TCP connection to Addr succeeds.
type DialProbe struct {
	Addr    string
	Timeout time.Duration
}

// Reachable implements the sync gate's connectivity check.
func (p DialProbe) Reachable(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		slog.Debug("netcheck: dial failed", "addr", p.Addr, "err", err)
		return false
	}
	conn.Close()
	return true
}

// HealthProbe reports reachable when the sink's health endpoint answers 2xx.
type HealthProbe struct {
	Client  HealthChecker
	Timeout time.Duration
}

// Reachable implements the sync gate's connectivity check.
func (p HealthProbe) Reachable(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := p.Client.HealthCheck(ctx); err != nil {
		slog.Debug("netcheck: health check failed", "err", err)
		return false
	}
	return true
}

// Static always returns the same answer.
type Static bool

// Reachable implements the sync gate's connectivity check.
func (s Static) Reachable(context.Context) bool {
	return bool(s)
}

// Prober is satisfied by every probe in this package.
type Prober interface {
	Reachable(ctx context.Context) bool
}

// New builds the probe selected by mode. sinkURL is used to derive the dial
// address; health is only needed for ModeHealth.
func New(mode, sinkURL string, health HealthChecker, timeout time.Duration) (Prober, error) {
	switch mode {
	case "", ModeDial:
		addr, err := DialAddr(sinkURL)
		if err != nil {
			return nil, err
		}
		return DialProbe{Addr: addr, Timeout: timeout}, nil
	case ModeHealth:
		if health == nil {
			return nil, fmt.Errorf("health probe requires a health checker")
		}
		return HealthProbe{Client: health, Timeout: timeout}, nil
	case ModeOnline:
		return Static(true), nil
	case ModeOffline:
		return Static(false), nil
	default:
		return nil, fmt.Errorf("unknown probe mode %q (valid: %s, %s, %s, %s)", mode, ModeDial, ModeHealth, ModeOnline, ModeOffline)
	}
}

// DialAddr returns host:port for a sink URL, filling in the scheme's
// default port.
func DialAddr(sinkURL string) (string, error) {
	u, err := url.Parse(sinkURL)
	if err != nil {
		return "", fmt.Errorf("parse sink url: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("sink url %q has no host", sinkURL)
	}
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "https":
			port = "443"
		case "http":
			port = "80"
		default:
			return "", fmt.Errorf("sink url %q has no port and unknown scheme %q", sinkURL, u.Scheme)
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
