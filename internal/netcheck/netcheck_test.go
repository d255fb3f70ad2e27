package netcheck

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

func TestDialAddr(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"http://example.com/save-data", "example.com:80", false},
		{"https://example.com/save-data", "example.com:443", false},
		{"http://10.0.0.2:8080/save", "10.0.0.2:8080", false},
		{"http://[::1]:9000/x", "[::1]:9000", false},
		{"ftp://example.com", "", true},
		{"/relative/path", "", true},
	}
	for _, tt := range tests {
		got, err := DialAddr(tt.url)
		if tt.wantErr {
			if err == nil {
				t.Errorf("DialAddr(%q) expected error, got %q", tt.url, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("DialAddr(%q) error: %v", tt.url, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DialAddr(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestDialProbe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()

	if !(DialProbe{Addr: addr, Timeout: time.Second}).Reachable(context.Background()) {
		t.Error("expected listening address to be reachable")
	}

	ln.Close()
	if (DialProbe{Addr: addr, Timeout: time.Second}).Reachable(context.Background()) {
		t.Error("expected closed address to be unreachable")
	}
}

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(context.Context) error { return f.err }

func TestHealthProbe(t *testing.T) {
	if !(HealthProbe{Client: fakeHealth{}}).Reachable(context.Background()) {
		t.Error("healthy checker should be reachable")
	}
	if (HealthProbe{Client: fakeHealth{err: errors.New("down")}}).Reachable(context.Background()) {
		t.Error("failing checker should be unreachable")
	}
}

func TestNew(t *testing.T) {
	p, err := New(ModeOffline, "", nil, 0)
	if err != nil {
		t.Fatalf("New(offline): %v", err)
	}
	if p.Reachable(context.Background()) {
		t.Error("offline probe reported reachable")
	}

	p, err = New(ModeOnline, "", nil, 0)
	if err != nil || !p.Reachable(context.Background()) {
		t.Errorf("online probe: reachable=%v err=%v", p != nil && p.Reachable(context.Background()), err)
	}

	if _, err := New(ModeHealth, "http://example.com", nil, 0); err == nil {
		t.Error("health mode without checker should fail")
	}
	if _, err := New("carrier-pigeon", "http://example.com", nil, 0); err == nil {
		t.Error("unknown mode should fail")
	}

	p, err = New("", "http://example.com/save-data", nil, time.Second)
	if err != nil {
		t.Fatalf("New(default): %v", err)
	}
	if dp, ok := p.(DialProbe); !ok || dp.Addr != "example.com:80" {
		t.Errorf("default probe = %#v, want DialProbe to example.com:80", p)
	}
}
