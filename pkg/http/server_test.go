package http

import "testing"

func hasRoute(s *Server, method, path string) bool {
	for _, r := range s.Echo().Routes() {
		if r.Method == method && r.Path == path {
			return true
		}
	}
	return false
}

func TestMetricsEndpointMountedByDefault(t *testing.T) {
	s := NewServer(nil)
	if !hasRoute(s, "GET", "/metrics") {
		t.Fatal("expected /metrics to be mounted by default")
	}
}

func TestMetricsEndpointCustomPath(t *testing.T) {
	s := NewServer(nil, WithMetricsEndpoint(true, "/internal/metrics"))
	if !hasRoute(s, "GET", "/internal/metrics") {
		t.Fatal("expected /internal/metrics to be mounted")
	}
	if hasRoute(s, "GET", "/metrics") {
		t.Fatal("default path should not be mounted when overridden")
	}
}

func TestMetricsEndpointDisabled(t *testing.T) {
	s := NewServer(nil, WithMetricsEndpoint(false, "/metrics"))
	if hasRoute(s, "GET", "/metrics") {
		t.Fatal("expected no metrics route when disabled")
	}
}
