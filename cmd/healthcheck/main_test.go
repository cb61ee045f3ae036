package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthURL(t *testing.T) {
	tests := map[string]string{
		"":              "http://localhost:8080/healthz",
		":9000":         "http://localhost:9000/healthz",
		"0.0.0.0:9001":  "http://localhost:9001/healthz",
		"[::]:8080":     "http://localhost:8080/healthz",
		"[::1]:8080":    "http://[::1]:8080/healthz",
		"10.1.2.3:8080": "http://10.1.2.3:8080/healthz",
	}
	for addr, want := range tests {
		if got := healthURL(addr); got != want {
			t.Errorf("healthURL(%q) = %q, want %q", addr, got, want)
		}
	}
}

func TestRun(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer ok.Close()
	if code := run(ok.URL + "/healthz"); code != 0 {
		t.Errorf("run(ok) = %d, want 0", code)
	}

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bad.Close()
	if code := run(bad.URL + "/healthz"); code != 1 {
		t.Errorf("run(503) = %d, want 1", code)
	}

	if code := run("http://127.0.0.1:1/healthz"); code != 1 {
		t.Errorf("run(refused) = %d, want 1", code)
	}
}
