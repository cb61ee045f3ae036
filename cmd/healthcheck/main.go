// Command healthcheck is the container HEALTHCHECK probe: it exits non-zero unless
// /healthz answers 200.
package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"time"
)

func main() {
	os.Exit(run(healthURL(os.Getenv("HTTP_ADDR"))))
}

// healthURL maps an HTTP_ADDR listen address to a local URL. Wildcard hosts
// (":8080", "0.0.0.0:9000", "[::]:9000") are dialled as localhost.
func healthURL(addr string) string {
	if addr == "" {
		addr = ":8080"
	}
	if host, port, err := net.SplitHostPort(addr); err == nil {
		switch host {
		case "", "0.0.0.0", "::":
			addr = net.JoinHostPort("localhost", port)
		}
	}
	return "http://" + addr + "/healthz"
}

func run(url string) int {
	client := &http.Client{Timeout: 3 * time.Second}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		return 1
	}
	resp, err := client.Do(req)
	if err != nil {
		return 1
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("failed to close response body: %v", err)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return 1
	}
	return 0
}
