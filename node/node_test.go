package node

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/host"
)

func TestIdentifyHostnameError(t *testing.T) {
	id := Identifier{Hostname: func() (string, error) { return "", errors.New("uts namespace gone") }}
	if _, err := id.Identify(context.Background()); err == nil {
		t.Fatal("expected error when hostname is unavailable")
	}
	id = Identifier{Hostname: func() (string, error) { return "", nil }}
	if _, err := id.Identify(context.Background()); err == nil {
		t.Fatal("expected error for empty hostname")
	}
}

func TestIdentifyHostInfoBestEffort(t *testing.T) {
	id := Identifier{
		Hostname: func() (string, error) { return "web-2", nil },
		HostInfo: func(context.Context) (*host.InfoStat, error) { return nil, errors.New("no /proc") },
	}
	f, err := id.Identify(context.Background())
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if f.Hostname != "web-2" {
		t.Errorf("Hostname = %q, want web-2", f.Hostname)
	}
	if f.Summary() != "" {
		t.Errorf("Summary() = %q, want empty", f.Summary())
	}
}

func TestIdentifyHostInfo(t *testing.T) {
	id := Identifier{
		Hostname: func() (string, error) { return "web-1", nil },
		HostInfo: func(context.Context) (*host.InfoStat, error) {
			return &host.InfoStat{OS: "linux", Platform: "ubuntu", PlatformVersion: "22.04", KernelVersion: "6.5.0", Uptime: 90}, nil
		},
	}
	f, err := id.Identify(context.Background())
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if got, want := f.Summary(), "ubuntu 22.04 (linux 6.5.0)"; got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
	if f.Uptime != 90*time.Second {
		t.Errorf("Uptime = %v, want 1m30s", f.Uptime)
	}
}

func TestIdentifyDefaultsToOS(t *testing.T) {
	f, err := Identifier{}.Identify(context.Background())
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if f.Hostname == "" {
		t.Error("expected hostname from OS")
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	if got := FormatTimestamp(ts); got != "2024-01-02 03:04:05" {
		t.Errorf("FormatTimestamp = %q", got)
	}
	if !regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`).MatchString(FormatTimestamp(time.Now())) {
		t.Error("FormatTimestamp(now) does not match YYYY-MM-DD HH:MM:SS")
	}
}
