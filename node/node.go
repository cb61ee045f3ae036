// Package node reports identity facts about the host serving the request.
package node

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/host"
)

// TimestampLayout is YYYY-MM-DD HH:MM:SS.
const TimestampLayout = "2006-01-02 15:04:05"

// Facts describes the node. Hostname is always set; the remaining fields are best effort.
type Facts struct {
	Hostname        string
	OS              string
	Platform        string
	PlatformVersion string
	KernelVersion   string
	Uptime          time.Duration
}

// Summary renders e.g. "ubuntu 22.04 (linux 6.5.0)"; empty if unknown.
func (f Facts) Summary() string {
	if f.Platform == "" && f.OS == "" {
		return ""
	}
	s := f.Platform
	if f.PlatformVersion != "" {
		s += " " + f.PlatformVersion
	}
	if f.OS != "" || f.KernelVersion != "" {
		s += fmt.Sprintf(" (%s %s)", f.OS, f.KernelVersion)
	}
	return s
}

// Identifier gathers Facts. The zero value uses the operating system.
type Identifier struct {
	Hostname func() (string, error)
	HostInfo func(ctx context.Context) (*host.InfoStat, error)
}

// Identify returns the node facts. Only a hostname failure is an error.
func (id Identifier) Identify(ctx context.Context) (Facts, error) {
	hostnameFn := id.Hostname
	if hostnameFn == nil {
		hostnameFn = os.Hostname
	}
	name, err := hostnameFn()
	if err != nil {
		return Facts{}, fmt.Errorf("read hostname: %w", err)
	}
	if name == "" {
		return Facts{}, fmt.Errorf("read hostname: empty")
	}
	f := Facts{Hostname: name}

	infoFn := id.HostInfo
	if infoFn == nil {
		infoFn = host.InfoWithContext
	}
	info, err := infoFn(ctx)
	if err != nil || info == nil {
		slog.Debug("host info unavailable", slog.Any("err", err), slog.String("component", "node"))
		return f, nil
	}
	f.OS = info.OS
	f.Platform = info.Platform
	f.PlatformVersion = info.PlatformVersion
	f.KernelVersion = info.KernelVersion
	f.Uptime = time.Duration(info.Uptime) * time.Second
	return f, nil
}

// FormatTimestamp renders t in the server's local zone.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}
