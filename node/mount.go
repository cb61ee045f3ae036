package node

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
)

// timingPayload is the size of the file written and read back when timing the share.
const timingPayload = 4 << 10

// Mount is the state of the shared NFS export on this node.
type Mount struct {
	Path    string
	Mounted bool   // an nfs* filesystem is mounted exactly at Path
	FSType  string // whatever is mounted at Path, empty if nothing is
	Device  string // "server:/export" for NFS

	// Filled in by Time; zero when the share was not timed.
	Write time.Duration
	Read  time.Duration

	Err string // listing or timing failure, shown instead of the state
}

// Summary renders the one-line state used on the status page.
func (m Mount) Summary() string {
	switch {
	case m.Err != "" && !m.Mounted:
		return "unknown (" + m.Err + ")"
	case m.Mounted:
		s := fmt.Sprintf("mounted (%s %s)", m.FSType, m.Device)
		if m.Write > 0 || m.Read > 0 {
			s += fmt.Sprintf(", write %s, read %s", m.Write.Round(time.Microsecond), m.Read.Round(time.Microsecond))
		}
		if m.Err != "" {
			s += ", " + m.Err
		}
		return s
	case m.FSType != "":
		return "not mounted (found " + m.FSType + ")"
	default:
		return "not mounted"
	}
}

// MountChecker inspects the mount table for Path. Partitions defaults to gopsutil's
// disk.PartitionsWithContext.
type MountChecker struct {
	Path       string
	Partitions func(ctx context.Context, all bool) ([]disk.PartitionStat, error)
}

// Check looks Path up in the mount table. It does no I/O on the share itself.
func (c MountChecker) Check(ctx context.Context) (Mount, error) {
	list := c.Partitions
	if list == nil {
		list = disk.PartitionsWithContext
	}
	m := Mount{Path: c.Path}
	parts, err := list(ctx, true)
	if err != nil {
		return m, fmt.Errorf("list partitions: %w", err)
	}
	want := filepath.Clean(c.Path)
	for _, p := range parts {
		if filepath.Clean(p.Mountpoint) != want {
			continue
		}
		// later entries shadow earlier ones at the same mountpoint
		m.FSType, m.Device = p.Fstype, p.Device
	}
	m.Mounted = strings.HasPrefix(m.FSType, "nfs")
	return m, nil
}

// Time writes a small file to the share, reads it back and removes it, recording
// both durations on m. The file name is unique so nodes sharing the export do not
// collide.
func (c MountChecker) Time(m *Mount) error {
	f, err := os.CreateTemp(c.Path, ".nfs_test-*")
	if err != nil {
		return fmt.Errorf("create test file: %w", err)
	}
	name := f.Name()
	defer os.Remove(name)

	payload := bytes.Repeat([]byte{'x'}, timingPayload)
	start := time.Now()
	if _, err := f.Write(payload); err != nil {
		f.Close()
		return fmt.Errorf("write test file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close test file: %w", err)
	}
	m.Write = time.Since(start)

	start = time.Now()
	data, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read test file: %w", err)
	}
	m.Read = time.Since(start)
	if len(data) != timingPayload {
		return fmt.Errorf("read test file: got %d bytes, want %d", len(data), timingPayload)
	}
	return nil
}

// Sample runs Check and, when the share is mounted, Time. Failures land in Mount.Err.
func (c MountChecker) Sample(ctx context.Context) Mount {
	m, err := c.Check(ctx)
	if err != nil {
		m.Err = err.Error()
		return m
	}
	if m.Mounted {
		if err := c.Time(&m); err != nil {
			m.Err = err.Error()
		}
	}
	return m
}

// Watch samples the share immediately and then every interval until ctx is done,
// handing each result to fn.
func (c MountChecker) Watch(ctx context.Context, interval time.Duration, fn func(Mount)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		m := c.Sample(ctx)
		if m.Err != "" {
			slog.Warn("nfs check failed", slog.String("path", c.Path), slog.String("err", m.Err))
		} else if !m.Mounted {
			slog.Warn("nfs share not mounted", slog.String("path", c.Path), slog.String("fstype", m.FSType))
		}
		fn(m)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
