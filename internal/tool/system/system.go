// Package system provides the clock and host information capabilities.
package system

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/Cyclone1070/deskpal/internal/capability"
	"github.com/ncruces/go-strftime"
)

// DefaultTimeFormat is used when get_time receives no format.
const DefaultTimeFormat = "%Y-%m-%d %H:%M:%S"

// Tool groups the read-only host capabilities.
type Tool struct {
	now      func() time.Time
	hostname func() (string, error)
	addrs    func() ([]net.Addr, error)
}

// New creates a Tool reading the real clock and host.
func New() *Tool {
	return &Tool{
		now:      time.Now,
		hostname: os.Hostname,
		addrs:    net.InterfaceAddrs,
	}
}

// TimeRequest is the get_time parameter set.
type TimeRequest struct {
	Format string `json:"format"`
}

// Time reports the local time formatted with a strftime pattern.
func (t *Tool) Time(ctx context.Context, req TimeRequest) (capability.Result, error) {
	format := req.Format
	if format == "" {
		format = DefaultTimeFormat
	}
	now := t.now()
	return capability.OK(map[string]any{
		"time":      strftime.Format(format, now),
		"timestamp": now.Unix(),
		"timezone":  utcOffset(now),
	}), nil
}

// Date reports the local calendar date.
func (t *Tool) Date(ctx context.Context, _ struct{}) (capability.Result, error) {
	now := t.now()
	return capability.OK(map[string]any{
		"year":         now.Year(),
		"month":        int(now.Month()),
		"day":          now.Day(),
		"weekday":      (int(now.Weekday()) + 6) % 7, // 0 = Monday
		"weekday_name": now.Weekday().String(),
		"date_str":     now.Format("2006-01-02"),
	}), nil
}

// Info reports the operating system and machine.
func (t *Tool) Info(ctx context.Context, _ struct{}) (capability.Result, error) {
	host, err := t.hostname()
	if err != nil {
		return capability.Fail("hostname: %v", err), nil
	}
	return capability.OK(map[string]any{
		"system":     runtime.GOOS,
		"node":       host,
		"machine":    runtime.GOARCH,
		"processors": runtime.NumCPU(),
		"go_version": runtime.Version(),
	}), nil
}

// Network reports the hostname and the first non-loopback IPv4 address.
func (t *Tool) Network(ctx context.Context, _ struct{}) (capability.Result, error) {
	host, err := t.hostname()
	if err != nil {
		return capability.Fail("hostname: %v", err), nil
	}
	addrs, err := t.addrs()
	if err != nil {
		return capability.Fail("interface addresses: %v", err), nil
	}
	ip := "127.0.0.1"
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if v4 := ipNet.IP.To4(); v4 != nil {
			ip = v4.String()
			break
		}
	}
	return capability.OK(map[string]any{
		"hostname":   host,
		"ip_address": ip,
	}), nil
}

// Capabilities returns the registry entries backed by t.
func (t *Tool) Capabilities() []capability.Capability {
	return []capability.Capability{
		capability.NewAdapter(capability.GetTime, "Current local time", &capability.Schema{
			Type: capability.TypeObject,
			Properties: map[string]*capability.Schema{
				"format": {Type: capability.TypeString, Description: "strftime pattern, default " + DefaultTimeFormat},
			},
		}, t.Time),
		capability.NewAdapter(capability.GetDate, "Today's date and weekday", nil, t.Date),
		capability.NewAdapter(capability.GetSystemInfo, "Operating system and machine details", nil, t.Info),
		capability.NewAdapter(capability.GetNetworkInfo, "Hostname and local IP address", nil, t.Network),
	}
}

func utcOffset(t time.Time) string {
	_, offset := t.Zone()
	hours := offset / 3600
	mins := (offset % 3600) / 60
	if mins < 0 {
		mins = -mins
	}
	if mins == 0 {
		return fmt.Sprintf("UTC%+d", hours)
	}
	return fmt.Sprintf("UTC%+d:%02d", hours, mins)
}
