package system

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/Cyclone1070/deskpal/internal/capability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTool() *Tool {
	zone := time.FixedZone("CST", 8*3600)
	return &Tool{
		now:      func() time.Time { return time.Date(2026, 3, 4, 9, 5, 7, 0, zone) },
		hostname: func() (string, error) { return "pal-desktop", nil },
		addrs: func() ([]net.Addr, error) {
			return []net.Addr{
				&net.IPNet{IP: net.ParseIP("127.0.0.1"), Mask: net.CIDRMask(8, 32)},
				&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
				&net.IPNet{IP: net.ParseIP("192.168.1.20"), Mask: net.CIDRMask(24, 32)},
			}, nil
		},
	}
}

func TestTime(t *testing.T) {
	tool := newTestTool()

	t.Run("Default Format", func(t *testing.T) {
		res, err := tool.Time(context.Background(), TimeRequest{})
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "2026-03-04 09:05:07", res.Payload["time"])
		assert.Equal(t, "UTC+8", res.Payload["timezone"])
	})

	t.Run("Custom Format", func(t *testing.T) {
		res, err := tool.Time(context.Background(), TimeRequest{Format: "%H:%M"})
		require.NoError(t, err)
		assert.Equal(t, "09:05", res.Payload["time"])
	})
}

func TestDate(t *testing.T) {
	res, err := newTestTool().Date(context.Background(), struct{}{})

	require.NoError(t, err)
	assert.Equal(t, 2026, res.Payload["year"])
	assert.Equal(t, 3, res.Payload["month"])
	assert.Equal(t, 4, res.Payload["day"])
	assert.Equal(t, "Wednesday", res.Payload["weekday_name"])
	assert.Equal(t, 2, res.Payload["weekday"])
	assert.Equal(t, "2026-03-04", res.Payload["date_str"])
}

func TestInfo(t *testing.T) {
	res, err := newTestTool().Info(context.Background(), struct{}{})

	require.NoError(t, err)
	assert.Equal(t, "pal-desktop", res.Payload["node"])
	assert.NotEmpty(t, res.Payload["system"])
}

func TestNetwork(t *testing.T) {
	t.Run("First Non Loopback IPv4", func(t *testing.T) {
		res, err := newTestTool().Network(context.Background(), struct{}{})
		require.NoError(t, err)
		assert.Equal(t, "192.168.1.20", res.Payload["ip_address"])
	})

	t.Run("Hostname Failure", func(t *testing.T) {
		tool := newTestTool()
		tool.hostname = func() (string, error) { return "", errors.New("no name") }
		res, err := tool.Network(context.Background(), struct{}{})
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "no name")
	})
}

func TestCapabilities_Registered(t *testing.T) {
	reg := capability.NewRegistry(newTestTool().Capabilities()...)

	c, ok := reg.Lookup(string(capability.GetTime))
	require.True(t, ok)
	res, err := c.Invoke(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.True(t, res.Success)

	for _, name := range []capability.Name{capability.GetDate, capability.GetSystemInfo, capability.GetNetworkInfo} {
		_, ok := reg.Lookup(string(name))
		assert.True(t, ok, name)
	}
}
