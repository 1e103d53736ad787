package wgtransport

import (
	"encoding/hex"
	"net"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

func testKey(b byte) wgtypes.Key {
	var k wgtypes.Key
	for i := range k {
		k[i] = b
	}
	return k
}

func TestConfigToUAPI(t *testing.T) {
	priv := testKey(1)
	port := 51820
	keepAlive := 25 * time.Second

	cfg := wgtypes.Config{
		PrivateKey:   &priv,
		ListenPort:   &port,
		ReplacePeers: true,
		Peers: []wgtypes.PeerConfig{
			{
				PublicKey:                   testKey(2),
				Endpoint:                    net.UDPAddrFromAddrPort(netip.MustParseAddrPort("192.168.1.2:7777")),
				PersistentKeepaliveInterval: &keepAlive,
				ReplaceAllowedIPs:           true,
				AllowedIPs:                  []net.IPNet{{IP: net.IP{192, 168, 1, 2}, Mask: net.CIDRMask(32, 32)}},
			},
			{
				PublicKey: testKey(3),
				Remove:    true,
			},
		},
	}

	want := strings.Join([]string{
		"private_key=" + strings.Repeat("01", 32),
		"listen_port=51820",
		"replace_peers=true",
		"public_key=" + strings.Repeat("02", 32),
		"endpoint=192.168.1.2:7777",
		"persistent_keepalive_interval=25",
		"replace_allowed_ips=true",
		"allowed_ip=192.168.1.2/32",
		"public_key=" + strings.Repeat("03", 32),
		"remove=true",
	}, "\n") + "\n"

	assert.Equal(t, want, configToUAPI(cfg))
}

func TestParseUAPIPeers(t *testing.T) {
	get := strings.Join([]string{
		"private_key=" + strings.Repeat("01", 32),
		"listen_port=51820",
		"public_key=" + strings.Repeat("02", 32),
		"preshared_key=" + strings.Repeat("00", 32),
		"protocol_version=1",
		"endpoint=192.168.1.2:7777",
		"last_handshake_time_sec=1700000000",
		"last_handshake_time_nsec=500",
		"tx_bytes=100",
		"rx_bytes=200",
		"persistent_keepalive_interval=25",
		"allowed_ip=192.168.1.2/32",
		"public_key=" + strings.Repeat("03", 32),
		"last_handshake_time_sec=0",
		"last_handshake_time_nsec=0",
		"",
	}, "\n")

	peers, err := parseUAPIPeers(get)
	require.NoError(t, err)
	require.Len(t, peers, 2)

	p := peers[0]
	assert.Equal(t, testKey(2), p.PublicKey)
	assert.Equal(t, "192.168.1.2:7777", p.Endpoint.String())
	assert.Equal(t, time.Unix(1700000000, 500), p.LastHandshakeTime)
	assert.Equal(t, int64(100), p.TransmitBytes)
	assert.Equal(t, int64(200), p.ReceiveBytes)
	assert.Equal(t, 25*time.Second, p.PersistentKeepaliveInterval)
	assert.Equal(t, 1, p.ProtocolVersion)
	require.Len(t, p.AllowedIPs, 1)
	assert.Equal(t, "192.168.1.2/32", p.AllowedIPs[0].String())

	assert.Equal(t, testKey(3), peers[1].PublicKey)
	assert.True(t, peers[1].LastHandshakeTime.IsZero())
}

func TestParseUAPIPeersRejects(t *testing.T) {
	for _, bad := range []string{
		"public_key=zz",
		"public_key=" + hex.EncodeToString([]byte{1, 2, 3}),
		"public_key=" + strings.Repeat("02", 32) + "\ntx_bytes=many",
		"no separator",
	} {
		_, err := parseUAPIPeers(bad)
		assert.Error(t, err, "accepted %q", bad)
	}
}
