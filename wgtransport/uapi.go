package wgtransport

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/edup2p/lobbylink/types"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// configToUAPI renders cfg as a wireguard-go UAPI "set" body.
func configToUAPI(cfg wgtypes.Config) string {
	var b strings.Builder

	if cfg.PrivateKey != nil {
		fmt.Fprintf(&b, "private_key=%s\n", hex.EncodeToString(cfg.PrivateKey[:]))
	}
	if cfg.ListenPort != nil {
		fmt.Fprintf(&b, "listen_port=%d\n", *cfg.ListenPort)
	}
	if cfg.FirewallMark != nil {
		fmt.Fprintf(&b, "fwmark=%d\n", *cfg.FirewallMark)
	}
	if cfg.ReplacePeers {
		b.WriteString("replace_peers=true\n")
	}

	for _, p := range cfg.Peers {
		fmt.Fprintf(&b, "public_key=%s\n", hex.EncodeToString(p.PublicKey[:]))

		if p.Remove {
			b.WriteString("remove=true\n")
			continue
		}

		if p.UpdateOnly {
			b.WriteString("update_only=true\n")
		}
		if p.PresharedKey != nil {
			fmt.Fprintf(&b, "preshared_key=%s\n", hex.EncodeToString(p.PresharedKey[:]))
		}
		if p.Endpoint != nil {
			fmt.Fprintf(&b, "endpoint=%s\n", types.NormaliseAddrPort(p.Endpoint.AddrPort()))
		}
		if p.PersistentKeepaliveInterval != nil {
			fmt.Fprintf(&b, "persistent_keepalive_interval=%d\n", int(p.PersistentKeepaliveInterval.Seconds()))
		}
		if p.ReplaceAllowedIPs {
			b.WriteString("replace_allowed_ips=true\n")
		}
		for _, ip := range p.AllowedIPs {
			fmt.Fprintf(&b, "allowed_ip=%s\n", ip.String())
		}
	}

	return b.String()
}

// parseUAPIPeers reads the peers out of a wireguard-go UAPI "get" response.
func parseUAPIPeers(s string) ([]wgtypes.Peer, error) {
	var (
		peers []wgtypes.Peer
		cur   *wgtypes.Peer

		hsSec, hsNsec int64
	)

	flush := func() {
		if cur == nil {
			return
		}
		if hsSec != 0 || hsNsec != 0 {
			cur.LastHandshakeTime = time.Unix(hsSec, hsNsec)
		}
		peers = append(peers, *cur)
	}

	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}

		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("malformed uapi line %q", line)
		}

		if k == "public_key" {
			flush()

			pub, err := parseHexKey(v)
			if err != nil {
				return nil, err
			}

			cur = &wgtypes.Peer{PublicKey: pub}
			hsSec, hsNsec = 0, 0
			continue
		}

		if cur == nil {
			// device-level key
			continue
		}

		var err error

		switch k {
		case "preshared_key":
			cur.PresharedKey, err = parseHexKey(v)
		case "endpoint":
			var ap netip.AddrPort
			if ap, err = netip.ParseAddrPort(v); err == nil {
				cur.Endpoint = net.UDPAddrFromAddrPort(ap)
			}
		case "last_handshake_time_sec":
			hsSec, err = strconv.ParseInt(v, 10, 64)
		case "last_handshake_time_nsec":
			hsNsec, err = strconv.ParseInt(v, 10, 64)
		case "tx_bytes":
			cur.TransmitBytes, err = strconv.ParseInt(v, 10, 64)
		case "rx_bytes":
			cur.ReceiveBytes, err = strconv.ParseInt(v, 10, 64)
		case "persistent_keepalive_interval":
			var secs int
			if secs, err = strconv.Atoi(v); err == nil {
				cur.PersistentKeepaliveInterval = time.Duration(secs) * time.Second
			}
		case "protocol_version":
			cur.ProtocolVersion, err = strconv.Atoi(v)
		case "allowed_ip":
			var ipNet *net.IPNet
			if _, ipNet, err = net.ParseCIDR(v); err == nil {
				cur.AllowedIPs = append(cur.AllowedIPs, *ipNet)
			}
		}

		if err != nil {
			return nil, fmt.Errorf("invalid uapi value for %s: %w", k, err)
		}
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}

	flush()

	return peers, nil
}

func parseHexKey(s string) (wgtypes.Key, error) {
	var k wgtypes.Key

	b, err := hex.DecodeString(s)
	if err != nil {
		return k, fmt.Errorf("invalid hex key: %w", err)
	}
	if len(b) != len(k) {
		return k, fmt.Errorf("invalid key length %d", len(b))
	}

	copy(k[:], b)
	return k, nil
}
