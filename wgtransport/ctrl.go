package wgtransport

import (
	"fmt"
	"sync"

	"golang.zx2c4.com/wireguard/wgctrl"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// CtrlDevice is a Device that takes a preconfigured kernel or `wg`-tool compatible interface and
// interacts with it.
//
// On linux, run:
// - sudo ip link add dev wg0 type wireguard
// - sudo ip link set wg0 up
//
// On macos, run:
// - sudo wireguard-go utun
// - sudo chown $USER /var/run/wireguard/utun*
type CtrlDevice struct {
	// Control client
	client *wgctrl.Client
	// Device name
	name string

	mu sync.Mutex
}

// OpenCtrlDevice opens the existing device name.
func OpenCtrlDevice(name string) (*CtrlDevice, error) {
	client, err := wgctrl.New()
	if err != nil {
		return nil, fmt.Errorf("could not open wireguard control client: %w", err)
	}

	if _, err := client.Device(name); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not find wireguard device %q: %w", name, err)
	}

	return &CtrlDevice{client: client, name: name}, nil
}

func (c *CtrlDevice) Configure(cfg wgtypes.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.client.ConfigureDevice(c.name, cfg)
}

func (c *CtrlDevice) Peers() ([]wgtypes.Peer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	device, err := c.client.Device(c.name)
	if err != nil {
		return nil, err
	}

	return device.Peers, nil
}

func (c *CtrlDevice) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.client.Close()
}
