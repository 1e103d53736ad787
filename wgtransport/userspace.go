package wgtransport

import (
	"fmt"
	"log/slog"

	"golang.zx2c4.com/wireguard/conn"
	"golang.zx2c4.com/wireguard/device"
	"golang.zx2c4.com/wireguard/tun"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// UserspaceDevice is a Device running wireguard-go in-process, configured over its UAPI.
type UserspaceDevice struct {
	dev *device.Device
}

// NewUserspaceDevice creates a TUN device called name, and runs wireguard-go on it.
func NewUserspaceDevice(name string, mtu int) (*UserspaceDevice, error) {
	tunDev, err := tun.CreateTUN(name, mtu)
	if err != nil {
		return nil, fmt.Errorf("failed to create TUN device: %w", err)
	}

	if realName, err := tunDev.Name(); err == nil {
		slog.Info("using TUN device", "name", realName)
	} else {
		slog.Warn("got error trying to get TUN device name", "err", err)
	}

	return NewUserspaceDeviceFrom(tunDev, conn.NewDefaultBind())
}

// NewUserspaceDeviceFrom runs wireguard-go over an existing TUN device and bind.
func NewUserspaceDeviceFrom(tunDev tun.Device, bind conn.Bind) (*UserspaceDevice, error) {
	wgDev := device.NewDevice(tunDev, bind, &device.Logger{
		Verbosef: func(format string, args ...any) {
			slog.Debug(fmt.Sprintf(format, args...), "from", "wireguard-go")
		},
		Errorf: func(format string, args ...any) {
			slog.Error(fmt.Sprintf(format, args...), "from", "wireguard-go")
		},
	})

	if err := wgDev.Up(); err != nil {
		wgDev.Close()
		return nil, fmt.Errorf("failed to bring up wireguard device: %w", err)
	}

	return &UserspaceDevice{dev: wgDev}, nil
}

func (u *UserspaceDevice) Configure(cfg wgtypes.Config) error {
	if err := u.dev.IpcSet(configToUAPI(cfg)); err != nil {
		return fmt.Errorf("failed to do IPC set: %w", err)
	}

	return nil
}

func (u *UserspaceDevice) Peers() ([]wgtypes.Peer, error) {
	s, err := u.dev.IpcGet()
	if err != nil {
		return nil, fmt.Errorf("failed to do IPC get: %w", err)
	}

	return parseUAPIPeers(s)
}

func (u *UserspaceDevice) Close() error {
	u.dev.Close()
	return nil
}
