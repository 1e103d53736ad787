package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"

	"github.com/edup2p/lobbylink/connman"
	"github.com/edup2p/lobbylink/types/addrbook"
	"github.com/edup2p/lobbylink/types/connstatus"
	"github.com/edup2p/lobbylink/types/key"
	"github.com/edup2p/lobbylink/types/roster"
	"github.com/edup2p/lobbylink/wgtransport"
	"go.uber.org/fx"
)

// Config is what the flags configure.
type Config struct {
	DeviceName string
	Userspace  bool
	MTU        int
	ListenPort int

	UserID      string
	DisplayName string
	PrivateKey  string

	// Bound is the address other members reach this client on.
	Bound netip.AddrPort

	RetryAttempts int
}

// Module wires a connection manager over a wireguard transport, following a local lobby.
func Module(cfg Config) fx.Option {
	return fx.Module("lobbyjoin",
		fx.Supply(cfg),
		fx.Provide(
			providePrivateKey,
			provideDevice,
			provideTransport,
			roster.NewLobby,
			provideLocalUser,
			provideStatusFeed,
			provideManager,
		),
	)
}

func providePrivateKey(cfg Config) (key.NodePrivate, error) {
	if cfg.PrivateKey == "" {
		slog.Info("no private key given, generating one")
		return key.NewNode(), nil
	}

	priv, err := key.UnmarshalPrivate(cfg.PrivateKey)
	if err != nil {
		return key.NodePrivate{}, fmt.Errorf("invalid private key: %w", err)
	}

	return *priv, nil
}

func provideDevice(lc fx.Lifecycle, cfg Config) (wgtransport.Device, error) {
	var (
		dev wgtransport.Device
		err error
	)

	if cfg.Userspace {
		dev, err = wgtransport.NewUserspaceDevice(cfg.DeviceName, cfg.MTU)
	} else {
		dev, err = wgtransport.OpenCtrlDevice(cfg.DeviceName)
	}
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return dev.Close()
		},
	})

	return dev, nil
}

func provideTransport(cfg Config, dev wgtransport.Device, priv key.NodePrivate) (*wgtransport.Transport, error) {
	return wgtransport.New(wgtransport.Options{
		Device:     dev,
		PrivateKey: priv,
		ListenPort: cfg.ListenPort,
		SelfID:     cfg.UserID,
	})
}

func provideLocalUser(cfg Config, priv key.NodePrivate) roster.User {
	e := addrbook.MakeEntry(priv.Public(), cfg.Bound)

	return roster.MakeUser(cfg.UserID, cfg.DisplayName, false, &e)
}

const statusBuffer = 16

func provideStatusFeed() *connman.ChanPublisher {
	return connman.NewChanPublisher(statusBuffer)
}

func provideManager(
	lc fx.Lifecycle,
	cfg Config,
	tr *wgtransport.Transport,
	lobby *roster.Lobby,
	feed *connman.ChanPublisher,
) (*connman.Manager, error) {
	opts := connman.Options{
		SelfID:    cfg.UserID,
		Transport: tr,
		Roster:    lobby,
		Publisher: connman.MultiPublisher{connman.LogPublisher{}, feed},
	}

	if cfg.RetryAttempts > 0 {
		opts.Retry = connman.DefaultRetryPolicy()
		opts.Retry.MaxAttempts = cfg.RetryAttempts
	}

	m, err := connman.NewManager(opts)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go m.Run()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			m.Cancel()

			select {
			case <-m.Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})

	return m, nil
}

// describeStatus is how statuses show up in the shell.
func describeStatus(s connstatus.Status) string {
	if s.IsFailure() {
		return "connection failed: " + s.String()
	}

	return "connection: " + s.String()
}
