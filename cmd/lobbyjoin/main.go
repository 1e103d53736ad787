package main

import (
	"context"
	"flag"
	"log/slog"
	"net/netip"
	"os"
	"time"

	"github.com/abiosoft/ishell/v2"
	"github.com/edup2p/lobbylink/connman"
	"github.com/edup2p/lobbylink/types"
	"github.com/edup2p/lobbylink/types/roster"
	"github.com/edup2p/lobbylink/wgtransport"
	"github.com/google/uuid"
	"go.uber.org/fx"
)

var programLevel = new(slog.LevelVar) // Info by default

const lifecycleTimeout = 10 * time.Second

func main() {
	var (
		cfg   Config
		bound string
	)

	flag.StringVar(&cfg.DeviceName, "dev", "wg0", "wireguard device name")
	flag.BoolVar(&cfg.Userspace, "userspace", false, "run wireguard-go in-process, instead of using an existing device")
	flag.IntVar(&cfg.MTU, "mtu", 1280, "MTU of the userspace TUN device")
	flag.IntVar(&cfg.ListenPort, "port", 0, "wireguard listen port, 0 keeps the device's")
	flag.StringVar(&cfg.UserID, "id", "", "local lobby user ID, generated if empty")
	flag.StringVar(&cfg.DisplayName, "name", "player", "local display name")
	flag.StringVar(&cfg.PrivateKey, "key", "", "private key, with 'privkey:' prefix, generated if empty")
	flag.StringVar(&bound, "bind", "127.0.0.1:51820", "address other members reach this client on")
	flag.IntVar(&cfg.RetryAttempts, "retry", 0, "reconnect attempts after a dropped connection, 0 disables reconnecting")
	flag.Parse()

	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: programLevel, AddSource: true})
	slog.SetDefault(slog.New(h))

	if cfg.UserID == "" {
		cfg.UserID = uuid.NewString()
	}

	ap, err := netip.ParseAddrPort(bound)
	if err != nil {
		slog.Error("invalid bind address", "bind", bound, "err", err)
		os.Exit(1)
	}
	cfg.Bound = ap

	var s session

	app := fx.New(
		Module(cfg),
		fx.NopLogger,
		fx.Invoke(func(
			m *connman.Manager,
			tr *wgtransport.Transport,
			lobby *roster.Lobby,
			local roster.User,
			feed *connman.ChanPublisher,
		) {
			s = session{m: m, tr: tr, lobby: lobby, local: local, feed: feed}
		}),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer cancel()

	if err := app.Start(startCtx); err != nil {
		slog.Error("could not start", "err", err)
		os.Exit(1)
	}

	shell := ishell.New()

	shell.SetHomeHistoryPath(".lobbyjoin_history")

	shell.Println("LobbyJoin Interactive Shell")
	shell.Println("local user:", s.local)

	go s.printStatuses(shell)

	shell.AddCmd(&ishell.Cmd{
		Name: "trace",
		Help: "set log level to trace",
		Func: func(c *ishell.Context) {
			programLevel.Set(types.LevelTrace)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "debug",
		Help: "set log level to debug",
		Func: func(c *ishell.Context) {
			programLevel.Set(slog.LevelDebug)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "info",
		Help: "set log level to info",
		Func: func(c *ishell.Context) {
			programLevel.Set(slog.LevelInfo)
		},
	})

	shell.AddCmd(keyCmd())
	shell.AddCmd(s.lobbyCmd())
	shell.AddCmd(s.connectCmd())
	shell.AddCmd(s.disconnectCmd())
	shell.AddCmd(s.abortCmd())
	shell.AddCmd(s.stateCmd())

	shell.Run()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		slog.Error("could not stop cleanly", "err", err)
	}
}
