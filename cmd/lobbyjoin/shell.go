package main

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os"

	"github.com/abiosoft/ishell/v2"
	"github.com/edup2p/lobbylink/connman"
	"github.com/edup2p/lobbylink/types/addrbook"
	"github.com/edup2p/lobbylink/types/connstatus"
	"github.com/edup2p/lobbylink/types/key"
	"github.com/edup2p/lobbylink/types/roster"
	"github.com/edup2p/lobbylink/wgtransport"
)

// session holds what the shell commands act on.
type session struct {
	m     *connman.Manager
	tr    *wgtransport.Transport
	lobby *roster.Lobby
	local roster.User
	feed  *connman.ChanPublisher
}

func (s *session) printStatuses(shell *ishell.Shell) {
	for {
		select {
		case st := <-s.feed.Statuses():
			shell.Println(describeStatus(st))
		case err := <-s.m.AttemptErrors():
			shell.Println("attempt error:", err)
		case <-s.m.Done():
			if err := s.m.Err(); err != nil && !errors.Is(err, context.Canceled) {
				shell.Println("connection manager stopped:", err)
			}
			return
		}
	}
}

// Key commands
func keyCmd() *ishell.Cmd {
	c := &ishell.Cmd{
		Name: "key",
		Help: "key generating and reading",
	}

	c.AddCmd(&ishell.Cmd{
		Name: "gen",
		Help: "generate a new key, pass it with -key to use it",
		Func: func(c *ishell.Context) {
			k := key.NewNode()

			c.Println("key generated:", k.Marshal())
			c.Println("pub:", k.Public().Marshal())
		},
	})

	c.AddCmd(&ishell.Cmd{
		Name: "pub",
		Help: "show the pubkey of a private key",
		Func: func(c *ishell.Context) {
			var line string
			if len(c.Args) == 0 {
				c.Println("enter the key, with 'privkey:' prefix")
				line = c.ReadLine()
			} else {
				line = c.Args[0]
			}

			priv, err := key.UnmarshalPrivate(line)
			if err != nil {
				c.Err(err)
				return
			}

			c.Println("pub:", priv.Public().Marshal())
		},
	})

	return c
}

// Lobby commands
func (s *session) lobbyCmd() *ishell.Cmd {
	c := &ishell.Cmd{
		Name: "lobby",
		Help: "local lobby roster",
		Func: func(c *ishell.Context) {
			s.showLobby(c)
		},
	}

	c.AddCmd(&ishell.Cmd{
		Name: "show",
		Help: "show the roster",
		Func: func(c *ishell.Context) {
			s.showLobby(c)
		},
	})

	c.AddCmd(&ishell.Cmd{
		Name: "add",
		Help: "add or update a member: <id> <name> [<nodekey:...> <ip:port>]",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 && len(c.Args) != 4 {
				c.Err(errors.New("usage: lobby add <id> <name> [<nodekey:...> <ip:port>]"))
				return
			}

			var entry *addrbook.Entry

			if len(c.Args) == 4 {
				pub, err := key.UnmarshalPublic(c.Args[2])
				if err != nil {
					c.Err(err)
					return
				}

				ap, err := netip.ParseAddrPort(c.Args[3])
				if err != nil {
					c.Err(err)
					return
				}

				e := addrbook.MakeEntry(*pub, ap)
				entry = &e
			}

			isHost := false
			if existing, ok := s.lobby.Snapshot()[c.Args[0]]; ok {
				isHost = existing.IsHost
			}

			if !s.lobby.Upsert(roster.MakeUser(c.Args[0], c.Args[1], isHost, entry)) {
				c.Println("unchanged")
			}
		},
	})

	c.AddCmd(&ishell.Cmd{
		Name: "rm",
		Help: "remove a member: <id>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errors.New("usage: lobby rm <id>"))
				return
			}

			if !s.lobby.Remove(c.Args[0]) {
				c.Err(fmt.Errorf("no member %q", c.Args[0]))
			}
		},
	})

	c.AddCmd(&ishell.Cmd{
		Name: "host",
		Help: "make a member the host: <id>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errors.New("usage: lobby host <id>"))
				return
			}

			if _, ok := s.lobby.Snapshot()[c.Args[0]]; !ok {
				c.Err(fmt.Errorf("no member %q", c.Args[0]))
				return
			}

			s.lobby.SetHost(c.Args[0])
		},
	})

	c.AddCmd(&ishell.Cmd{
		Name: "reset",
		Help: "clear the host flag of every member",
		Func: func(c *ishell.Context) {
			s.lobby.ResetState()
		},
	})

	c.AddCmd(&ishell.Cmd{
		Name: "save",
		Help: "save the roster to a file: <path>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errors.New("usage: lobby save <path>"))
				return
			}

			b, err := roster.EncodeBSON(s.lobby.Snapshot())
			if err != nil {
				c.Err(err)
				return
			}

			if err := os.WriteFile(c.Args[0], b, 0o600); err != nil {
				c.Err(err)
			}
		},
	})

	c.AddCmd(&ishell.Cmd{
		Name: "load",
		Help: "replace the roster with one from a file: <path>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errors.New("usage: lobby load <path>"))
				return
			}

			b, err := os.ReadFile(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}

			snap, err := roster.DecodeBSON(b)
			if err != nil {
				c.Err(err)
				return
			}

			s.lobby.Apply(snap)
		},
	})

	return c
}

func (s *session) showLobby(c *ishell.Context) {
	snap := s.lobby.Snapshot()

	if len(snap) == 0 {
		c.Println("lobby: empty")
		return
	}

	for _, id := range snap.IDs() {
		c.Println(snap[id])
	}
}

// Connection commands
func (s *session) connectCmd() *ishell.Cmd {
	c := &ishell.Cmd{
		Name: "connect",
		Help: "connect to a session",
	}

	c.AddCmd(&ishell.Cmd{
		Name: "direct",
		Help: "connect straight to a host: <host:port> <nodekey:...>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(errors.New("usage: connect direct <host:port> <nodekey:...>"))
				return
			}

			pub, err := key.UnmarshalPublic(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}

			s.m.Connect(&connman.DirectMethod{
				Transport: s.tr,
				Host:      c.Args[0],
				HostKey:   *pub,
			})
		},
	})

	c.AddCmd(&ishell.Cmd{
		Name: "lobby",
		Help: "connect to the lobby's host, publishing the local user to the lobby",
		Func: func(c *ishell.Context) {
			s.m.Connect(&connman.LobbyMethod{
				Lobby: s.lobby,
				Local: s.local,
			})
		},
	})

	return c
}

func (s *session) disconnectCmd() *ishell.Cmd {
	return &ishell.Cmd{
		Name: "disconnect",
		Help: "leave the session",
		Func: func(c *ishell.Context) {
			s.m.Disconnect()
		},
	}
}

func (s *session) abortCmd() *ishell.Cmd {
	return &ishell.Cmd{
		Name: "abort",
		Help: "end the session as if the other end did: <status>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errors.New("usage: abort <status>"))
				return
			}

			var status connstatus.Status
			if err := status.UnmarshalText([]byte(c.Args[0])); err != nil {
				c.Err(err)
				return
			}

			if err := s.tr.Abort(status); err != nil {
				c.Err(err)
			}
		},
	}
}

func (s *session) stateCmd() *ishell.Cmd {
	return &ishell.Cmd{
		Name: "state",
		Help: "show the connection state and address book, or whether [addr] is a known peer address",
		Func: func(c *ishell.Context) {
			book := s.m.Book()

			if len(c.Args) == 1 {
				addr, err := netip.ParseAddr(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(addr, "known:", book.Contains(addr))
				return
			}

			c.Println("state:", s.m.CurrentState())

			if err := s.m.Err(); err != nil {
				c.Println("stopped:", err)
			}

			c.Println("host:", book.Host())

			for _, peer := range book.Peers() {
				e, _ := book.Get(peer)
				c.Println(" ", peer, e)
			}

			if hk := s.tr.HostKey(); !hk.IsZero() {
				c.Println("transport host key:", hk.Debug())
			}
		},
	}
}
