package connman

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"github.com/edup2p/lobbylink/types/addrbook"
	"github.com/edup2p/lobbylink/types/key"
	"github.com/edup2p/lobbylink/types/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectMethod(t *testing.T) {
	tr := newMockTransport(&recorder{})
	pub := key.NewNode().Public()

	dm := &DirectMethod{Transport: tr, Host: "192.168.1.10:7777", HostKey: pub}
	require.NoError(t, dm.SetupClientConnection(context.Background()))

	assert.Equal(t, []addrbook.Entry{
		addrbook.MakeEntry(pub, netip.MustParseAddrPort("192.168.1.10:7777")),
	}, tr.Registered())
	assert.Equal(t, pub, tr.HostKey())
}

func TestDirectMethodRejects(t *testing.T) {
	tr := newMockTransport(&recorder{})

	assert.Error(t, (&DirectMethod{Transport: tr, Host: "10.0.0.1:1"}).SetupClientConnection(context.Background()),
		"accepted a zero host key")

	pub := key.NewNode().Public()
	assert.Error(t, (&DirectMethod{Transport: tr, Host: "10.0.0.1", HostKey: pub}).SetupClientConnection(context.Background()),
		"accepted a host without port")
	assert.Error(t, (&DirectMethod{Transport: tr, Host: "10.0.0.1:99999", HostKey: pub}).SetupClientConnection(context.Background()),
		"accepted an out of range port")

	assert.Empty(t, tr.Registered())
}

func TestLobbyMethod(t *testing.T) {
	lobby := &MockLobby{}
	e := addrbook.MakeEntry(key.NewNode().Public(), netip.MustParseAddrPort("10.0.0.5:5000"))

	lm := &LobbyMethod{Lobby: lobby, Local: roster.MakeUser("me", "Me", false, &e)}
	require.NoError(t, lm.SetupClientConnection(context.Background()))

	u, err := roster.UserFromPlayerData("me", lobby.data["me"])
	require.NoError(t, err)

	got, ok := u.AddressBookEntry()
	assert.True(t, ok)
	assert.Equal(t, e, got)
	assert.Equal(t, "Me", u.DisplayName)
}

func TestLobbyMethodFailures(t *testing.T) {
	lm := &LobbyMethod{Lobby: &MockLobby{}, Local: roster.MakeUser("me", "Me", false, nil)}
	assert.Error(t, lm.SetupClientConnection(context.Background()), "accepted a user without entry")

	cause := errors.New("lobby gone")
	e := addrbook.MakeEntry(key.NewNode().Public(), netip.MustParseAddrPort("10.0.0.5:5000"))
	lm = &LobbyMethod{Lobby: &MockLobby{err: cause}, Local: roster.MakeUser("me", "Me", false, &e)}
	assert.ErrorIs(t, lm.SetupClientConnection(context.Background()), cause)
}
