package connstate

import (
	"github.com/edup2p/lobbylink/types/connstatus"
	"github.com/edup2p/lobbylink/types/ifaces"
	"github.com/edup2p/lobbylink/types/roster"
)

// Connected is part of a session, and keeps the address book following the roster.
type Connected struct {
	*StateCommon

	// method is kept to reconnect with
	method ifaces.ConnectionMethod
	sub    *roster.Subscription
}

func (c *Connected) Name() string {
	return "connected"
}

func (c *Connected) Kind() Kind {
	return KindConnected
}

func (c *Connected) Enter() {
	c.sub = c.cm.WatchRoster()
}

func (c *Connected) Exit() {
	if c.sub != nil {
		c.sub.Unsubscribe()
	}
}

func (c *Connected) OnConnect(method ifaces.ConnectionMethod) ConnState {
	L(c).Warn("already connected, ignoring connect request", "method", method.Name())
	return nil
}

func (c *Connected) OnDisconnectRequest() ConnState {
	return c.finish(c, connstatus.UserRequestedDisconnect)
}

func (c *Connected) OnClientConnected(peerID string) ConnState {
	if c.isSelf(peerID) {
		logIgnored(c, "client-connected", "peer", peerID)
	} else {
		L(c).Debug("peer connected", "peer", peerID)
	}

	return nil
}

func (c *Connected) OnClientDisconnect(peerID string) ConnState {
	if !c.isSelf(peerID) {
		L(c).Debug("peer disconnected", "peer", peerID)
		return nil
	}

	status, ok := c.decodeReason(connstatus.Disconnected)
	if !ok {
		return nil
	}

	if status == connstatus.Disconnected && c.cm.CanRetry(1) {
		c.cm.Publish(connstatus.Reconnecting)

		return LogTransition(c, &Reconnecting{StateCommon: c.StateCommon, method: c.method, attempt: 1})
	}

	return c.finish(c, status)
}

func (c *Connected) OnAttemptResult(id string, err error) ConnState {
	logIgnored(c, "attempt-result", "attempt", id, "err", err)
	return nil
}

func (c *Connected) OnRosterChanged(changes []roster.Change) ConnState {
	c.applyRoster(changes)
	return nil
}

func (c *Connected) OnRetryTimer(attempt int) ConnState {
	logIgnored(c, "retry-timer", "attempt", attempt)
	return nil
}
