package connstate

import (
	"github.com/edup2p/lobbylink/types/connstatus"
	"github.com/edup2p/lobbylink/types/ifaces"
	"github.com/edup2p/lobbylink/types/roster"
)

// Connecting runs one connection attempt, and tracks the roster while it runs.
//
// Whichever of an attempt failure or a local disconnect arrives first ends the state; the other then
// arrives at Offline or is stale, and does nothing.
type Connecting struct {
	*StateCommon

	method ifaces.ConnectionMethod
	sub    *roster.Subscription
}

// Configure sets the method the attempt will use, it must be called before Enter.
func (c *Connecting) Configure(method ifaces.ConnectionMethod) *Connecting {
	c.method = method
	return c
}

func (c *Connecting) Name() string {
	return "connecting"
}

func (c *Connecting) Kind() Kind {
	return KindConnecting
}

func (c *Connecting) Enter() {
	c.cm.LaunchAttempt(c.method)
	c.sub = c.cm.WatchRoster()
}

func (c *Connecting) Exit() {
	if c.sub != nil {
		c.sub.Unsubscribe()
	}
}

func (c *Connecting) OnConnect(method ifaces.ConnectionMethod) ConnState {
	L(c).Warn("already connecting, ignoring connect request", "method", method.Name())
	return nil
}

func (c *Connecting) OnDisconnectRequest() ConnState {
	return c.finish(c, connstatus.UserRequestedDisconnect)
}

func (c *Connecting) OnClientConnected(peerID string) ConnState {
	if !c.isSelf(peerID) {
		logIgnored(c, "client-connected", "peer", peerID)
		return nil
	}

	if !c.pushHostKey() {
		L(c).Warn("connected without a known host key", "host", c.cm.Book().Host())
	}

	c.cm.Publish(connstatus.Success)

	return LogTransition(c, &Connected{StateCommon: c.StateCommon, method: c.method})
}

func (c *Connecting) OnClientDisconnect(peerID string) ConnState {
	if !c.isSelf(peerID) {
		logIgnored(c, "client-disconnect", "peer", peerID)
		return nil
	}

	return c.fail()
}

func (c *Connecting) OnAttemptResult(id string, err error) ConnState {
	if err == nil {
		L(c).Debug("attempt started client, awaiting transport", "attempt", id)
		return nil
	}

	L(c).Info("attempt failed", "attempt", id, "err", err)

	return c.fail()
}

func (c *Connecting) fail() ConnState {
	status, ok := c.decodeReason(connstatus.StartClientFailed)
	if !ok {
		return nil
	}

	return c.finish(c, status)
}

func (c *Connecting) OnRosterChanged(changes []roster.Change) ConnState {
	c.applyRoster(changes)
	return nil
}

func (c *Connecting) OnRetryTimer(attempt int) ConnState {
	logIgnored(c, "retry-timer", "attempt", attempt)
	return nil
}
