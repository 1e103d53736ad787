package connstate

import (
	"github.com/edup2p/lobbylink/types/ifaces"
	"github.com/edup2p/lobbylink/types/roster"
)

// Offline is not part of any session, and waits for a connect request.
type Offline struct {
	*StateCommon
}

func (o *Offline) Name() string {
	return "offline"
}

func (o *Offline) Kind() Kind {
	return KindOffline
}

func (o *Offline) Enter() {
	o.resetSession()
}

func (o *Offline) Exit() {}

func (o *Offline) OnConnect(method ifaces.ConnectionMethod) ConnState {
	return LogTransition(o, (&Connecting{StateCommon: o.StateCommon}).Configure(method))
}

func (o *Offline) OnDisconnectRequest() ConnState {
	logIgnored(o, "disconnect-request")
	return nil
}

func (o *Offline) OnClientConnected(peerID string) ConnState {
	logIgnored(o, "client-connected", "peer", peerID)
	return nil
}

func (o *Offline) OnClientDisconnect(peerID string) ConnState {
	logIgnored(o, "client-disconnect", "peer", peerID)
	return nil
}

func (o *Offline) OnAttemptResult(id string, err error) ConnState {
	logIgnored(o, "attempt-result", "attempt", id, "err", err)
	return nil
}

func (o *Offline) OnRosterChanged(changes []roster.Change) ConnState {
	logIgnored(o, "roster-changed", "changes", len(changes))
	return nil
}

func (o *Offline) OnRetryTimer(attempt int) ConnState {
	logIgnored(o, "retry-timer", "attempt", attempt)
	return nil
}
