package connstate

import (
	"github.com/edup2p/lobbylink/types/connstatus"
	"github.com/edup2p/lobbylink/types/ifaces"
	"github.com/edup2p/lobbylink/types/roster"
)

// Reconnecting waits out the retry delay, then runs one more attempt with the method that connected
// before. Every failed try enters a fresh Reconnecting, so that leftovers from the previous try are stale.
type Reconnecting struct {
	*StateCommon

	method  ifaces.ConnectionMethod
	attempt int

	launched bool
	sub      *roster.Subscription
}

func (r *Reconnecting) Name() string {
	return "reconnecting"
}

func (r *Reconnecting) Kind() Kind {
	return KindReconnecting
}

func (r *Reconnecting) Enter() {
	r.resetSession()

	r.sub = r.cm.WatchRoster()
	r.cm.ScheduleRetry(r.attempt)
}

func (r *Reconnecting) Exit() {
	if r.sub != nil {
		r.sub.Unsubscribe()
	}
}

func (r *Reconnecting) OnConnect(method ifaces.ConnectionMethod) ConnState {
	L(r).Warn("reconnecting, ignoring connect request", "method", method.Name())
	return nil
}

func (r *Reconnecting) OnDisconnectRequest() ConnState {
	return r.finish(r, connstatus.UserRequestedDisconnect)
}

func (r *Reconnecting) OnRetryTimer(attempt int) ConnState {
	if attempt != r.attempt || r.launched {
		logIgnored(r, "retry-timer", "attempt", attempt)
		return nil
	}

	L(r).Info("retrying connection", "attempt", attempt, "method", r.method.Name())

	r.launched = true
	r.cm.LaunchAttempt(r.method)

	return nil
}

func (r *Reconnecting) OnClientConnected(peerID string) ConnState {
	if !r.isSelf(peerID) {
		logIgnored(r, "client-connected", "peer", peerID)
		return nil
	}

	if !r.launched {
		// leftover from the session that dropped
		logIgnored(r, "client-connected", "peer", peerID)
		return nil
	}

	if !r.pushHostKey() {
		L(r).Warn("reconnected without a known host key", "host", r.cm.Book().Host())
	}

	r.cm.Publish(connstatus.Success)

	return LogTransition(r, &Connected{StateCommon: r.StateCommon, method: r.method})
}

func (r *Reconnecting) OnClientDisconnect(peerID string) ConnState {
	if !r.isSelf(peerID) || !r.launched {
		logIgnored(r, "client-disconnect", "peer", peerID)
		return nil
	}

	return r.fail()
}

// fail ends this try, the reason it carries decides whether another try follows.
func (r *Reconnecting) fail() ConnState {
	status, ok := r.decodeReason(connstatus.Disconnected)
	if !ok {
		return nil
	}

	if status != connstatus.Disconnected {
		return r.finish(r, status)
	}

	return r.next()
}

func (r *Reconnecting) OnAttemptResult(id string, err error) ConnState {
	if err == nil {
		L(r).Debug("attempt started client, awaiting transport", "attempt", id)
		return nil
	}

	L(r).Info("retry failed", "attempt", id, "try", r.attempt, "err", err)

	return r.fail()
}

// next moves on to the following try, or gives up once the policy runs out.
func (r *Reconnecting) next() ConnState {
	if !r.cm.CanRetry(r.attempt + 1) {
		L(r).Info("giving up reconnecting", "tries", r.attempt)
		return r.finish(r, connstatus.Disconnected)
	}

	return LogTransition(r, &Reconnecting{StateCommon: r.StateCommon, method: r.method, attempt: r.attempt + 1})
}

func (r *Reconnecting) OnRosterChanged(changes []roster.Change) ConnState {
	r.applyRoster(changes)
	return nil
}
