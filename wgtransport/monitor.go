package wgtransport

import (
	"context"
	"errors"
	"time"

	"github.com/edup2p/lobbylink/types/connstatus"
	"github.com/edup2p/lobbylink/types/key"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// monitor polls the device for the host's handshake, it reports the client connected on the first one,
// and disconnected when none came in time, or when the last one went stale.
//
// Both disconnects leave the reason empty, so the generic status for the client's state applies.
func (t *Transport) monitor(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.opts.PollInterval)
	defer ticker.Stop()

	waitingSince := time.Now()

	// connectedTo is the host key a handshake was seen with, zero while waiting for one
	var connectedTo key.NodePublic

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		hostKey := t.HostKey()

		hs, err := t.lastHandshake(hostKey)
		if err != nil {
			t.L().Warn("could not read device peers", "err", err)
			continue
		}

		if !connectedTo.IsZero() && hostKey != connectedTo {
			t.L().Info("host changed, waiting for handshake", "from", connectedTo.Debug(), "to", hostKey.Debug())

			connectedTo = key.NodePublic{}
			waitingSince = time.Now()
		}

		if connectedTo.IsZero() {
			if !hostKey.IsZero() && !hs.IsZero() {
				connectedTo = hostKey
				t.fireConnected(ctx)
				continue
			}

			if time.Since(waitingSince) > t.opts.ConnectTimeout {
				t.L().Warn("no handshake with host", "host", hostKey.Debug(), "waited", time.Since(waitingSince))
				t.fireDisconnect(ctx)
				return
			}

			continue
		}

		if age := time.Since(hs); age > t.opts.StaleAfter {
			t.L().Warn("host handshake went stale", "host", hostKey.Debug(), "age", age)
			t.fireDisconnect(ctx)
			return
		}
	}
}

// lastHandshake returns the time of pub's last handshake, zero if there was none or pub is not on the device.
func (t *Transport) lastHandshake(pub key.NodePublic) (time.Time, error) {
	if pub.IsZero() {
		return time.Time{}, nil
	}

	peers, err := t.dev.Peers()
	if err != nil {
		return time.Time{}, err
	}

	for _, p := range peers {
		if p.PublicKey == wgtypes.Key(pub) {
			return p.LastHandshakeTime, nil
		}
	}

	return time.Time{}, nil
}

func (t *Transport) fireConnected(ctx context.Context) {
	t.mu.Lock()
	cb := t.callbacks
	t.mu.Unlock()

	if ctx.Err() != nil || cb == nil {
		return
	}

	cb.OnClientConnected(t.opts.SelfID)
}

func (t *Transport) fireDisconnect(ctx context.Context) {
	t.mu.Lock()
	cb := t.callbacks
	t.mu.Unlock()

	if ctx.Err() == nil && cb != nil {
		cb.OnClientDisconnect(t.opts.SelfID)
	}
}

// Abort ends the running session with status as the disconnect reason, as if the other end ended it.
func (t *Transport) Abort(status connstatus.Status) error {
	reason, err := connstatus.EncodeReason(status)
	if err != nil {
		return err
	}

	t.mu.Lock()
	can, done := t.monCan, t.monDone
	t.monCan, t.monDone = nil, nil
	started := t.started
	t.mu.Unlock()

	if !started {
		return errors.New("cannot abort, client not started")
	}

	if can != nil {
		can()
		<-done
	}

	t.mu.Lock()
	t.reason = reason
	cb := t.callbacks
	t.mu.Unlock()

	if cb != nil {
		cb.OnClientDisconnect(t.opts.SelfID)
	}

	return nil
}
