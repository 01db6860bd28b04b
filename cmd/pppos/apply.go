package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/codelaboratoryltd/pppos/pkg/netif"
)

// linkApplier pushes a negotiated interface configuration onto a host
// interface. Satisfied by netif.NewApplier on every platform.
type linkApplier interface {
	Apply(nif *netif.Interface, hostDevice string) error
	Remove(nif *netif.Interface, hostDevice string) error
	Close()
}

func newLinkApplier() (linkApplier, error) {
	applier, err := netif.NewApplier()
	if err != nil {
		return nil, fmt.Errorf("create interface applier: %w", err)
	}
	return applier, nil
}

// applyTracker mirrors the session's connected flag onto a host interface:
// the negotiated configuration is applied when the link comes up and
// removed when it goes down or the session is torn down.
type applyTracker struct {
	applier linkApplier
	device  string
	logger  *zap.Logger
	applied bool
}

func (t *applyTracker) onTransition(nif *netif.Interface, connected bool) {
	if t == nil {
		return
	}

	if connected && !t.applied {
		if err := t.applier.Apply(nif, t.device); err != nil {
			t.logger.Error("Failed to apply interface config",
				zap.String("device", t.device),
				zap.Error(err),
			)
			return
		}
		t.applied = true
		t.logger.Info("Applied interface config",
			zap.String("device", t.device),
			zap.String("addr", nif.Addr().String()),
		)
		return
	}

	if !connected && t.applied {
		if err := t.applier.Remove(nif, t.device); err != nil {
			t.logger.Warn("Failed to remove interface config",
				zap.String("device", t.device),
				zap.Error(err),
			)
		}
		t.applied = false
	}
}
