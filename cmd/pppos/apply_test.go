package main

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/codelaboratoryltd/pppos/pkg/netif"
)

type fakeApplier struct {
	applyCalls  int
	removeCalls int
	applyErr    error
	lastDevice  string
}

func (f *fakeApplier) Apply(nif *netif.Interface, hostDevice string) error {
	f.applyCalls++
	f.lastDevice = hostDevice
	return f.applyErr
}

func (f *fakeApplier) Remove(nif *netif.Interface, hostDevice string) error {
	f.removeCalls++
	return nil
}

func (f *fakeApplier) Close() {}

func connectedNetif() *netif.Interface {
	nif := netif.New("ppp0")
	nif.SetAddrs(net.ParseIP("10.0.0.2"), net.ParseIP("10.0.0.1"), net.ParseIP("255.255.255.255"))
	return nif
}

func TestApplyTrackerAppliesOnLinkUp(t *testing.T) {
	applier := &fakeApplier{}
	tracker := &applyTracker{applier: applier, device: "eth0", logger: zap.NewNop()}
	nif := connectedNetif()

	tracker.onTransition(nif, true)
	assert.Equal(t, 1, applier.applyCalls)
	assert.Equal(t, "eth0", applier.lastDevice)

	// Repeated up transitions do not re-apply.
	tracker.onTransition(nif, true)
	assert.Equal(t, 1, applier.applyCalls)
}

func TestApplyTrackerRemovesOnLinkDown(t *testing.T) {
	applier := &fakeApplier{}
	tracker := &applyTracker{applier: applier, device: "eth0", logger: zap.NewNop()}
	nif := connectedNetif()

	tracker.onTransition(nif, true)
	tracker.onTransition(nif, false)
	assert.Equal(t, 1, applier.removeCalls)

	// Teardown calls the tracker again; nothing left to remove.
	tracker.onTransition(nif, false)
	assert.Equal(t, 1, applier.removeCalls)
}

func TestApplyTrackerRetriesAfterApplyFailure(t *testing.T) {
	applier := &fakeApplier{applyErr: errors.New("no such device")}
	tracker := &applyTracker{applier: applier, device: "eth0", logger: zap.NewNop()}
	nif := connectedNetif()

	tracker.onTransition(nif, true)
	assert.Equal(t, 1, applier.applyCalls)

	// The failed attempt leaves nothing to remove on link down.
	tracker.onTransition(nif, false)
	assert.Zero(t, applier.removeCalls)

	// A later link up tries again.
	applier.applyErr = nil
	tracker.onTransition(nif, true)
	assert.Equal(t, 2, applier.applyCalls)
}

func TestApplyTrackerNilIsNoOp(t *testing.T) {
	var tracker *applyTracker

	assert.NotPanics(t, func() {
		tracker.onTransition(connectedNetif(), true)
		tracker.onTransition(connectedNetif(), false)
	})
}
