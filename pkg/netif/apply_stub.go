//go:build !linux

package netif

import "fmt"

// StubApplier is a no-op implementation for non-Linux systems. It records
// applied configurations in memory for testing purposes.
type StubApplier struct {
	applied map[string]*Interface
}

// NewApplier returns a stub applier on non-Linux systems.
func NewApplier() (*StubApplier, error) {
	return &StubApplier{applied: make(map[string]*Interface)}, nil
}

// Close is a no-op on stub appliers.
func (a *StubApplier) Close() {}

// Apply records the configuration in memory.
func (a *StubApplier) Apply(nif *Interface, hostDevice string) error {
	if nif.Addr() == nil {
		return fmt.Errorf("interface %s has no negotiated address", nif.Name())
	}
	a.applied[hostDevice] = nif
	return nil
}

// Remove forgets a previously applied configuration.
func (a *StubApplier) Remove(nif *Interface, hostDevice string) error {
	delete(a.applied, hostDevice)
	return nil
}

// Applied returns the recorded configuration for a host device, if any.
func (a *StubApplier) Applied(hostDevice string) *Interface {
	return a.applied[hostDevice]
}
