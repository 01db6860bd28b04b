//go:build linux

package netif

import (
	"fmt"
	"net"
	"syscall"

	"github.com/vishvananda/netlink"
)

// NetlinkApplier pushes a negotiated interface configuration onto a real
// host interface using Linux netlink.
type NetlinkApplier struct {
	handle *netlink.Handle
}

// NewApplier creates a Linux netlink applier.
func NewApplier() (*NetlinkApplier, error) {
	handle, err := netlink.NewHandle(syscall.NETLINK_ROUTE)
	if err != nil {
		return nil, fmt.Errorf("create netlink handle: %w", err)
	}

	return &NetlinkApplier{handle: handle}, nil
}

// Close releases the netlink handle.
func (a *NetlinkApplier) Close() {
	if a.handle != nil {
		a.handle.Close()
	}
}

// Apply assigns the negotiated address to the named host interface and,
// if the record is marked as default route, installs a default route via
// the peer.
func (a *NetlinkApplier) Apply(nif *Interface, hostDevice string) error {
	link, err := a.handle.LinkByName(hostDevice)
	if err != nil {
		return fmt.Errorf("lookup link %s: %w", hostDevice, err)
	}

	addr := nif.Addr()
	if addr == nil {
		return fmt.Errorf("interface %s has no negotiated address", nif.Name())
	}

	mask := net.IPv4Mask(255, 255, 255, 255)
	if nm := nif.Netmask(); nm != nil {
		mask = net.IPMask(nm.To4())
	}

	nlAddr := &netlink.Addr{
		IPNet: &net.IPNet{IP: addr, Mask: mask},
		Peer:  peerNet(nif.Gateway()),
	}
	if err := a.handle.AddrReplace(link, nlAddr); err != nil {
		return fmt.Errorf("assign address %s: %w", addr, err)
	}

	if err := a.handle.LinkSetUp(link); err != nil {
		return fmt.Errorf("bring up link %s: %w", hostDevice, err)
	}

	if nif.IsDefaultRoute() && nif.Gateway() != nil {
		route := &netlink.Route{
			LinkIndex: link.Attrs().Index,
			Gw:        nif.Gateway(),
			Scope:     netlink.SCOPE_UNIVERSE,
		}
		if err := a.handle.RouteReplace(route); err != nil {
			return fmt.Errorf("install default route via %s: %w", nif.Gateway(), err)
		}
	}

	return nil
}

// Remove deletes the assigned address from the host interface.
func (a *NetlinkApplier) Remove(nif *Interface, hostDevice string) error {
	link, err := a.handle.LinkByName(hostDevice)
	if err != nil {
		return fmt.Errorf("lookup link %s: %w", hostDevice, err)
	}

	addr := nif.Addr()
	if addr == nil {
		return nil
	}

	nlAddr := &netlink.Addr{
		IPNet: &net.IPNet{IP: addr, Mask: net.IPv4Mask(255, 255, 255, 255)},
	}
	if err := a.handle.AddrDel(link, nlAddr); err != nil {
		return fmt.Errorf("remove address %s: %w", addr, err)
	}

	return nil
}

func peerNet(gw net.IP) *net.IPNet {
	if gw == nil {
		return nil
	}
	return &net.IPNet{IP: gw, Mask: net.IPv4Mask(255, 255, 255, 255)}
}
