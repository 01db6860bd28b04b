// Package netif holds the network-interface record a PPP session is bound
// to. The protocol engine populates it asynchronously during negotiation;
// callers read it through the ifconfig/ipconfig accessors.
package netif

import (
	"fmt"
	"net"
	"sync"
)

// Interface is the configuration record for one PPP network interface.
// All fields are guarded; the engine writes them from its status path
// while callers query them at any time.
type Interface struct {
	name string

	addr    net.IP
	gateway net.IP
	netmask net.IP

	dns1 net.IP
	dns2 net.IP

	defaultRoute bool
	usePeerDNS   bool

	mu sync.RWMutex
}

// New creates an empty interface record with the given name.
func New(name string) *Interface {
	return &Interface{name: name}
}

// Name returns the interface name.
func (i *Interface) Name() string {
	return i.name
}

// SetAddrs records the negotiated local address, peer gateway and netmask.
func (i *Interface) SetAddrs(addr, gateway, netmask net.IP) {
	i.mu.Lock()
	i.addr = addr
	i.gateway = gateway
	i.netmask = netmask
	i.mu.Unlock()
}

// SetDNS records the peer-supplied DNS servers.
func (i *Interface) SetDNS(primary, secondary net.IP) {
	i.mu.Lock()
	i.dns1 = primary
	i.dns2 = secondary
	i.mu.Unlock()
}

// Addr returns the negotiated local address, or nil before negotiation.
func (i *Interface) Addr() net.IP {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.addr
}

// Gateway returns the peer address.
func (i *Interface) Gateway() net.IP {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.gateway
}

// Netmask returns the negotiated netmask.
func (i *Interface) Netmask() net.IP {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.netmask
}

// DNS returns the peer-supplied DNS servers.
func (i *Interface) DNS() (primary, secondary net.IP) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.dns1, i.dns2
}

// HasAddr reports whether a non-zero IPv4 address has been negotiated.
func (i *Interface) HasAddr() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.addr != nil && !i.addr.Equal(net.IPv4zero)
}

// SetDefaultRoute marks this interface as the default route.
func (i *Interface) SetDefaultRoute(enabled bool) {
	i.mu.Lock()
	i.defaultRoute = enabled
	i.mu.Unlock()
}

// IsDefaultRoute reports whether this interface is the default route.
func (i *Interface) IsDefaultRoute() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.defaultRoute
}

// SetUsePeerDNS controls whether peer-supplied DNS servers are accepted.
func (i *Interface) SetUsePeerDNS(enabled bool) {
	i.mu.Lock()
	i.usePeerDNS = enabled
	i.mu.Unlock()
}

// UsePeerDNS reports whether peer-supplied DNS servers are accepted.
func (i *Interface) UsePeerDNS() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.usePeerDNS
}

// IfConfig returns the classic 4-tuple: address, netmask, gateway, DNS.
// Unset fields are reported as 0.0.0.0.
func (i *Interface) IfConfig() (addr, netmask, gateway, dns string) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return ipString(i.addr), ipString(i.netmask), ipString(i.gateway), ipString(i.dns1)
}

// IPConfig queries a single named parameter. Supported parameters are
// "addr", "netmask", "gateway", "dns1" and "dns2".
func (i *Interface) IPConfig(param string) (string, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	switch param {
	case "addr":
		return ipString(i.addr), nil
	case "netmask":
		return ipString(i.netmask), nil
	case "gateway":
		return ipString(i.gateway), nil
	case "dns1":
		return ipString(i.dns1), nil
	case "dns2":
		return ipString(i.dns2), nil
	default:
		return "", fmt.Errorf("unknown config param: %s", param)
	}
}

// SetIPConfig assigns a single named parameter from its string form.
func (i *Interface) SetIPConfig(param, value string) error {
	ip := net.ParseIP(value)
	if ip == nil {
		return fmt.Errorf("invalid address %q for param %s", value, param)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	switch param {
	case "addr":
		i.addr = ip
	case "netmask":
		i.netmask = ip
	case "gateway":
		i.gateway = ip
	case "dns1":
		i.dns1 = ip
	case "dns2":
		i.dns2 = ip
	default:
		return fmt.Errorf("unknown config param: %s", param)
	}

	return nil
}

// Reset clears all negotiated values, keeping the name and flags.
func (i *Interface) Reset() {
	i.mu.Lock()
	i.addr = nil
	i.gateway = nil
	i.netmask = nil
	i.dns1 = nil
	i.dns2 = nil
	i.mu.Unlock()
}

func ipString(ip net.IP) string {
	if ip == nil {
		return "0.0.0.0"
	}
	return ip.String()
}
