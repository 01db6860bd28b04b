// Package pppos runs a PPP link over an arbitrary duplex byte stream and
// exposes it as a single managed network interface. The PPP protocol
// engine itself (framing, LCP/IPCP negotiation, authentication exchanges)
// is an external collaborator consumed behind the Engine interface; this
// package owns the session lifecycle, the stream bridge and the
// asynchronous status handling.
package pppos

import (
	"time"

	"github.com/codelaboratoryltd/pppos/pkg/netif"
)

// AuthMode selects the PPP authentication protocol for a connect attempt.
type AuthMode int

const (
	AuthNone AuthMode = iota
	AuthPAP
	AuthCHAP
)

func (m AuthMode) String() string {
	switch m {
	case AuthNone:
		return "None"
	case AuthPAP:
		return "PAP"
	case AuthCHAP:
		return "CHAP"
	default:
		return "Unknown"
	}
}

// valid reports whether the mode is one of the supported values.
func (m AuthMode) valid() bool {
	switch m {
	case AuthNone, AuthPAP, AuthCHAP:
		return true
	default:
		return false
	}
}

// OutputFunc is the engine-to-stream hook. The engine calls it with a
// complete outgoing frame and it returns the number of bytes written.
// It is synchronous with respect to the engine's frame-send path.
type OutputFunc func(p []byte) int

// StatusFunc is the engine-to-session hook. The engine calls it on every
// link-state change. Implementations must not block.
type StatusFunc func(ev LinkEvent)

// Engine is the PPP protocol engine consumed by a Session. Frame parsing,
// option negotiation and authentication encoding all live behind it.
type Engine interface {
	// FeedInput hands received bytes to the engine's decoder. The engine
	// may invoke the output and status hooks from within this call.
	FeedInput(p []byte)

	// SetAuth registers credentials to offer during negotiation.
	SetAuth(mode AuthMode, username, password string)

	// Connect asks the engine to begin negotiation after the given
	// holdoff. Negotiation proceeds asynchronously via the status hook.
	Connect(holdoff time.Duration) error

	// Close asks the engine to shut the link down. When the shutdown
	// completes the engine reports LinkUserClose through the status hook.
	Close(immediate bool)

	// Free releases the engine instance. No hooks are invoked afterwards.
	Free()
}

// EngineFactory creates an engine instance bound to an interface record
// and the session's output and status hooks.
type EngineFactory func(nif *netif.Interface, out OutputFunc, status StatusFunc) (Engine, error)
