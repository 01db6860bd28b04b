package pppos

import "go.uber.org/zap"

// LinkEvent is a link-state change reported by the protocol engine.
type LinkEvent int

const (
	LinkUp           LinkEvent = iota // negotiation finished, link usable
	LinkUserClose                     // engine confirmed a requested close
	LinkLost                          // carrier lost after establishment
	EventParam                        // invalid parameter
	EventOpen                         // unable to open the session
	EventDevice                       // invalid I/O device
	EventAlloc                        // resource allocation failed
	EventAuthFail                     // authentication challenge failed
	EventProtocol                     // protocol violation
	EventPeerDead                     // peer stopped responding
	EventIdleTimeout                  // idle timeout expired
	EventConnectTime                  // max connect time reached
	EventLoopback                     // loopback detected
)

func (e LinkEvent) String() string {
	switch e {
	case LinkUp:
		return "Link-Up"
	case LinkUserClose:
		return "User-Close"
	case LinkLost:
		return "Link-Lost"
	case EventParam:
		return "Invalid-Parameter"
	case EventOpen:
		return "Open-Failed"
	case EventDevice:
		return "Invalid-Device"
	case EventAlloc:
		return "Alloc-Failed"
	case EventAuthFail:
		return "Auth-Failed"
	case EventProtocol:
		return "Protocol-Error"
	case EventPeerDead:
		return "Peer-Dead"
	case EventIdleTimeout:
		return "Idle-Timeout"
	case EventConnectTime:
		return "Connect-Time-Exceeded"
	case EventLoopback:
		return "Loopback"
	default:
		return "Unknown"
	}
}

// handleLinkEvent is the status hook handed to the engine. It may run
// concurrently with the caller's poll and command calls, so it only flips
// atomic scalars; accessors observe the result on the next read.
func (s *Session) handleLinkEvent(ev LinkEvent) {
	switch ev {
	case LinkUp:
		s.status.Store(statusConnected)
		s.connected.Store(s.nif.HasAddr())

		addr, netmask, gateway, dns := s.nif.IfConfig()
		s.logger.Info("Link up",
			zap.String("session_id", s.id),
			zap.String("addr", addr),
			zap.String("netmask", netmask),
			zap.String("gateway", gateway),
			zap.String("dns", dns),
		)
		s.rec().LinkEvent(ev.String())

		// Terminal for this attempt; nothing further queued.
		return

	case LinkUserClose:
		// The only event that terminates a close sequence.
		s.cleanClose.Store(true)
		s.logger.Info("Close acknowledged", zap.String("session_id", s.id))
		s.rec().LinkEvent(ev.String())
		return

	case LinkLost:
		s.connected.Store(false)
	}

	// Every non-terminal outcome lands here: record the failure and leave
	// the decision to reconnect with the caller. Automatic retry stays
	// disabled until there is a real backoff/chat-script mechanism.
	s.status.Store(statusError)
	s.logger.Warn("Link event",
		zap.String("session_id", s.id),
		zap.String("event", ev.String()),
	)
	s.rec().LinkEvent(ev.String())
}
