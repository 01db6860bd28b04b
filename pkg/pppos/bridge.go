package pppos

import "go.uber.org/zap"

// This file is the bridge between the borrowed stream and the protocol
// engine: pumpInput moves received bytes into the engine's decoder, and
// writeOutput is the hook the engine calls with outgoing frames.

// pumpInput performs one non-blocking read and feeds whatever arrived to
// the engine. It returns the number of bytes consumed; 0 means the link
// was idle. The engine may invoke writeOutput and handleLinkEvent from
// within FeedInput, so negotiation progresses entirely inside this call.
func (s *Session) pumpInput(engine Engine) int {
	n, err := s.stream.ReadNonBlocking(s.readBuf)
	if err != nil {
		s.logger.Warn("Stream read failed",
			zap.String("session_id", s.id),
			zap.Error(err),
		)
		return 0
	}
	if n == 0 {
		return 0
	}

	s.rec().BytesIn(n)
	engine.FeedInput(s.readBuf[:n])
	return n
}

// writeOutput is the engine's output hook. The write blocks until the
// stream accepts the frame; a stalled stream stalls the engine's send
// path, which is the intended back-pressure.
func (s *Session) writeOutput(p []byte) int {
	n, err := s.stream.Write(p)
	if err != nil {
		s.logger.Warn("Stream write failed",
			zap.String("session_id", s.id),
			zap.Int("len", len(p)),
			zap.Error(err),
		)
		return n
	}

	s.rec().BytesOut(n)
	return n
}
