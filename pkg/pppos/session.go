package pppos

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codelaboratoryltd/pppos/pkg/netif"
)

// Session status values as reported by Status().
const (
	statusIdle      = 0  // never connected
	statusConnected = 1  // link came up
	statusError     = -1 // error observed, reconnect left to the caller
)

// Config holds session tuning knobs.
type Config struct {
	// InterfaceName names the bound network-interface record.
	InterfaceName string

	// ReadBufferSize is the transient read buffer for the input path.
	ReadBufferSize int

	// CloseTimeout bounds the graceful-close wait during deactivation.
	CloseTimeout time.Duration

	// ClosePollInterval is the delay between input polls while waiting
	// for the engine to confirm a close.
	ClosePollInterval time.Duration

	// ConnectHoldoff is passed to the engine's connect request.
	ConnectHoldoff time.Duration
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		InterfaceName:     "ppp0",
		ReadBufferSize:    256,
		CloseTimeout:      4000 * time.Millisecond,
		ClosePollInterval: 10 * time.Millisecond,
		ConnectHoldoff:    0,
	}
}

// Session runs one PPP link over a borrowed duplex byte stream.
//
// The engine instance and the interface record are exclusively owned by
// the session; the stream is borrowed and never closed. All transitions
// are caller-driven: negotiation progresses only while the caller keeps
// invoking Poll, and asynchronous outcomes surface through Status and
// IsConnected.
type Session struct {
	id        string
	config    Config
	logger    *zap.Logger
	recorder  atomic.Pointer[Recorder]
	stream    Stream
	newEngine EngineFactory
	nif       *netif.Interface
	readBuf   []byte

	// mu guards engine ownership and the active/connectActive flags.
	mu            sync.Mutex
	engine        Engine
	active        bool
	connectActive bool

	// Written by the status hook, read by accessors and the close wait.
	connected  atomic.Bool
	cleanClose atomic.Bool
	status     atomic.Int32
}

// NewSession creates an inactive session over the given stream. The
// factory is invoked on every activation to create a fresh engine bound
// to the session's hooks.
func NewSession(stream Stream, factory EngineFactory, config Config, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ReadBufferSize <= 0 {
		config.ReadBufferSize = DefaultConfig().ReadBufferSize
	}
	if config.CloseTimeout <= 0 {
		config.CloseTimeout = DefaultConfig().CloseTimeout
	}
	if config.ClosePollInterval <= 0 {
		config.ClosePollInterval = DefaultConfig().ClosePollInterval
	}
	if config.InterfaceName == "" {
		config.InterfaceName = DefaultConfig().InterfaceName
	}

	s := &Session{
		id:        uuid.New().String(),
		config:    config,
		logger:    logger,
		stream:    stream,
		newEngine: factory,
		nif:       netif.New(config.InterfaceName),
		readBuf:   make([]byte, config.ReadBufferSize),
	}
	s.SetRecorder(nopRecorder{})

	// Safety net only: if the session is dropped while active, release
	// the engine without the graceful-close wait.
	runtime.SetFinalizer(s, (*Session).free)

	return s
}

// SetRecorder installs a metrics recorder. It may be called at any time,
// including while the session is active; the new recorder takes effect on
// the next recorded event.
func (s *Session) SetRecorder(r Recorder) {
	if r != nil {
		s.recorder.Store(&r)
	}
}

// rec returns the current recorder for the hot paths.
func (s *Session) rec() Recorder {
	return *s.recorder.Load()
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Netif returns the network-interface record bound to this session.
func (s *Session) Netif() *netif.Interface {
	return s.nif
}

// SetActive activates or deactivates the session and returns the
// resulting active state. Both directions are idempotent.
//
// Activation creates a fresh engine instance bound to the stream bridge
// and the status hook. Deactivation of a session with a connect in
// progress issues a graceful close and poll-waits, up to CloseTimeout,
// for the engine to confirm it, driving the input path so the close
// handshake's final frames can be exchanged; the engine is then released
// unconditionally. A non-responsive peer never prevents resource release.
func (s *Session) SetActive(enable bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if enable {
		if s.active {
			return true, nil
		}

		s.cleanClose.Store(false)

		engine, err := s.newEngine(s.nif, s.writeOutput, s.handleLinkEvent)
		if err != nil {
			return false, fmt.Errorf("create engine: %w", err)
		}

		s.engine = engine
		s.active = true
		s.logger.Info("Session activated",
			zap.String("session_id", s.id),
			zap.String("interface", s.nif.Name()),
		)
		return true, nil
	}

	if !s.active {
		return false, nil
	}

	if s.connectActive {
		s.closeWait()
	}

	s.engine.Free()
	s.engine = nil
	s.active = false
	s.connectActive = false
	s.connected.Store(false)
	s.cleanClose.Store(false)

	s.logger.Info("Session deactivated", zap.String("session_id", s.id))
	return false, nil
}

// closeWait issues a graceful close and polls the input path until the
// engine confirms the close or CloseTimeout elapses. Caller holds mu.
func (s *Session) closeWait() {
	start := time.Now()
	s.engine.Close(false)

	deadline := start.Add(s.config.CloseTimeout)
	for !s.cleanClose.Load() && time.Now().Before(deadline) {
		s.pumpInput(s.engine)
		time.Sleep(s.config.ClosePollInterval)
	}

	clean := s.cleanClose.Load()
	elapsed := time.Since(start)
	s.rec().CloseFinished(elapsed, clean)

	if clean {
		s.logger.Info("Link closed cleanly",
			zap.String("session_id", s.id),
			zap.Duration("elapsed", elapsed),
		)
	} else {
		s.logger.Warn("Close not acknowledged within timeout, releasing anyway",
			zap.String("session_id", s.id),
			zap.Duration("timeout", s.config.CloseTimeout),
		)
	}
}

// Connect begins link negotiation with the given authentication mode.
// It returns as soon as the engine accepts the request; negotiation
// itself proceeds asynchronously and is observed via Status and
// IsConnected while the caller keeps polling.
func (s *Session) Connect(mode AuthMode, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return ErrNotActive
	}
	if s.connectActive {
		return ErrConnectInProgress
	}
	if !mode.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidAuthMode, mode)
	}
	if mode != AuthNone && (username == "" || password == "") {
		return fmt.Errorf("%w for auth mode %s", ErrMissingCredentials, mode)
	}

	if mode != AuthNone {
		s.engine.SetAuth(mode, username, password)
	}

	s.nif.SetDefaultRoute(true)
	s.nif.SetUsePeerDNS(true)

	if err := s.engine.Connect(s.config.ConnectHoldoff); err != nil {
		return fmt.Errorf("connect request: %w", err)
	}

	s.connectActive = true
	s.rec().ConnectStarted()
	s.logger.Info("Connect requested",
		zap.String("session_id", s.id),
		zap.String("auth_mode", mode.String()),
		zap.String("username", username),
	)
	return nil
}

// Poll performs one non-blocking read from the stream and feeds whatever
// arrived into the engine. It returns the number of bytes consumed, 0
// when the link is idle or the session is inactive. The caller owns the
// loop and may interleave Poll with other work.
func (s *Session) Poll() int {
	s.mu.Lock()
	engine := s.engine
	s.mu.Unlock()

	if engine == nil {
		return 0
	}
	return s.pumpInput(engine)
}

// Active reports whether the session owns an engine instance.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Status returns the last observed link outcome: 0 never connected,
// 1 connected successfully, -1 error observed (reconnect pending, left
// to the caller).
func (s *Session) Status() int {
	return int(s.status.Load())
}

// IsConnected reports whether the link has a valid negotiated address.
func (s *Session) IsConnected() bool {
	return s.connected.Load()
}

// IfConfig delegates to the interface record's 4-tuple accessor.
func (s *Session) IfConfig() (addr, netmask, gateway, dns string) {
	return s.nif.IfConfig()
}

// IPConfig delegates a single-parameter query to the interface record.
func (s *Session) IPConfig(param string) (string, error) {
	return s.nif.IPConfig(param)
}

// SetIPConfig delegates a single-parameter assignment to the interface
// record.
func (s *Session) SetIPConfig(param, value string) error {
	return s.nif.SetIPConfig(param, value)
}

// free releases the engine without the graceful-close sequence. It backs
// the finalizer and must never block.
func (s *Session) free() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine != nil {
		s.engine.Free()
		s.engine = nil
		s.active = false
		s.connectActive = false
	}
}
