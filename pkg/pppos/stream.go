package pppos

import (
	"errors"
	"net"
	"os"
	"time"
)

// Stream is the duplex byte link a session runs over. The session borrows
// the stream; it never closes it.
type Stream interface {
	// ReadNonBlocking reads up to len(p) bytes without blocking the
	// caller beyond a short poll window. When no data is pending it
	// returns (0, nil); that is the normal idle case, not an error.
	ReadNonBlocking(p []byte) (int, error)

	// Write writes the whole buffer, blocking until the stream accepts
	// it. Back-pressure is the stream's own concern.
	Write(p []byte) (int, error)
}

// defaultPollTimeout is the read window for the deadline-based adapters.
// It must be in the future: a deadline that has already expired makes
// Read fail without delivering pending bytes.
const defaultPollTimeout = time.Millisecond

// NetStream adapts a net.Conn to the Stream interface. Reads use a short
// deadline so a quiet link shows up as (0, nil) rather than a blocked
// caller.
type NetStream struct {
	conn        net.Conn
	pollTimeout time.Duration
}

// NewNetStream wraps a net.Conn with the default 1ms read window. The
// caller keeps ownership of the connection and is responsible for
// closing it.
func NewNetStream(conn net.Conn) *NetStream {
	return &NetStream{conn: conn, pollTimeout: defaultPollTimeout}
}

// SetPollTimeout adjusts the read window used by ReadNonBlocking.
func (s *NetStream) SetPollTimeout(d time.Duration) {
	if d > 0 {
		s.pollTimeout = d
	}
}

func (s *NetStream) ReadNonBlocking(p []byte) (int, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.pollTimeout)); err != nil {
		return 0, err
	}

	n, err := s.conn.Read(p)
	if err != nil && isTimeout(err) {
		return n, nil
	}
	return n, err
}

func (s *NetStream) Write(p []byte) (int, error) {
	// Clear any lingering deadline so the write blocks as required.
	if err := s.conn.SetWriteDeadline(time.Time{}); err != nil {
		return 0, err
	}
	return s.conn.Write(p)
}

// FileStream adapts an *os.File (a serial device or pty) to the Stream
// interface using the same short-deadline idiom. The file must support
// deadlines; character devices opened with os.OpenFile do on Linux.
type FileStream struct {
	file        *os.File
	pollTimeout time.Duration
}

// NewFileStream wraps an open file. The caller keeps ownership.
func NewFileStream(file *os.File) *FileStream {
	return &FileStream{file: file, pollTimeout: defaultPollTimeout}
}

// SetPollTimeout adjusts the read window used by ReadNonBlocking.
func (s *FileStream) SetPollTimeout(d time.Duration) {
	if d > 0 {
		s.pollTimeout = d
	}
}

func (s *FileStream) ReadNonBlocking(p []byte) (int, error) {
	if err := s.file.SetReadDeadline(time.Now().Add(s.pollTimeout)); err != nil {
		return 0, err
	}

	n, err := s.file.Read(p)
	if err != nil && isTimeout(err) {
		return n, nil
	}
	return n, err
}

func (s *FileStream) Write(p []byte) (int, error) {
	if err := s.file.SetWriteDeadline(time.Time{}); err != nil {
		return 0, err
	}
	return s.file.Write(p)
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
