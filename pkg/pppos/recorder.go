package pppos

import "time"

// Recorder receives session activity for metrics collection. The session
// calls it from hot paths, so implementations must be cheap and must not
// block.
type Recorder interface {
	BytesIn(n int)
	BytesOut(n int)
	LinkEvent(kind string)
	ConnectStarted()
	CloseFinished(d time.Duration, clean bool)
}

// nopRecorder is the default when no recorder is installed.
type nopRecorder struct{}

func (nopRecorder) BytesIn(int)                       {}
func (nopRecorder) BytesOut(int)                      {}
func (nopRecorder) LinkEvent(string)                  {}
func (nopRecorder) ConnectStarted()                   {}
func (nopRecorder) CloseFinished(time.Duration, bool) {}
