package playback

import "sync"

// Command is an instruction sent to a remote media element.
type Command struct {
	Action string  `json:"action"` // "play", "pause", "seek", "volume"
	Value  float64 `json:"value"`
}

// RemoteElement forwards commands to a browser-side media element through a
// send function, typically a WebSocket writer. While no client is attached
// commands are dropped; Adapter.Sync replays the state on attach.
type RemoteElement struct {
	mu   sync.Mutex
	send func(Command) error
	gen  uint64
}

func NewRemoteElement() *RemoteElement {
	return &RemoteElement{}
}

// Attach routes commands to send, replacing any previous client. The
// returned func detaches this client only; it is a no-op once another client
// has attached.
func (r *RemoteElement) Attach(send func(Command) error) (detach func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.send = send
	gen := r.gen
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.gen == gen {
			r.send = nil
		}
	}
}

// Detach stops forwarding. Commands issued afterwards are dropped.
func (r *RemoteElement) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.send = nil
}

// Attached reports whether a client is connected.
func (r *RemoteElement) Attached() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.send != nil
}

func (r *RemoteElement) Play() error  { return r.dispatch(Command{Action: "play"}) }
func (r *RemoteElement) Pause() error { return r.dispatch(Command{Action: "pause"}) }

func (r *RemoteElement) SetCurrentTime(seconds float64) error {
	return r.dispatch(Command{Action: "seek", Value: seconds})
}

func (r *RemoteElement) SetVolume(v float64) error {
	return r.dispatch(Command{Action: "volume", Value: v})
}

func (r *RemoteElement) dispatch(cmd Command) error {
	r.mu.Lock()
	send := r.send
	r.mu.Unlock()
	if send == nil {
		return nil
	}
	return send(cmd)
}
