package playback

import "sync"

// Clock is a simulated media element. It advances only when Advance is
// called, which makes it usable from a UI tick loop and from tests.
type Clock struct {
	mu       sync.Mutex
	sink     Sink
	duration float64
	position float64
	playing  bool
	volume   float64
	ended    bool
}

// NewClock returns a paused clock for media of the given length.
func NewClock(duration float64) *Clock {
	return &Clock{duration: duration, volume: 1}
}

// Bind connects the clock to its adapter and reports the duration the way a
// media element does once metadata has loaded.
func (c *Clock) Bind(sink Sink) {
	c.mu.Lock()
	c.sink = sink
	d := c.duration
	c.mu.Unlock()
	sink.LoadedMetadata(d)
}

func (c *Clock) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended {
		c.position = 0
		c.ended = false
	}
	c.playing = true
	return nil
}

func (c *Clock) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = false
	return nil
}

// SetCurrentTime clamps to [0, duration] like a browser media element.
func (c *Clock) SetCurrentTime(seconds float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = clamp(seconds, 0, c.duration)
	c.ended = false
	return nil
}

func (c *Clock) SetVolume(v float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = v
	return nil
}

// Position returns the element's own notion of the current time.
func (c *Clock) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// Advance moves the clock forward by dt seconds when playing and emits a
// time update, followed by Ended when the end is reached.
func (c *Clock) Advance(dt float64) {
	c.mu.Lock()
	if !c.playing || c.sink == nil {
		c.mu.Unlock()
		return
	}
	c.position += dt
	reachedEnd := c.position >= c.duration
	if reachedEnd {
		c.position = c.duration
		c.playing = false
		c.ended = true
	}
	sink, pos := c.sink, c.position
	c.mu.Unlock()

	sink.TimeUpdate(pos)
	if reachedEnd {
		sink.Ended()
	}
}
