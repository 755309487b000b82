package audio

import "sync"

const fakeChunkBytes = 2048

// FakeContext feeds canned PCM through the normal capture interface.
type FakeContext struct {
	pcm []byte

	mu       sync.Mutex
	captures []*FakeCapture
}

func NewFakeContext(pcm []byte) *FakeContext {
	return &FakeContext{pcm: pcm}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake0", Name: "Fake Microphone"}}, nil
}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &FakeCapture{pcm: f.pcm}
	f.captures = append(f.captures, c)
	return c, nil
}

func (f *FakeContext) Close() {}

// Captures returns every capture device handed out so far.
func (f *FakeContext) Captures() []*FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeCapture(nil), f.captures...)
}

// FakeCapture delivers the canned PCM to the callback synchronously on
// Start, in device-sized chunks.
type FakeCapture struct {
	pcm []byte

	mu      sync.Mutex
	cb      DataCallback
	started bool
	stopped bool
	closed  bool
}

func (c *FakeCapture) Start() error {
	c.mu.Lock()
	cb := c.cb
	c.started = true
	c.mu.Unlock()

	if cb == nil {
		return nil
	}
	for pos := 0; pos < len(c.pcm); pos += fakeChunkBytes {
		end := min(pos+fakeChunkBytes, len(c.pcm))
		chunk := make([]byte, end-pos)
		copy(chunk, c.pcm[pos:end])
		cb(chunk, uint32(len(chunk)/2))
	}
	return nil
}

func (c *FakeCapture) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
}

func (c *FakeCapture) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *FakeCapture) SetCallback(cb DataCallback) {
	c.mu.Lock()
	c.cb = cb
	c.mu.Unlock()
}

func (c *FakeCapture) ClearCallback() {
	c.mu.Lock()
	c.cb = nil
	c.mu.Unlock()
}

func (c *FakeCapture) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

func (c *FakeCapture) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}
