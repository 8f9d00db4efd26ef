package device

import "sync"

// MockDriver is an in-memory Driver for tests, grounded on the teacher's
// radar.MockRadarPort (radar/serial.go): no real I/O, scans are pushed
// synchronously via Push instead of a background goroutine reading a
// socket.
type MockDriver struct {
	mu        sync.Mutex
	started   bool
	params    Params
	cb        Callback
	StartOK   bool
	ModeOK    bool
	SkipOK    bool
	StopCalls int
}

// NewMockDriver returns a MockDriver whose Start/ApplyMode/ApplySkipStep
// all succeed by default.
func NewMockDriver() *MockDriver {
	return &MockDriver{StartOK: true, ModeOK: true, SkipOK: true}
}

func (m *MockDriver) Start(p Params) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params = p
	m.started = m.StartOK
	return m.StartOK
}

func (m *MockDriver) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = false
	m.StopCalls++
}

func (m *MockDriver) Subscribe(cb Callback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cb = cb
}

func (m *MockDriver) ApplyMode(mode Mode) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ModeOK {
		m.params.Mode = mode
	}
	return m.ModeOK
}

func (m *MockDriver) ApplySkipStep(n int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SkipOK {
		m.params.SkipStep = n
	}
	return m.SkipOK
}

// Push delivers a scan to the subscribed callback, as if the device had
// just completed it. No-op if the driver was never started or has no
// subscriber.
func (m *MockDriver) Push(scan RawScan) {
	m.mu.Lock()
	cb := m.cb
	started := m.started
	m.mu.Unlock()
	if started && cb != nil {
		cb(scan)
	}
}

// Started reports whether Start succeeded and Stop has not since been
// called.
func (m *MockDriver) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}
