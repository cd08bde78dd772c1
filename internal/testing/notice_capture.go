package testing

import "sync"

// Notice is one server message received by a NoticeCapture.
type Notice struct {
	Severity string
	Message  string
}

// NoticeCapture collects PostgreSQL NOTICE messages delivered through a
// connector's notice handler. Thread-safe for concurrent use.
type NoticeCapture struct {
	notices []Notice
	mu      sync.Mutex
}

// NewNoticeCapture creates a new NoticeCapture instance.
func NewNoticeCapture() *NoticeCapture {
	return &NoticeCapture{}
}

// Handler returns a function suitable for db.WithNoticeHandler.
func (nc *NoticeCapture) Handler() func(severity, message string) {
	return func(severity, message string) {
		nc.mu.Lock()
		defer nc.mu.Unlock()
		nc.notices = append(nc.notices, Notice{Severity: severity, Message: message})
	}
}

// Notices returns a copy of all captured notices.
func (nc *NoticeCapture) Notices() []Notice {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	result := make([]Notice, len(nc.notices))
	copy(result, nc.notices)
	return result
}

// Messages returns just the message texts in order.
func (nc *NoticeCapture) Messages() []string {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	result := make([]string, len(nc.notices))
	for i, n := range nc.notices {
		result[i] = n.Message
	}
	return result
}

// Reset clears all captured notices.
func (nc *NoticeCapture) Reset() {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	nc.notices = nil
}

// Count returns the number of captured notices.
func (nc *NoticeCapture) Count() int {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return len(nc.notices)
}
