package exporters

import (
	"sync"

	"github.com/alonana/harmetrics/har"
)

// MemorySink keeps every processed log, for tests and the harctl dry run.
type MemorySink struct {
	mutex sync.Mutex
	hars  []har.Har
	raw   [][]byte
}

func (m *MemorySink) Process(harData *har.Har, data []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.hars = append(m.hars, *harData)
	m.raw = append(m.raw, data)
	return nil
}

func (m *MemorySink) Hars() []har.Har {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]har.Har(nil), m.hars...)
}

func (m *MemorySink) Raw() [][]byte {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([][]byte(nil), m.raw...)
}
