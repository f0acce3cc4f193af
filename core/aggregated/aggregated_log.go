package aggregated

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alonana/harmetrics/core"
)

// Reporter counts identical warnings and prints each distinct one once per interval,
// so a failing collector does not flood the log with one line per batch.
type Reporter struct {
	Interval  time.Duration
	Publisher core.MetricPublisher

	mutex       sync.Mutex
	messages    map[string]int
	waitGroup   sync.WaitGroup
	stopChannel chan bool
}

func NewReporter(interval time.Duration) *Reporter {
	return &Reporter{
		Interval: interval,
		messages: make(map[string]int),
	}
}

func (r *Reporter) Start() {
	r.stopChannel = make(chan bool)
	r.waitGroup.Add(1)
	go r.run()
}

// Stop flushes pending warnings. It is safe to call without Start, and more than once.
func (r *Reporter) Stop() {
	if r.stopChannel != nil {
		r.stopChannel <- true
		r.waitGroup.Wait()
		r.stopChannel = nil
	}
	r.flush()
}

func (r *Reporter) run() {
	tick := time.NewTicker(r.Interval)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			r.flush()
		case <-r.stopChannel:
			r.waitGroup.Done()
			return
		}
	}
}

func (r *Reporter) Warn(format string, v ...interface{}) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	message := fmt.Sprintf(format, v...)
	r.messages[message]++
}

// Pending returns the warnings counted since the last flush.
func (r *Reporter) Pending() map[string]int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	pending := make(map[string]int, len(r.messages))
	for k, v := range r.messages {
		pending[k] = v
	}
	return pending
}

func (r *Reporter) flush() {
	r.mutex.Lock()
	messages := r.messages
	r.messages = make(map[string]int)
	r.mutex.Unlock()

	if len(messages) == 0 {
		return
	}

	var records []string
	for k, v := range messages {
		records = append(records, fmt.Sprintf("%v times: %v", v, k))
	}
	sort.Strings(records)
	for _, record := range records {
		core.Warn("%v", record)
	}

	if r.Publisher == nil {
		return
	}
	total := 0
	for _, v := range messages {
		total += v
	}
	err := r.Publisher.PutMetric("warnings", "Count", float64(total))
	if err != nil {
		core.Warn("publish warnings metric failed: %v", err)
	}
}
