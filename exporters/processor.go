package exporters

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/alonana/harmetrics/core"
	"github.com/alonana/harmetrics/har"
)

// HarProcessor handles one flushed HAR log. data is the log already serialized.
type HarProcessor func(harData *har.Har, data []byte) error

// Warner is the out-of-band channel delivery failures are reported to.
type Warner interface {
	Warn(format string, v ...interface{})
}

type sink struct {
	name    string
	process HarProcessor
	stop    func()
}

// Processor packages flushed batches into HAR logs and hands them to every sink on a
// pool of background workers. Deliver never blocks: when the queue is full the batch is
// dropped and reported.
type Processor struct {
	Creator  har.Creator
	Reporter Warner

	workers   int
	queueSize int
	sinks     []sink
	input     chan []har.Entry
	mutex     sync.RWMutex
	stopped   bool
	waitGroup sync.WaitGroup
	count     uint64
	dropped   uint64
	failed    uint64
}

func NewProcessor(creator har.Creator, workers int, queueSize int, reporter Warner) *Processor {
	if workers < 1 {
		workers = 1
	}
	return &Processor{
		Creator:   creator,
		Reporter:  reporter,
		workers:   workers,
		queueSize: queueSize,
		stopped:   true,
	}
}

func (p *Processor) AddSink(name string, process HarProcessor, stop func()) {
	p.sinks = append(p.sinks, sink{name: name, process: process, stop: stop})
}

func (p *Processor) SinkNames() []string {
	names := make([]string, len(p.sinks))
	for i := 0; i < len(p.sinks); i++ {
		names[i] = p.sinks[i].name
	}
	return names
}

func (p *Processor) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.input = make(chan []har.Entry, p.queueSize)
	p.stopped = false
	p.waitGroup.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.export()
	}
	core.V1("exporter started with %v workers and sinks %v", p.workers, strings.Join(p.SinkNames(), ","))
}

// Stop delivers the batches already queued, then stops the workers and the sinks.
func (p *Processor) Stop() {
	p.mutex.Lock()
	if p.stopped {
		p.mutex.Unlock()
		return
	}
	p.stopped = true
	close(p.input)
	p.mutex.Unlock()

	p.waitGroup.Wait()
	p.stopSinks()
	core.V1("exporter stopped")
}

func (p *Processor) stopSinks() {
	for i := 0; i < len(p.sinks); i++ {
		if p.sinks[i].stop != nil {
			p.sinks[i].stop()
		}
	}
}

func (p *Processor) Deliver(batch []har.Entry) {
	if len(batch) == 0 {
		return
	}

	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if p.stopped {
		p.drop(batch, "exporter is stopped")
		return
	}

	select {
	case p.input <- batch:
	default:
		p.drop(batch, "delivery queue is full")
	}
}

func (p *Processor) drop(batch []har.Entry, reason string) {
	atomic.AddUint64(&p.dropped, uint64(len(batch)))
	p.warn("dropped batch: %v", reason)
	core.V1("dropped batch of %v entries: %v", len(batch), reason)
}

func (p *Processor) export() {
	defer p.waitGroup.Done()
	for batch := range p.input {
		p.dumpEntries(batch)
	}
}

// DeliverNow processes a batch on the calling goroutine.
func (p *Processor) DeliverNow(batch []har.Entry) error {
	return p.dumpEntries(batch)
}

func (p *Processor) dumpEntries(entries []har.Entry) error {
	harData := har.New(p.Creator, entries)
	data, err := har.Marshal(harData)
	if err != nil {
		atomic.AddUint64(&p.failed, uint64(len(entries)))
		p.warn("%v", err)
		return err
	}

	var failures []string
	for i := 0; i < len(p.sinks); i++ {
		s := p.sinks[i]
		err = s.process(harData, data)
		if err != nil {
			failures = append(failures, s.name)
			p.warn("sink %v failed: %v", s.name, err)
		}
	}

	if len(failures) > 0 {
		atomic.AddUint64(&p.failed, uint64(len(entries)))
		return fmt.Errorf("sinks %v failed", strings.Join(failures, ","))
	}

	total := atomic.AddUint64(&p.count, uint64(len(entries)))
	core.V2("%v total entries delivered so far", total)
	return nil
}

func (p *Processor) warn(format string, v ...interface{}) {
	if p.Reporter != nil {
		p.Reporter.Warn(format, v...)
		return
	}
	core.Warn(format, v...)
}

type Counters struct {
	Delivered uint64
	Dropped   uint64
	Failed    uint64
}

func (p *Processor) Counters() Counters {
	return Counters{
		Delivered: atomic.LoadUint64(&p.count),
		Dropped:   atomic.LoadUint64(&p.dropped),
		Failed:    atomic.LoadUint64(&p.failed),
	}
}
