package exporters

import (
	"sync"
	"time"

	"github.com/alonana/harmetrics/core"
	"github.com/alonana/harmetrics/har"
)

// CloudWatchStats publishes the delivered entry count and HAR bytes once per interval.
type CloudWatchStats struct {
	Interval  time.Duration
	Publisher core.MetricPublisher

	mutex        sync.Mutex
	totalSize    uint64
	totalEntries uint64
	waitGroup    sync.WaitGroup
	stopChannel  chan bool
}

func NewCloudWatchStats(interval time.Duration, publisher core.MetricPublisher) *CloudWatchStats {
	return &CloudWatchStats{
		Interval:  interval,
		Publisher: publisher,
	}
}

func (p *CloudWatchStats) Start() {
	p.stopChannel = make(chan bool)
	p.waitGroup.Add(1)
	go p.run()
}

func (p *CloudWatchStats) Stop() {
	p.stopChannel <- true
	p.waitGroup.Wait()
	p.publish()
}

func (p *CloudWatchStats) run() {
	defer p.waitGroup.Done()
	tick := time.NewTicker(p.Interval)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			p.publish()
		case <-p.stopChannel:
			return
		}
	}
}

func (p *CloudWatchStats) reset() (uint64, uint64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	entries, size := p.totalEntries, p.totalSize
	p.totalEntries = 0
	p.totalSize = 0
	return entries, size
}

func (p *CloudWatchStats) publish() {
	entries, size := p.reset()
	if entries == 0 {
		return
	}
	core.V1("cloudwatch stats: %v entries, %v bytes", entries, size)

	err := p.Publisher.PutMetric("delivered_entries", "Count", float64(entries))
	if err != nil {
		core.Warn("%v", err)
	}
	err = p.Publisher.PutMetric("delivered_bytes", "Bytes", float64(size))
	if err != nil {
		core.Warn("%v", err)
	}
}

func (p *CloudWatchStats) Process(harData *har.Har, data []byte) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.totalSize += uint64(len(data))
	p.totalEntries += uint64(len(harData.Log.Entries))
	return nil
}
