package exporters

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alonana/harmetrics/core"
	"github.com/alonana/harmetrics/har"
)

var sizeBuckets = []int{
	1024,
	5 * 1024,
	50 * 1024,
	100 * 1024,
	256 * 1024,
	1024 * 1024,
}

type SizesStats struct {
	counts map[int]int
	min    *int
	max    *int
}

type SingleSiteStats struct {
	totalSize         uint64
	totalEntries      uint64
	requestsStats     SizesStats
	responsesStats    SizesStats
	statusClassCounts map[int]uint64
}

// SitesStats counts delivered entries and bytes per upstream host and prints a summary
// line per host on every interval.
type SitesStats struct {
	Interval time.Duration

	totalStats  SingleSiteStats
	hostsStats  map[string]*SingleSiteStats
	mutex       sync.Mutex
	startTime   time.Time
	waitGroup   sync.WaitGroup
	stopChannel chan bool
}

func NewSitesStats(interval time.Duration) *SitesStats {
	return &SitesStats{
		Interval:   interval,
		hostsStats: make(map[string]*SingleSiteStats),
		startTime:  time.Now(),
	}
}

func (s *SitesStats) Start() {
	s.stopChannel = make(chan bool)
	s.waitGroup.Add(1)
	go s.run()
}

func (s *SitesStats) Stop() {
	s.stopChannel <- true
	s.waitGroup.Wait()
	s.print()
}

func (s *SitesStats) run() {
	defer s.waitGroup.Done()
	tick := time.NewTicker(s.Interval)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			s.print()
		case <-s.stopChannel:
			return
		}
	}
}

func (s *SitesStats) Process(harData *har.Har, data []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entries := harData.Log.Entries
	s.update(&s.totalStats, entries, len(data))

	byHost := make(map[string][]har.Entry)
	for i := 0; i < len(entries); i++ {
		host := entries[i].Host()
		byHost[host] = append(byHost[host], entries[i])
	}
	for host, hostEntries := range byHost {
		stats, exists := s.hostsStats[host]
		if !exists {
			stats = &SingleSiteStats{}
			s.hostsStats[host] = stats
		}
		// the serialized size is shared by the hosts of a batch in proportion to entries
		s.update(stats, hostEntries, len(data)*len(hostEntries)/len(entries))
	}
	return nil
}

func (s *SitesStats) update(stats *SingleSiteStats, entries []har.Entry, size int) {
	stats.totalSize += uint64(size)
	stats.totalEntries += uint64(len(entries))
	if stats.statusClassCounts == nil {
		stats.statusClassCounts = make(map[int]uint64)
	}
	for i := 0; i < len(entries); i++ {
		entry := entries[i]
		s.updateSizesStatsSingle(&stats.requestsStats, entry.Request.BodySize)
		s.updateSizesStatsSingle(&stats.responsesStats, entry.Response.BodySize)
		stats.statusClassCounts[entry.Response.Status/100]++
	}
}

func (s *SitesStats) updateSizesStatsSingle(stats *SizesStats, size int) {
	if size < 0 {
		return
	}
	if stats.min == nil || size < *stats.min {
		stats.min = &size
	}
	if stats.max == nil || size > *stats.max {
		stats.max = &size
	}

	if stats.counts == nil {
		stats.counts = make(map[int]int)
	}
	for i := 0; i < len(sizeBuckets); i++ {
		if size <= sizeBuckets[i] {
			stats.counts[sizeBuckets[i]]++
			return
		}
	}
}

// Summary returns the entries and bytes counted for a host, or for all hosts when
// host is empty.
func (s *SitesStats) Summary(host string) (entries uint64, size uint64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if host == "" {
		return s.totalStats.totalEntries, s.totalStats.totalSize
	}
	stats, exists := s.hostsStats[host]
	if !exists {
		return 0, 0
	}
	return stats.totalEntries, stats.totalSize
}

func (s *SitesStats) print() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var hosts []string
	for host := range s.hostsStats {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	core.Info("%v", s.printSingle("__Summary__", &s.totalStats))
	for i := 0; i < len(hosts); i++ {
		core.Info("%v", s.printSingle(hosts[i], s.hostsStats[hosts[i]]))
	}
}

func (s *SitesStats) printSingle(name string, stats *SingleSiteStats) string {
	runSeconds := time.Since(s.startTime).Seconds()
	if runSeconds < 1 {
		runSeconds = 1
	}
	eps := float64(stats.totalEntries) / runSeconds
	bps := float64(stats.totalSize) / runSeconds

	var classes []string
	for class := 1; class <= 5; class++ {
		classes = append(classes, fmt.Sprintf("%vxx=%v", class, stats.statusClassCounts[class]))
	}

	return fmt.Sprintf("%v statistics: entries=%v bytes=%v eps=%.2f bps=%.2f %v request[%v] response[%v]",
		name,
		stats.totalEntries,
		stats.totalSize,
		eps,
		bps,
		strings.Join(classes, " "),
		s.printSizesStats(stats.requestsStats),
		s.printSizesStats(stats.responsesStats),
	)
}

func (s *SitesStats) printSizesStats(stats SizesStats) string {
	var line string
	if stats.min == nil || stats.max == nil {
		line = "min=NA max=NA"
	} else {
		line = fmt.Sprintf("min=%v max=%v", *stats.min, *stats.max)
	}
	for i := 0; i < len(sizeBuckets); i++ {
		line += fmt.Sprintf(" upTo%vK=%v", sizeBuckets[i]/1024, stats.counts[sizeBuckets[i]])
	}
	return line
}
