package exporters

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alonana/harmetrics/core"
	"github.com/alonana/harmetrics/har"
	"github.com/bytedance/sonic"
)

type warnings struct {
	mutex    sync.Mutex
	messages []string
}

func (w *warnings) Warn(format string, v ...interface{}) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.messages = append(w.messages, fmt.Sprintf(format, v...))
}

func (w *warnings) get() []string {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return append([]string(nil), w.messages...)
}

func testCreator() har.Creator {
	return har.Creator{Name: "harmetrics", Version: "test"}
}

func testEntries(urls ...string) []har.Entry {
	entries := make([]har.Entry, len(urls))
	for i := 0; i < len(urls); i++ {
		entries[i] = har.Entry{
			Request:  har.Request{Method: "GET", Url: urls[i], Headers: []har.Pair{}, QueryString: []har.Pair{}, Cookies: []har.Pair{}, HeadersSize: -1},
			Response: har.Response{Status: 200, StatusText: "OK", Headers: []har.Pair{}, Cookies: []har.Pair{}, HeadersSize: -1},
			Started:  "2020-01-02T03:04:05.000Z",
		}
	}
	return entries
}

func TestEmpty(t *testing.T) {
	p := NewProcessor(testCreator(), 2, 10, nil)
	p.Start()
	p.Stop()
}

func TestDeliver(t *testing.T) {
	memory := MemorySink{}
	p := NewProcessor(testCreator(), 2, 10, nil)
	p.AddSink("memory", memory.Process, nil)
	p.Start()

	p.Deliver(testEntries("http://a.com/1", "http://a.com/2"))
	p.Deliver(testEntries("http://a.com/3"))
	p.Stop()

	hars := memory.Hars()
	if len(hars) != 2 {
		t.Fatalf("expected 2 logs, but got %v", len(hars))
	}
	total := 0
	for _, h := range hars {
		if h.Log.Version != "1.2" {
			t.Fatalf("wrong version %v", h.Log.Version)
		}
		if h.Log.Creator != testCreator() {
			t.Fatalf("wrong creator %+v", h.Log.Creator)
		}
		total += len(h.Log.Entries)
	}
	if total != 3 {
		t.Fatalf("expected 3 entries, got %v", total)
	}
	if p.Counters().Delivered != 3 {
		t.Fatalf("wrong counters %+v", p.Counters())
	}
}

func TestFailingSinkReported(t *testing.T) {
	w := warnings{}
	memory := MemorySink{}
	p := NewProcessor(testCreator(), 1, 10, &w)
	p.AddSink("broken", func(harData *har.Har, data []byte) error {
		return errors.New("connection refused")
	}, nil)
	p.AddSink("memory", memory.Process, nil)
	p.Start()
	p.Deliver(testEntries("http://a.com/1"))
	p.Stop()

	messages := w.get()
	if len(messages) != 1 || !strings.Contains(messages[0], "broken") {
		t.Fatalf("expected broken sink warning, got %v", messages)
	}
	if len(memory.Hars()) != 1 {
		t.Fatalf("other sinks should still receive the batch")
	}
	if p.Counters().Failed != 1 || p.Counters().Delivered != 0 {
		t.Fatalf("wrong counters %+v", p.Counters())
	}
}

func TestQueueFullDrops(t *testing.T) {
	w := warnings{}
	release := make(chan bool)
	started := make(chan bool, 1)
	p := NewProcessor(testCreator(), 1, 1, &w)
	p.AddSink("slow", func(harData *har.Har, data []byte) error {
		started <- true
		<-release
		return nil
	}, nil)
	p.Start()

	p.Deliver(testEntries("http://a.com/1"))
	<-started
	p.Deliver(testEntries("http://a.com/2"))

	begin := time.Now()
	p.Deliver(testEntries("http://a.com/3"))
	if time.Since(begin) > time.Second {
		t.Fatalf("deliver blocked on a full queue")
	}

	close(release)
	p.Stop()

	counters := p.Counters()
	if counters.Dropped != 1 || counters.Delivered != 2 {
		t.Fatalf("wrong counters %+v", counters)
	}
	if len(w.get()) != 1 {
		t.Fatalf("expected one drop warning, got %v", w.get())
	}
}

func TestDeliverAfterStop(t *testing.T) {
	w := warnings{}
	p := NewProcessor(testCreator(), 1, 1, &w)
	p.Start()
	p.Stop()
	p.Deliver(testEntries("http://a.com/1"))
	p.Stop()
	if p.Counters().Dropped != 1 {
		t.Fatalf("expected a dropped batch, got %+v", p.Counters())
	}
}

func TestHarShape(t *testing.T) {
	memory := MemorySink{}
	p := NewProcessor(testCreator(), 1, 1, nil)
	p.AddSink("memory", memory.Process, nil)
	err := p.DeliverNow(testEntries("http://a.com/1"))
	if err != nil {
		t.Fatal(err)
	}

	var document map[string]interface{}
	err = sonic.Unmarshal(memory.Raw()[0], &document)
	if err != nil {
		t.Fatal(err)
	}
	log := document["log"].(map[string]interface{})
	if log["version"] != "1.2" {
		t.Fatalf("wrong version %v", log["version"])
	}
	creator := log["creator"].(map[string]interface{})
	if creator["name"] != "harmetrics" || creator["version"] != "test" {
		t.Fatalf("wrong creator %v", creator)
	}
	entry := log["entries"].([]interface{})[0].(map[string]interface{})
	for _, key := range []string{"cache", "timings", "request", "response", "startedDateTime", "time"} {
		if _, exists := entry[key]; !exists {
			t.Fatalf("entry is missing %v: %v", key, entry)
		}
	}
	timings := entry["timings"].(map[string]interface{})
	for _, key := range []string{"send", "wait", "receive"} {
		if _, exists := timings[key]; !exists {
			t.Fatalf("timings is missing %v", key)
		}
	}
	if len(entry["cache"].(map[string]interface{})) != 0 {
		t.Fatalf("cache should be an empty object")
	}
}

func TestCreateProcessor(t *testing.T) {
	c := core.DefaultConfig()
	c.Sinks = "collector,file,stats"
	c.OutputFolder = t.TempDir()
	p, err := CreateProcessor(&c, nil, &fakeTransport{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(p.SinkNames(), ",") != "collector,file,stats" {
		t.Fatalf("wrong sinks %v", p.SinkNames())
	}
	p.Start()
	p.Stop()
}

func TestCreateProcessorUnknownSink(t *testing.T) {
	c := core.DefaultConfig()
	c.Sinks = "collector,carrier-pigeon"
	_, err := CreateProcessor(&c, nil, &fakeTransport{}, nil)
	if err == nil {
		t.Fatalf("expected unknown sink error")
	}
}

func TestCreateProcessorCloudWatchNeedsPublisher(t *testing.T) {
	c := core.DefaultConfig()
	c.Sinks = "stats,cloudwatch"
	_, err := CreateProcessor(&c, nil, &fakeTransport{}, nil)
	if err == nil {
		t.Fatalf("expected missing publisher error")
	}
}
