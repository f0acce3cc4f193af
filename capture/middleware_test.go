package capture

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alonana/harmetrics/buffer"
	"github.com/alonana/harmetrics/core"
	"github.com/alonana/harmetrics/exporters"
	"github.com/alonana/harmetrics/filter"
	"github.com/alonana/harmetrics/har"
	"github.com/bytedance/sonic"
)

type pipeline struct {
	memory     *exporters.MemorySink
	processor  *exporters.Processor
	middleware *Middleware
}

func newPipeline(threshold int, policy filter.Policy) *pipeline {
	memory := &exporters.MemorySink{}
	processor := exporters.NewProcessor(har.Creator{Name: "harmetrics", Version: "test"}, 1, 100, nil)
	processor.AddSink("memory", memory.Process, nil)
	processor.Start()
	b := buffer.New(threshold, processor)
	return &pipeline{
		memory:     memory,
		processor:  processor,
		middleware: New(filter.New(policy), b, nil),
	}
}

func (p *pipeline) stop() []har.Har {
	p.middleware.Close()
	p.processor.Stop()
	return p.memory.Hars()
}

func TestEndToEnd(t *testing.T) {
	p := newPipeline(1, filter.Policy{Fields: []string{"authorization"}, CaseInsensitive: true})

	var handlerBody string
	handler := p.middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		handlerBody = string(data)
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("Content-Length", "2")
		w.Write([]byte("OK"))
	}))

	request := httptest.NewRequest("POST", "http://example.com/api/foo?id=1&name=joel", strings.NewReader(`{"key":"value"}`))
	request.Header.Set("Authorization", "Basic abc123")
	request.Header.Set("Content-Type", "application/json")
	request.AddCookie(&http.Cookie{Name: "cookie1", Value: "value1"})
	response := httptest.NewRecorder()
	handler.ServeHTTP(response, request)

	if handlerBody != `{"key":"value"}` {
		t.Fatalf("handler saw body %q", handlerBody)
	}
	if response.Code != 200 || response.Body.String() != "OK" {
		t.Fatalf("response was modified: %v %v", response.Code, response.Body.String())
	}

	hars := p.stop()
	if len(hars) != 1 || len(hars[0].Log.Entries) != 1 {
		t.Fatalf("expected exactly one entry, got %+v", hars)
	}
	entry := hars[0].Log.Entries[0]

	found := false
	for _, header := range entry.Request.Headers {
		if header.Name == "Authorization" {
			found = true
			if header.Value != filter.RedactionMarker {
				t.Fatalf("authorization not redacted: %v", header.Value)
			}
		}
	}
	if !found {
		t.Fatalf("authorization header missing: %+v", entry.Request.Headers)
	}
	if entry.Request.PostData == nil || entry.Request.PostData.Text != `{"key":"value"}` {
		t.Fatalf("wrong post data %+v", entry.Request.PostData)
	}
	if entry.Request.Url != "http://example.com/api/foo?id=1&name=joel" {
		t.Fatalf("wrong url %v", entry.Request.Url)
	}
	if len(entry.Request.QueryString) != 2 || entry.Request.QueryString[0].Name != "id" {
		t.Fatalf("wrong query string %+v", entry.Request.QueryString)
	}
	if len(entry.Request.Cookies) != 1 || entry.Request.Cookies[0].Value != "value1" {
		t.Fatalf("wrong cookies %+v", entry.Request.Cookies)
	}
	if entry.Response.Status != 200 || entry.Response.StatusText != "OK" {
		t.Fatalf("wrong status %v %v", entry.Response.Status, entry.Response.StatusText)
	}
	if entry.Response.Content.Text != "OK" || entry.Response.BodySize != 2 {
		t.Fatalf("wrong content %+v", entry.Response.Content)
	}
	if entry.Request.HttpVersion != "HTTP/1.1" {
		t.Fatalf("wrong http version %v", entry.Request.HttpVersion)
	}
}

func TestBatching(t *testing.T) {
	p := newPipeline(2, filter.Policy{})
	handler := p.middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}))

	for _, path := range []string{"/api/foo", "/api/bar", "/api/baz", "/api/biz"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", path, nil))
	}

	hars := p.stop()
	if len(hars) != 2 {
		t.Fatalf("expected 2 deliveries, got %v", len(hars))
	}
	for _, h := range hars {
		if len(h.Log.Entries) != 2 {
			t.Fatalf("expected batches of 2, got %v", len(h.Log.Entries))
		}
	}
}

func TestCloseFlushesPartialBatch(t *testing.T) {
	p := newPipeline(10, filter.Policy{})
	handler := p.middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/a", nil))

	hars := p.stop()
	if len(hars) != 1 || len(hars[0].Log.Entries) != 1 {
		t.Fatalf("partial batch not flushed: %+v", hars)
	}
	if hars[0].Log.Entries[0].Request.PostData != nil {
		t.Fatalf("bodiless request should have no post data")
	}
}

func TestJSONResponseRedacted(t *testing.T) {
	p := newPipeline(1, filter.Policy{Fields: []string{"token"}})
	handler := p.middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "abc"})
		w.Write([]byte(`{"token":"secret",`))
		w.Write([]byte(`"ok":true}`))
	}))
	response := httptest.NewRecorder()
	handler.ServeHTTP(response, httptest.NewRequest("GET", "/login", nil))

	if response.Body.String() != `{"token":"secret","ok":true}` {
		t.Fatalf("client saw a modified body %v", response.Body.String())
	}

	hars := p.stop()
	entry := hars[0].Log.Entries[0]
	var content map[string]interface{}
	err := sonic.Unmarshal([]byte(entry.Response.Content.Text), &content)
	if err != nil {
		t.Fatal(err)
	}
	if content["token"] != filter.RedactionMarker || content["ok"] != true {
		t.Fatalf("wrong content %v", content)
	}
	if len(entry.Response.Cookies) != 1 || entry.Response.Cookies[0].Value != filter.RedactionMarker {
		t.Fatalf("response cookie not redacted %+v", entry.Response.Cookies)
	}
}

func TestRedirect(t *testing.T) {
	p := newPipeline(1, filter.Policy{})
	handler := p.middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/here", nil))

	entry := p.stop()[0].Log.Entries[0]
	if entry.Response.Status != 302 || entry.Response.RedirectUrl != "/elsewhere" {
		t.Fatalf("wrong redirect %v %v", entry.Response.Status, entry.Response.RedirectUrl)
	}
}

type panickingSource struct{}

func (panickingSource) Current() *filter.Filter {
	panic("policy unavailable")
}

type warnings struct {
	messages []string
}

func (w *warnings) Warn(format string, v ...interface{}) {
	w.messages = append(w.messages, format)
}

func TestRecordNeverPanics(t *testing.T) {
	w := warnings{}
	m := New(panickingSource{}, buffer.New(1, buffer.DelivererFunc(func(batch []har.Entry) {})), &w)
	now := time.Now()
	m.Record(&core.CapturedRequest{}, &core.CapturedResponse{}, now, now)
	if len(w.messages) != 1 {
		t.Fatalf("expected a reported panic, got %v", w.messages)
	}
}

func TestParseQueryOrder(t *testing.T) {
	pairs := parseQuery("b=2&a=1&c=hello%20world&flag&=x")
	expected := core.Pairs{
		{Name: "b", Value: "2"},
		{Name: "a", Value: "1"},
		{Name: "c", Value: "hello world"},
		{Name: "flag", Value: ""},
		{Name: "", Value: "x"},
	}
	if len(pairs) != len(expected) {
		t.Fatalf("wrong pairs %+v", pairs)
	}
	for i := range expected {
		if pairs[i] != expected[i] {
			t.Fatalf("pair %v: expected %+v, got %+v", i, expected[i], pairs[i])
		}
	}
}
