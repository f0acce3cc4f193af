package capture

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alonana/harmetrics/buffer"
	"github.com/alonana/harmetrics/builder"
	"github.com/alonana/harmetrics/core"
	"github.com/valyala/fasthttp"
)

type Warner interface {
	Warn(format string, v ...interface{})
}

// Middleware turns every exchange it observes into a HAR entry and appends it to its
// buffer. It owns the buffer: Close flushes whatever is still pending.
//
// MaxBodySize caps the bytes of each body kept in the entry, zero keeps all of it.
// The handler and the client always see the complete bodies. Identify and
// IdentifyFastHTTP optionally name the caller once the handler returned.
type Middleware struct {
	Filter           FilterSource
	Buffer           *buffer.Buffer
	Reporter         Warner
	MaxBodySize      int
	Identify         func(r *http.Request) *core.Group
	IdentifyFastHTTP func(ctx *fasthttp.RequestCtx) *core.Group
}

func New(source FilterSource, b *buffer.Buffer, reporter Warner) *Middleware {
	return &Middleware{
		Filter:   source,
		Buffer:   b,
		Reporter: reporter,
	}
}

// Record never fails and never panics into the caller; problems go to the reporter.
func (m *Middleware) Record(request *core.CapturedRequest, response *core.CapturedResponse, start time.Time, end time.Time) {
	defer func() {
		if msg := recover(); msg != nil {
			m.warn("record exchange panic: %v", msg)
		}
	}()

	entry := builder.Build(request, response, start, end, m.Filter.Current())
	m.Buffer.Add(entry)
}

// group runs an identity callback. A panicking callback leaves the entry without a group.
func (m *Middleware) group(identify func() *core.Group) (group *core.Group) {
	defer func() {
		if msg := recover(); msg != nil {
			m.warn("identify caller panic: %v", msg)
			group = nil
		}
	}()
	return identify()
}

func (m *Middleware) Close() {
	m.Buffer.FlushAndReset()
}

func (m *Middleware) warn(format string, v ...interface{}) {
	if m.Reporter != nil {
		m.Reporter.Warn(format, v...)
		return
	}
	core.Warn(format, v...)
}

// parseQuery keeps the order parameters appear in the raw query, unlike url.ParseQuery.
func parseQuery(rawQuery string) core.Pairs {
	pairs := make(core.Pairs, 0)
	for _, section := range strings.Split(rawQuery, "&") {
		if section == "" {
			continue
		}
		name, value, _ := strings.Cut(section, "=")
		unescapedName, err := url.QueryUnescape(name)
		if err == nil {
			name = unescapedName
		}
		unescapedValue, err := url.QueryUnescape(value)
		if err == nil {
			value = unescapedValue
		}
		pairs = append(pairs, core.Pair{Name: name, Value: value})
	}
	return pairs
}
