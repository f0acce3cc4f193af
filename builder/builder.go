package builder

import (
	"net"
	"time"

	"github.com/alonana/harmetrics/core"
	"github.com/alonana/harmetrics/filter"
	"github.com/alonana/harmetrics/har"
)

const startedFormat = "2006-01-02T15:04:05.000Z07:00"

// Build converts one captured exchange into a HAR entry. It depends only on its
// arguments, so equal inputs produce equal entries.
//
// A JSON response body is decoded, filtered and encoded again. Values of keys the
// filter does not match are kept as written, but object keys are emitted in sorted
// order rather than the order the upstream sent them.
func Build(request *core.CapturedRequest, response *core.CapturedResponse, start time.Time, end time.Time, f *filter.Filter) har.Entry {
	elapsed := ElapsedMillis(start, end)
	return har.Entry{
		Cache: har.Cache{},
		Timings: har.Timings{
			Send:    0,
			Wait:    elapsed,
			Receive: 0,
		},
		Request:  buildRequest(request, f),
		Response: buildResponse(request, response, f),
		Started:  start.UTC().Format(startedFormat),
		Time:     elapsed,

		ClientIPAddress: clientIP(request.RemoteAddr),
		Group:           toHarGroup(request.Group),
	}
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func toHarGroup(group *core.Group) *har.Group {
	if group == nil {
		return nil
	}
	return &har.Group{
		Id:    group.Id,
		Label: group.Label,
		Email: group.Email,
	}
}

// ElapsedMillis truncates to whole milliseconds and returns 0 when end precedes start.
func ElapsedMillis(start time.Time, end time.Time) int {
	elapsed := end.Sub(start)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed.Milliseconds())
}

func buildRequest(request *core.CapturedRequest, f *filter.Filter) har.Request {
	harRequest := har.Request{
		Method:      request.Method,
		Url:         request.Url,
		HttpVersion: request.HttpVersion,
		Headers:     toHarPairs(f.FilterPairs(request.Headers)),
		QueryString: toHarPairs(f.FilterPairs(request.Query)),
		Cookies:     toHarPairs(f.FilterPairs(request.Cookies)),
		HeadersSize: -1,
		BodySize:    request.ContentLength,
	}

	// request bodies are opaque and kept verbatim
	if request.HasBody() {
		harRequest.PostData = &har.PostData{
			MimeType: request.ContentType,
			Text:     string(request.Body),
		}
	}
	return harRequest
}

func buildResponse(request *core.CapturedRequest, response *core.CapturedResponse, f *filter.Filter) har.Response {
	httpVersion := response.HttpVersion
	if httpVersion == "" {
		httpVersion = request.HttpVersion
	}

	return har.Response{
		Status:      response.Status,
		StatusText:  har.StatusText(response.Status),
		HttpVersion: httpVersion,
		Headers:     toHarPairs(f.FilterPairs(response.Headers)),
		Cookies:     toHarPairs(f.FilterPairs(response.Cookies)),
		Content: har.Content{
			Text:     responseText(response, f),
			Size:     response.ContentLength,
			MimeType: response.ContentType,
		},
		RedirectUrl: response.Location,
		HeadersSize: -1,
		BodySize:    response.ContentLength,
	}
}

func responseText(response *core.CapturedResponse, f *filter.Filter) string {
	body := ParseBody(response.ContentType, response.Body)
	if !body.IsJSON() {
		return string(body.Raw)
	}

	filtered, err := bodyJSON.Marshal(f.FilterValue(body.Value))
	if err != nil {
		return string(response.Body)
	}
	return string(filtered)
}

func toHarPairs(pairs core.Pairs) []har.Pair {
	harPairs := make([]har.Pair, len(pairs))
	for i := 0; i < len(pairs); i++ {
		harPairs[i] = har.Pair{
			Name:  pairs[i].Name,
			Value: pairs[i].Value,
		}
	}
	return harPairs
}
