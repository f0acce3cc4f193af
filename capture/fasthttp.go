package capture

import (
	"time"

	"github.com/alonana/harmetrics/core"
	"github.com/valyala/fasthttp"
)

// FastHTTPHandler is the fasthttp flavour of Handler. fasthttp reuses its buffers, so
// everything is copied before next runs or returns.
func (m *Middleware) FastHTTPHandler(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		request := captureFastRequest(ctx, m.MaxBodySize)

		next(ctx)

		end := time.Now()
		if m.IdentifyFastHTTP != nil {
			request.Group = m.group(func() *core.Group { return m.IdentifyFastHTTP(ctx) })
		}
		m.Record(request, captureFastResponse(ctx, m.MaxBodySize), start, end)
	}
}

func captureFastRequest(ctx *fasthttp.RequestCtx, limit int) *core.CapturedRequest {
	header := &ctx.Request.Header

	query := make(core.Pairs, 0)
	ctx.QueryArgs().VisitAll(func(key, value []byte) {
		query = append(query, core.Pair{Name: string(key), Value: string(value)})
	})

	var headers core.Pairs
	header.VisitAll(func(key, value []byte) {
		headers = append(headers, core.Pair{Name: string(key), Value: string(value)})
	})

	var cookies core.Pairs
	header.VisitAllCookie(func(key, value []byte) {
		cookies = append(cookies, core.Pair{Name: string(key), Value: string(value)})
	})

	postBody := ctx.PostBody()
	body := copyLimited(postBody, limit)

	return &core.CapturedRequest{
		Method:        string(header.Method()),
		Url:           string(ctx.URI().FullURI()),
		Query:         query,
		Headers:       headers,
		Cookies:       cookies,
		Body:          body,
		ContentType:   string(header.ContentType()),
		ContentLength: len(postBody),
		HttpVersion:   string(header.Protocol()),
		RemoteAddr:    ctx.RemoteAddr().String(),
	}
}

func captureFastResponse(ctx *fasthttp.RequestCtx, limit int) *core.CapturedResponse {
	header := &ctx.Response.Header

	var headers core.Pairs
	header.VisitAll(func(key, value []byte) {
		headers = append(headers, core.Pair{Name: string(key), Value: string(value)})
	})

	var cookies core.Pairs
	header.VisitAllCookie(func(key, value []byte) {
		cookie := fasthttp.AcquireCookie()
		defer fasthttp.ReleaseCookie(cookie)
		if cookie.ParseBytes(value) != nil {
			return
		}
		cookies = append(cookies, core.Pair{Name: string(cookie.Key()), Value: string(cookie.Value())})
	})

	// the header content length is only settled when the response is written
	responseBody := ctx.Response.Body()
	body := copyLimited(responseBody, limit)

	return &core.CapturedResponse{
		Status:        ctx.Response.StatusCode(),
		Headers:       headers,
		Cookies:       cookies,
		Body:          body,
		ContentType:   string(header.ContentType()),
		ContentLength: len(responseBody),
		Location:      string(header.Peek(fasthttp.HeaderLocation)),
	}
}

// copyLimited copies at most limit bytes, or all of data when limit is not positive.
func copyLimited(data []byte, limit int) []byte {
	if limit > 0 && len(data) > limit {
		data = data[:limit]
	}
	return append([]byte(nil), data...)
}
