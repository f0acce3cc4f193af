package transport

import (
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// Transport posts a JSON document. Non 2xx responses are reported as errors.
type Transport interface {
	Post(url string, body []byte, headers map[string]string) error
}

type FastHTTP struct {
	Timeout time.Duration
	client  *fasthttp.Client
}

func NewFastHTTP(timeout time.Duration) *FastHTTP {
	return &FastHTTP{
		Timeout: timeout,
		client: &fasthttp.Client{
			Name:                "harmetrics",
			MaxIdleConnDuration: time.Minute,
		},
	}
}

func (t *FastHTTP) Post(url string, body []byte, headers map[string]string) error {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	req.SetBody(body)

	err := t.client.DoTimeout(req, resp, t.Timeout)
	if err != nil {
		return fmt.Errorf("post to %v failed: %w", url, err)
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return &StatusError{Url: url, Status: status, Body: string(resp.Body())}
	}
	return nil
}

type StatusError struct {
	Url    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("post to %v returned status %v: %v", e.Url, e.Status, e.Body)
}
