package exporters

import (
	"encoding/base64"

	"github.com/alonana/harmetrics/har"
	"github.com/alonana/harmetrics/transport"
)

// Collector posts HAR logs to the metrics collector, authenticating with the API key
// as the basic auth user name.
type Collector struct {
	Endpoint    string
	ApiKey      string
	Development bool
	Transport   transport.Transport
}

func (c *Collector) Headers() map[string]string {
	headers := map[string]string{
		"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte(c.ApiKey+":")),
	}
	if c.Development {
		headers["X-Development"] = "true"
	}
	return headers
}

func (c *Collector) Process(harData *har.Har, data []byte) error {
	return c.Transport.Post(c.Endpoint, data, c.Headers())
}
