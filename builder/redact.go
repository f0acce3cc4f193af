package builder

import (
	"github.com/alonana/harmetrics/core"
	"github.com/alonana/harmetrics/filter"
	"github.com/alonana/harmetrics/har"
)

// Redact applies f to an entry that was already built, for example one loaded from a
// stored HAR file. Post data stays untouched, as it does when building.
func Redact(entry har.Entry, f *filter.Filter) har.Entry {
	entry.Request.Headers = redactPairs(entry.Request.Headers, f)
	entry.Request.QueryString = redactPairs(entry.Request.QueryString, f)
	entry.Request.Cookies = redactPairs(entry.Request.Cookies, f)
	entry.Response.Headers = redactPairs(entry.Response.Headers, f)
	entry.Response.Cookies = redactPairs(entry.Response.Cookies, f)

	entry.Response.Content.Text = responseText(&core.CapturedResponse{
		ContentType: entry.Response.Content.MimeType,
		Body:        []byte(entry.Response.Content.Text),
	}, f)
	return entry
}

func redactPairs(pairs []har.Pair, f *filter.Filter) []har.Pair {
	if pairs == nil {
		return nil
	}
	captured := make(core.Pairs, len(pairs))
	for i := 0; i < len(pairs); i++ {
		captured[i] = core.Pair{Name: pairs[i].Name, Value: pairs[i].Value}
	}
	return toHarPairs(f.FilterPairs(captured))
}
