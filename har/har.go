package har

import (
	"net/http"
)

const Version = "1.2"

type Cache struct {
}

type Timings struct {
	Send    int `json:"send"`
	Wait    int `json:"wait"`
	Receive int `json:"receive"`
}

type Pair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type PostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

type Content struct {
	Text     string `json:"text"`
	Size     int    `json:"size"`
	MimeType string `json:"mimeType"`
}

type Request struct {
	Method      string    `json:"method"`
	Url         string    `json:"url"`
	HttpVersion string    `json:"httpVersion"`
	Headers     []Pair    `json:"headers"`
	QueryString []Pair    `json:"queryString"`
	Cookies     []Pair    `json:"cookies"`
	PostData    *PostData `json:"postData,omitempty"`
	HeadersSize int       `json:"headersSize"`
	BodySize    int       `json:"bodySize"`
}

type Response struct {
	Status      int     `json:"status"`
	StatusText  string  `json:"statusText"`
	HttpVersion string  `json:"httpVersion"`
	Headers     []Pair  `json:"headers"`
	Cookies     []Pair  `json:"cookies"`
	Content     Content `json:"content"`
	RedirectUrl string  `json:"redirectURL"`
	HeadersSize int     `json:"headersSize"`
	BodySize    int     `json:"bodySize"`
}

// Group is the caller identity attached to an entry.
type Group struct {
	Id    string `json:"id"`
	Label string `json:"label,omitempty"`
	Email string `json:"email,omitempty"`
}

// Entry fields prefixed by an underscore are HAR custom fields.
type Entry struct {
	Cache           Cache    `json:"cache"`
	Timings         Timings  `json:"timings"`
	Request         Request  `json:"request"`
	Response        Response `json:"response"`
	Started         string   `json:"startedDateTime"`
	Time            int      `json:"time"`
	ClientIPAddress string   `json:"_clientIPAddress,omitempty"`
	Group           *Group   `json:"_group,omitempty"`
}

type Creator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Log struct {
	Version string  `json:"version"`
	Creator Creator `json:"creator"`
	Entries []Entry `json:"entries"`
}

type Har struct {
	Log Log `json:"log"`
}

// New wraps entries in a fresh versioned envelope. A nil slice is replaced by an empty
// one so the entries array is always present.
func New(creator Creator, entries []Entry) *Har {
	if entries == nil {
		entries = make([]Entry, 0)
	}
	return &Har{
		Log: Log{
			Version: Version,
			Creator: creator,
			Entries: entries,
		},
	}
}

// StatusText returns the reason phrase for a status code, or an empty string for
// codes without one.
func StatusText(code int) string {
	return http.StatusText(code)
}

func (e *Entry) Host() string {
	return hostOf(e.Request.Url)
}
