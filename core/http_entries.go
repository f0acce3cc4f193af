package core

// Pair is one name/value item of an ordered header, cookie or query parameter list.
type Pair struct {
	Name  string
	Value string
}

// Pairs keeps insertion order, which the HAR arrays preserve.
type Pairs []Pair

func (p Pairs) Get(name string) (string, bool) {
	for i := 0; i < len(p); i++ {
		if p[i].Name == name {
			return p[i].Value, true
		}
	}
	return "", false
}

// Group identifies the caller of a request, as resolved by the application.
type Group struct {
	Id    string
	Label string
	Email string
}

// CapturedRequest is a snapshot of the inbound request taken before the handler runs.
type CapturedRequest struct {
	Method        string
	Url           string
	Query         Pairs
	Headers       Pairs
	Cookies       Pairs
	Body          []byte
	ContentType   string
	ContentLength int
	HttpVersion   string
	RemoteAddr    string
	Group         *Group
}

func (r *CapturedRequest) HasBody() bool {
	return len(r.Body) > 0
}

// CapturedResponse is a snapshot of the response taken after the handler completed.
type CapturedResponse struct {
	Status        int
	HttpVersion   string
	Headers       Pairs
	Cookies       Pairs
	Body          []byte
	ContentType   string
	ContentLength int
	Location      string
}
