package filter

import (
	"strings"

	"github.com/alonana/harmetrics/core"
	"golang.org/x/text/cases"
)

const RedactionMarker = "[REDACTED]"

// Policy names the fields whose values are replaced by RedactionMarker. The same
// names apply to headers, cookies, query parameters and JSON body keys.
type Policy struct {
	Fields          []string `yaml:"fields"`
	CaseInsensitive bool     `yaml:"caseInsensitive"`
	Recursive       bool     `yaml:"recursive"`
}

func PolicyFromConfig(c *core.Configuration) Policy {
	var fields []string
	for _, field := range strings.Split(c.RedactFields, ",") {
		field = strings.TrimSpace(field)
		if field != "" {
			fields = append(fields, field)
		}
	}
	return Policy{
		Fields:          fields,
		CaseInsensitive: c.RedactCaseInsensitive,
		Recursive:       c.RedactRecursive,
	}
}

// Filter applies a Policy. It never drops a name, only substitutes values, and holds
// no mutable state so it is safe for concurrent use.
type Filter struct {
	policy Policy
	names  map[string]struct{}
}

func New(policy Policy) *Filter {
	f := Filter{
		policy: policy,
		names:  make(map[string]struct{}, len(policy.Fields)),
	}
	for _, field := range policy.Fields {
		f.names[f.key(field)] = struct{}{}
	}
	return &f
}

func (f *Filter) Policy() Policy {
	return f.policy
}

// Current lets a fixed Filter be used where a reloadable source is expected.
func (f *Filter) Current() *Filter {
	return f
}

func (f *Filter) key(name string) string {
	if f.policy.CaseInsensitive {
		// casers keep state and must not be shared between goroutines
		return cases.Fold().String(name)
	}
	return name
}

func (f *Filter) Redacts(name string) bool {
	if len(f.names) == 0 {
		return false
	}
	_, found := f.names[f.key(name)]
	return found
}

func (f *Filter) FilterMap(values map[string]string) map[string]string {
	filtered := make(map[string]string, len(values))
	for name, value := range values {
		if f.Redacts(name) {
			filtered[name] = RedactionMarker
		} else {
			filtered[name] = value
		}
	}
	return filtered
}

func (f *Filter) FilterPairs(pairs core.Pairs) core.Pairs {
	filtered := make(core.Pairs, len(pairs))
	for i := 0; i < len(pairs); i++ {
		filtered[i] = pairs[i]
		if f.Redacts(pairs[i].Name) {
			filtered[i].Value = RedactionMarker
		}
	}
	return filtered
}

// FilterValue redacts the keys of a decoded JSON value. Only top level object keys are
// inspected unless the policy is recursive, in which case nested objects and objects
// inside arrays are filtered too. A redacted key has its whole value replaced.
func (f *Filter) FilterValue(value interface{}) interface{} {
	return f.filterValue(value, true)
}

func (f *Filter) filterValue(value interface{}, top bool) interface{} {
	if !top && !f.policy.Recursive {
		return value
	}

	switch typed := value.(type) {
	case map[string]interface{}:
		filtered := make(map[string]interface{}, len(typed))
		for name, nested := range typed {
			if f.Redacts(name) {
				filtered[name] = RedactionMarker
			} else {
				filtered[name] = f.filterValue(nested, false)
			}
		}
		return filtered
	case []interface{}:
		// a top level array has no keys of its own
		if !f.policy.Recursive {
			return typed
		}
		filtered := make([]interface{}, len(typed))
		for i := 0; i < len(typed); i++ {
			filtered[i] = f.filterValue(typed[i], false)
		}
		return filtered
	default:
		return value
	}
}
