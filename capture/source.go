package capture

import "github.com/alonana/harmetrics/filter"

// FilterSource is satisfied by a fixed *filter.Filter and by a reloading *filter.Watcher.
type FilterSource = filter.Source
