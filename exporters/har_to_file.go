package exporters

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/alonana/harmetrics/core"
	"github.com/alonana/harmetrics/har"
)

type FileSink struct {
	OutputFolder string
	sequence     uint64
}

func (f *FileSink) Process(harData *har.Har, data []byte) error {
	// concurrent workers may flush within the same second
	sequence := atomic.AddUint64(&f.sequence, 1)
	formattedTime := time.Now().Format("2006-01-02T15-04-05")
	path := filepath.Join(f.OutputFolder, fmt.Sprintf("%v_%06d.har", formattedTime, sequence))

	err := core.SaveToFile(path, data)
	if err != nil {
		return fmt.Errorf("write har data to %v failed: %w", path, err)
	}

	core.V2("%v entries dumped to file %v", len(harData.Log.Entries), path)
	return nil
}
