package har

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// json is configured like encoding/json: sorted map keys and HTML escaping, so output
// is byte-identical across runs.
var json = sonic.ConfigStd

func Marshal(h *Har) ([]byte, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("marshal har failed: %w", err)
	}
	return data, nil
}

func Unmarshal(data []byte) (*Har, error) {
	var h Har
	err := json.Unmarshal(data, &h)
	if err != nil {
		return nil, fmt.Errorf("unmarshal har failed: %w", err)
	}
	return &h, nil
}
