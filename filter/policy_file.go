package filter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// LoadPolicyFile reads a YAML policy such as:
//
//	fields: [authorization, cookie, password]
//	caseInsensitive: true
//	recursive: false
func LoadPolicyFile(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file %v failed: %w", path, err)
	}

	var policy Policy
	err = yaml.UnmarshalStrict(data, &policy)
	if err != nil {
		return Policy{}, fmt.Errorf("parse policy file %v failed: %w", path, err)
	}
	return policy, nil
}
