package filter

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePolicy(t *testing.T, path string, data string) {
	err := os.WriteFile(path, []byte(data), 0644)
	if err != nil {
		t.Fatal(err)
	}
}

func TestLoadPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	writePolicy(t, path, "fields: [authorization, token]\ncaseInsensitive: true\n")

	policy, err := LoadPolicyFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(policy.Fields) != 2 || !policy.CaseInsensitive || policy.Recursive {
		t.Fatalf("unexpected policy %+v", policy)
	}
}

func TestLoadPolicyFileUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	writePolicy(t, path, "fieldz: [authorization]\n")

	_, err := LoadPolicyFile(path)
	if err == nil {
		t.Fatalf("expected an error for an unknown key")
	}
}

func TestWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	writePolicy(t, path, "fields: [authorization]\n")

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	reloaded := make(chan *Filter, 10)
	w.OnReload = func(f *Filter) {
		reloaded <- f
	}
	err = w.Start()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.Current().Redacts("authorization") || w.Current().Redacts("token") {
		t.Fatalf("initial policy not applied")
	}

	writePolicy(t, path, "fields: [token]\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case f := <-reloaded:
			if f.Redacts("token") {
				if !w.Current().Redacts("token") {
					t.Fatalf("current filter was not replaced")
				}
				return
			}
		case <-deadline:
			t.Fatalf("policy was not reloaded")
		}
	}
}

func TestWatcherKeepsPolicyOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	writePolicy(t, path, "fields: [authorization]\n")

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	writePolicy(t, path, "fields: [unterminated\n")
	w.reload()

	if !w.Current().Redacts("authorization") {
		t.Fatalf("previous policy should be kept")
	}
}
