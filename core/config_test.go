package core

import (
	"os"
	"testing"
	"time"
)

func TestParseFlagsDefaults(t *testing.T) {
	err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}
	if Config.BufferLength != 1 || Config.Sinks != "collector" || !Config.RedactCaseInsensitive {
		t.Fatalf("unexpected defaults %+v", Config)
	}
}

func TestParseFlags(t *testing.T) {
	err := ParseFlags([]string{
		"-buffer-length", "10",
		"-redact-fields", "authorization,password",
		"-delivery-timeout", "2s",
		"-sinks", "collector,file",
	})
	if err != nil {
		t.Fatal(err)
	}
	if Config.BufferLength != 10 || Config.RedactFields != "authorization,password" {
		t.Fatalf("flags not applied %+v", Config)
	}
	if Config.DeliveryTimeout != 2*time.Second || Config.Sinks != "collector,file" {
		t.Fatalf("flags not applied %+v", Config)
	}
}

func TestParseFlagsEnvironment(t *testing.T) {
	os.Setenv("HARMETRICS_API_KEY", "from-env")
	defer os.Unsetenv("HARMETRICS_API_KEY")

	err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}
	if Config.ApiKey != "from-env" {
		t.Fatalf("api key not read from environment: %v", Config.ApiKey)
	}
}

func TestParseFlagsInvalid(t *testing.T) {
	err := ParseFlags([]string{"-buffer-length", "0"})
	if err == nil {
		t.Fatalf("expected buffer length error")
	}
	err = ParseFlags([]string{"-max-body-size", "-1"})
	if err == nil {
		t.Fatalf("expected max body size error")
	}
}

func TestParseFlagsCapture(t *testing.T) {
	err := ParseFlags([]string{"-max-body-size", "512", "-identity-header", "X-User-Id"})
	if err != nil {
		t.Fatal(err)
	}
	if Config.MaxBodySize != 512 || Config.IdentityHeader != "X-User-Id" {
		t.Fatalf("flags not applied %+v", Config)
	}
}

func TestRedactedConfig(t *testing.T) {
	c := DefaultConfig()
	c.ApiKey = "secret"
	if redacted(c).ApiKey == "secret" {
		t.Fatalf("api key should not be logged")
	}
	if c.ApiKey != "secret" {
		t.Fatalf("original config was modified")
	}
}
