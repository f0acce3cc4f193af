package core

import (
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/namsral/flag"
)

const (
	EnvPrefix       = "HARMETRICS"
	DefaultEndpoint = "https://metrics.example.com/v1/request"
	Version         = "1.0.0"
)

type Configuration = struct {
	ApiKey                string
	Endpoint              string
	Development           bool
	BufferLength          int
	RedactFields          string
	RedactCaseInsensitive bool
	RedactRecursive       bool
	PolicyFile            string
	WatchPolicy           bool
	Sinks                 string
	OutputFolder          string
	S3BucketName          string
	AWSRegion             string
	CloudWatchNamespace   string
	CloudWatchInterval    time.Duration
	RedisAddress          string
	RedisChannel          string
	KafkaBrokers          string
	KafkaTopic            string
	MaxBodySize           int
	IdentityHeader        string
	ListenAddress         string
	UpstreamURL           string
	DeliveryWorkers       int
	DeliveryQueueSize     int
	DeliveryTimeout       time.Duration
	StatsInterval         time.Duration
	AggregatedLogInterval time.Duration
	CreatorName           string
	CreatorVersion        string
	Verbose               int
}

var Config = DefaultConfig()

// DefaultConfig returns the configuration used when no flag or env var overrides a value.
func DefaultConfig() Configuration {
	return Configuration{
		Endpoint:              DefaultEndpoint,
		BufferLength:          1,
		RedactCaseInsensitive: true,
		Sinks:                 "collector",
		OutputFolder:          ".",
		AWSRegion:             "us-east-1",
		CloudWatchNamespace:   "harmetrics",
		CloudWatchInterval:    time.Minute,
		RedisAddress:          "127.0.0.1:6379",
		RedisChannel:          "harmetrics",
		KafkaBrokers:          "localhost:9092",
		KafkaTopic:            "harmetrics",
		MaxBodySize:           1 << 20,
		ListenAddress:         ":8080",
		DeliveryWorkers:       2,
		DeliveryQueueSize:     100,
		DeliveryTimeout:       5 * time.Second,
		StatsInterval:         time.Minute,
		AggregatedLogInterval: time.Minute,
		CreatorName:           "harmetrics",
		CreatorVersion:        Version,
	}
}

// ParseFlags fills Config from the command line and HARMETRICS_* environment variables.
func ParseFlags(args []string) error {
	c := DefaultConfig()
	fs := flag.NewFlagSetWithEnvPrefix(os.Args[0], EnvPrefix, flag.ContinueOnError)

	fs.StringVar(&c.ApiKey, "api-key", c.ApiKey, "metrics collector API key")
	fs.StringVar(&c.Endpoint, "endpoint", c.Endpoint, "metrics collector URL")
	fs.BoolVar(&c.Development, "development", c.Development, "mark delivered entries as development traffic")
	fs.IntVar(&c.BufferLength, "buffer-length", c.BufferLength, "entries accumulated before a delivery")
	fs.StringVar(&c.RedactFields, "redact-fields", c.RedactFields, "comma separated list of header, cookie and JSON body fields to redact")
	fs.BoolVar(&c.RedactCaseInsensitive, "redact-case-insensitive", c.RedactCaseInsensitive, "match redacted field names ignoring case")
	fs.BoolVar(&c.RedactRecursive, "redact-recursive", c.RedactRecursive, "redact nested JSON body keys, not only top level ones")
	fs.StringVar(&c.PolicyFile, "policy-file", c.PolicyFile, "YAML redaction policy file, overrides redact-* flags")
	fs.BoolVar(&c.WatchPolicy, "watch-policy", c.WatchPolicy, "reload the policy file when it changes")
	fs.StringVar(&c.Sinks, "sinks", c.Sinks, "comma separated list of sinks: collector,file,s3,redis,kafka,stats,cloudwatch")
	fs.StringVar(&c.OutputFolder, "output-folder", c.OutputFolder, "har files output folder")
	fs.StringVar(&c.S3BucketName, "s3-bucket", c.S3BucketName, "s3 bucket for har archives")
	fs.StringVar(&c.AWSRegion, "aws-region", c.AWSRegion, "aws region for s3 and cloudwatch")
	fs.StringVar(&c.CloudWatchNamespace, "cloudwatch-namespace", c.CloudWatchNamespace, "cloudwatch metrics namespace")
	fs.DurationVar(&c.CloudWatchInterval, "cloudwatch-interval", c.CloudWatchInterval, "cloudwatch metrics publish interval")
	fs.StringVar(&c.RedisAddress, "redis-address", c.RedisAddress, "redis host:port")
	fs.StringVar(&c.RedisChannel, "redis-channel", c.RedisChannel, "redis channel to publish har logs to")
	fs.StringVar(&c.KafkaBrokers, "kafka-brokers", c.KafkaBrokers, "comma separated list of kafka seed brokers")
	fs.StringVar(&c.KafkaTopic, "kafka-topic", c.KafkaTopic, "kafka topic to produce har logs to")
	fs.IntVar(&c.MaxBodySize, "max-body-size", c.MaxBodySize, "bytes of each request and response body kept in the HAR entry, 0 keeps everything")
	fs.StringVar(&c.IdentityHeader, "identity-header", c.IdentityHeader, "request header naming the caller, sent as the entry group id")
	fs.StringVar(&c.ListenAddress, "listen", c.ListenAddress, "proxy listen address")
	fs.StringVar(&c.UpstreamURL, "upstream", c.UpstreamURL, "upstream URL the proxy forwards to")
	fs.IntVar(&c.DeliveryWorkers, "delivery-workers", c.DeliveryWorkers, "concurrent delivery workers")
	fs.IntVar(&c.DeliveryQueueSize, "delivery-queue-size", c.DeliveryQueueSize, "batches waiting for delivery before new ones are dropped")
	fs.DurationVar(&c.DeliveryTimeout, "delivery-timeout", c.DeliveryTimeout, "timeout of a single collector POST")
	fs.DurationVar(&c.StatsInterval, "stats-interval", c.StatsInterval, "delivery statistics print interval")
	fs.DurationVar(&c.AggregatedLogInterval, "aggregated-log-interval", c.AggregatedLogInterval, "aggregated warnings print interval")
	fs.StringVar(&c.CreatorName, "creator-name", c.CreatorName, "HAR creator name")
	fs.StringVar(&c.CreatorVersion, "creator-version", c.CreatorVersion, "HAR creator version")
	fs.IntVar(&c.Verbose, "verbose", c.Verbose, "print verbose information 0=nothing 5=all")

	err := fs.Parse(args)
	if err != nil {
		return fmt.Errorf("parse flags failed: %w", err)
	}

	err = Validate(&c)
	if err != nil {
		return err
	}

	Config = c
	InitLog(c.Verbose)

	marshal, err := sonic.Marshal(redacted(c))
	if err != nil {
		return fmt.Errorf("marshal config failed: %w", err)
	}
	V5("V5 mode activated")
	V5("common configuration loaded: %v", string(marshal))
	return nil
}

func Validate(c *Configuration) error {
	if c.BufferLength < 1 {
		return fmt.Errorf("buffer-length must be positive, got %v", c.BufferLength)
	}
	if c.DeliveryWorkers < 1 {
		return fmt.Errorf("delivery-workers must be positive, got %v", c.DeliveryWorkers)
	}
	if c.MaxBodySize < 0 {
		return fmt.Errorf("max-body-size must not be negative, got %v", c.MaxBodySize)
	}
	if c.DeliveryQueueSize < 0 {
		return fmt.Errorf("delivery-queue-size must not be negative, got %v", c.DeliveryQueueSize)
	}
	return nil
}

func redacted(c Configuration) Configuration {
	if c.ApiKey != "" {
		c.ApiKey = "[REDACTED]"
	}
	return c
}
