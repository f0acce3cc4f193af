package exporters

import (
	"fmt"
	"strings"

	"github.com/alonana/harmetrics/core"
	"github.com/alonana/harmetrics/har"
	"github.com/alonana/harmetrics/transport"
)

// CreateProcessor builds a processor with the sinks named in c.Sinks. The collector
// sink posts through t; publisher backs the cloudwatch sink.
func CreateProcessor(c *core.Configuration, reporter Warner, t transport.Transport, publisher core.MetricPublisher) (*Processor, error) {
	creator := har.Creator{
		Name:    c.CreatorName,
		Version: c.CreatorVersion,
	}
	processor := NewProcessor(creator, c.DeliveryWorkers, c.DeliveryQueueSize, reporter)

	names := strings.Split(c.Sinks, ",")
	for i := 0; i < len(names); i++ {
		name := strings.TrimSpace(names[i])
		switch name {
		case "":
			continue
		case "collector":
			if c.ApiKey == "" {
				core.Warn("collector sink has no api key configured")
			}
			collector := &Collector{
				Endpoint:    c.Endpoint,
				ApiKey:      c.ApiKey,
				Development: c.Development,
				Transport:   t,
			}
			processor.AddSink(name, collector.Process, nil)
		case "file":
			fileSink := &FileSink{OutputFolder: c.OutputFolder}
			processor.AddSink(name, fileSink.Process, nil)
		case "s3":
			s3Sink, err := NewS3Sink(c.AWSRegion, c.S3BucketName)
			if err != nil {
				processor.stopSinks()
				return nil, err
			}
			processor.AddSink(name, s3Sink.Process, nil)
		case "redis":
			redisSink := NewRedisSink(c.RedisAddress, c.RedisChannel)
			processor.AddSink(name, redisSink.Process, redisSink.Stop)
		case "kafka":
			kafkaSink, err := NewKafkaSink(c.KafkaBrokers, c.KafkaTopic, c.DeliveryTimeout)
			if err != nil {
				processor.stopSinks()
				return nil, err
			}
			processor.AddSink(name, kafkaSink.Process, kafkaSink.Stop)
		case "stats":
			stats := NewSitesStats(c.StatsInterval)
			stats.Start()
			processor.AddSink(name, stats.Process, stats.Stop)
		case "cloudwatch":
			if publisher == nil {
				processor.stopSinks()
				return nil, fmt.Errorf("cloudwatch sink requires a metric publisher")
			}
			cloudWatch := NewCloudWatchStats(c.CloudWatchInterval, publisher)
			cloudWatch.Start()
			processor.AddSink(name, cloudWatch.Process, cloudWatch.Stop)
		default:
			processor.stopSinks()
			return nil, fmt.Errorf("unknown sink %v", name)
		}
	}
	return processor, nil
}
