package cli

import (
	"fmt"

	"github.com/alonana/harmetrics/buffer"
	"github.com/alonana/harmetrics/core"
	"github.com/alonana/harmetrics/exporters"
	"github.com/alonana/harmetrics/har"
	"github.com/alonana/harmetrics/transport"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var sendConfig = core.DefaultConfig()

var sendCmd = &cobra.Command{
	Use:   "send <file>",
	Short: "Deliver the entries of a HAR file to the configured sinks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := core.Validate(&sendConfig)
		if err != nil {
			return err
		}

		h, err := readHar(args[0])
		if err != nil {
			return err
		}

		counters, err := sendEntries(&sendConfig, h.Log.Entries, transport.NewFastHTTP(sendConfig.DeliveryTimeout))
		if err != nil {
			return err
		}
		if counters.Failed > 0 {
			pterm.Warning.Printfln("%v entries delivered, %v failed", counters.Delivered, counters.Failed)
			return fmt.Errorf("delivery of %v entries failed", counters.Failed)
		}
		pterm.Success.Printfln("%v entries delivered in batches of %v", counters.Delivered, sendConfig.BufferLength)
		return nil
	},
}

// sendEntries batches entries exactly like the middleware does, but delivers each batch
// synchronously so failures can be reported to the user.
func sendEntries(c *core.Configuration, entries []har.Entry, t transport.Transport) (exporters.Counters, error) {
	processor, err := exporters.CreateProcessor(c, nil, t, nil)
	if err != nil {
		return exporters.Counters{}, err
	}

	b := buffer.New(c.BufferLength, buffer.DelivererFunc(func(batch []har.Entry) {
		err := processor.DeliverNow(batch)
		if err != nil {
			pterm.Error.Printfln("batch of %v entries: %v", len(batch), err)
		}
	}))
	for _, entry := range entries {
		b.Add(entry)
	}
	b.FlushAndReset()

	// stopping a started processor also stops its sinks
	processor.Start()
	processor.Stop()
	return processor.Counters(), nil
}

func init() {
	sendCmd.Flags().StringVar(&sendConfig.Endpoint, "endpoint", sendConfig.Endpoint, "metrics collector URL")
	sendCmd.Flags().StringVar(&sendConfig.ApiKey, "api-key", sendConfig.ApiKey, "metrics collector API key")
	sendCmd.Flags().BoolVar(&sendConfig.Development, "development", sendConfig.Development, "mark entries as development traffic")
	sendCmd.Flags().IntVar(&sendConfig.BufferLength, "buffer-length", sendConfig.BufferLength, "entries per delivered batch")
	sendCmd.Flags().StringVar(&sendConfig.Sinks, "sinks", sendConfig.Sinks, "comma separated list of sinks: collector,file,s3,redis,kafka")
	sendCmd.Flags().StringVar(&sendConfig.OutputFolder, "output-folder", sendConfig.OutputFolder, "har files output folder for the file sink")
	sendCmd.Flags().StringVar(&sendConfig.S3BucketName, "s3-bucket", sendConfig.S3BucketName, "s3 bucket for the s3 sink")
	sendCmd.Flags().StringVar(&sendConfig.RedisAddress, "redis-address", sendConfig.RedisAddress, "redis host:port for the redis sink")
	sendCmd.Flags().StringVar(&sendConfig.KafkaBrokers, "kafka-brokers", sendConfig.KafkaBrokers, "kafka seed brokers for the kafka sink")
	sendCmd.Flags().DurationVar(&sendConfig.DeliveryTimeout, "timeout", sendConfig.DeliveryTimeout, "timeout of a single collector POST")
	rootCmd.AddCommand(sendCmd)
}
