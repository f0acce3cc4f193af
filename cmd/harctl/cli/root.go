package cli

import (
	"fmt"
	"os"

	"github.com/alonana/harmetrics/core"
	"github.com/alonana/harmetrics/har"
	"github.com/spf13/cobra"
)

var verbose int

var rootCmd = &cobra.Command{
	Use:   "harctl",
	Short: "Inspect, redact and deliver HAR files",
	Long: `harctl works with HAR files written by the harmetrics file sink or any other
HAR 1.2 producer.

  harctl inspect <file>                       List the entries of a HAR file
  harctl redact <file> --fields a,b -w out    Re-apply a redaction policy
  harctl send <file> --endpoint URL           Deliver a HAR file to the collector`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		core.InitLog(verbose)
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = core.Version
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.PersistentFlags().IntVarP(&verbose, "verbose", "v", 0, "print verbose information 0=nothing 5=all")
}

func readHar(path string) (*har.Har, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %v failed: %w", path, err)
	}
	return har.Unmarshal(data)
}
