package cli

import (
	"fmt"
	"os"

	"github.com/alonana/harmetrics/builder"
	"github.com/alonana/harmetrics/core"
	"github.com/alonana/harmetrics/filter"
	"github.com/alonana/harmetrics/har"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	redactFields          string
	redactPolicyFile      string
	redactCaseInsensitive bool
	redactRecursive       bool
	redactOutput          string
)

var redactCmd = &cobra.Command{
	Use:   "redact <file>",
	Short: "Re-apply a redaction policy to a HAR file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := redactFilter()
		if err != nil {
			return err
		}

		h, err := readHar(args[0])
		if err != nil {
			return err
		}
		redacted := redactHar(h, f)

		data, err := har.Marshal(redacted)
		if err != nil {
			return err
		}
		if redactOutput == "" || redactOutput == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		err = core.SaveToFile(redactOutput, data)
		if err != nil {
			return err
		}
		pterm.Success.Printfln("%v entries redacted into %v", len(redacted.Log.Entries), redactOutput)
		return nil
	},
}

func redactFilter() (*filter.Filter, error) {
	if redactPolicyFile != "" {
		policy, err := filter.LoadPolicyFile(redactPolicyFile)
		if err != nil {
			return nil, err
		}
		return filter.New(policy), nil
	}
	if redactFields == "" {
		return nil, fmt.Errorf("either --fields or --policy-file must be supplied")
	}

	c := core.DefaultConfig()
	c.RedactFields = redactFields
	c.RedactCaseInsensitive = redactCaseInsensitive
	c.RedactRecursive = redactRecursive
	return filter.New(filter.PolicyFromConfig(&c)), nil
}

func redactHar(h *har.Har, f *filter.Filter) *har.Har {
	entries := make([]har.Entry, len(h.Log.Entries))
	for i := 0; i < len(h.Log.Entries); i++ {
		entries[i] = builder.Redact(h.Log.Entries[i], f)
	}
	return har.New(h.Log.Creator, entries)
}

func init() {
	redactCmd.Flags().StringVar(&redactFields, "fields", "", "comma separated list of fields to redact")
	redactCmd.Flags().StringVar(&redactPolicyFile, "policy-file", "", "YAML redaction policy file")
	redactCmd.Flags().BoolVar(&redactCaseInsensitive, "case-insensitive", true, "match field names ignoring case")
	redactCmd.Flags().BoolVar(&redactRecursive, "recursive", false, "redact nested JSON body keys")
	redactCmd.Flags().StringVarP(&redactOutput, "write", "w", "", "output file, stdout when empty")
	rootCmd.AddCommand(redactCmd)
}
