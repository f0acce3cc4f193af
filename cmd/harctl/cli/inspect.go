package cli

import (
	"fmt"
	"strconv"

	"github.com/alonana/harmetrics/har"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var inspectLimit int

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "List the entries of a HAR file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := readHar(args[0])
		if err != nil {
			return err
		}

		pterm.Info.Printfln("%v %v, HAR %v, %v entries", h.Log.Creator.Name, h.Log.Creator.Version, h.Log.Version, len(h.Log.Entries))
		if len(h.Log.Entries) == 0 {
			return nil
		}
		return pterm.DefaultTable.WithHasHeader().WithData(entriesTable(h.Log.Entries, inspectLimit)).Render()
	},
}

func entriesTable(entries []har.Entry, limit int) pterm.TableData {
	data := pterm.TableData{{"#", "Started", "Method", "Status", "Time", "Size", "URL"}}
	for i, entry := range entries {
		if limit > 0 && i >= limit {
			break
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			entry.Started,
			entry.Request.Method,
			fmt.Sprintf("%v %v", entry.Response.Status, entry.Response.StatusText),
			fmt.Sprintf("%vms", entry.Time),
			strconv.Itoa(entry.Response.BodySize),
			entry.Request.Url,
		})
	}
	return data
}

func init() {
	inspectCmd.Flags().IntVarP(&inspectLimit, "limit", "n", 0, "show at most n entries, 0 for all")
	rootCmd.AddCommand(inspectCmd)
}
