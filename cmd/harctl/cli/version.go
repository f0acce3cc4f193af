package cli

import (
	"fmt"

	"github.com/alonana/harmetrics/core"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

var versionJson bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionJson {
			out, err := sonic.MarshalIndent(map[string]string{"version": core.Version}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}
		fmt.Println(core.Version)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJson, "json", false, "print as JSON")
	rootCmd.AddCommand(versionCmd)
}
