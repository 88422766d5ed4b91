package version

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

const jsonFlag = "json"

// CommandVersion reports the build of binaryName, as text or with --json
// as one object for deployment tooling.
func CommandVersion(binaryName string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "version",
		Short:   "Show the relayer build and the toolchain it was built with",
		Example: fmt.Sprintf("%s version --json", binaryName),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := BuildInfo()

			asJSON, err := cmd.Flags().GetBool(jsonFlag)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")

				return enc.Encode(info)
			}

			cmd.Printf("%s %s\n", binaryName, info.Version)
			cmd.Printf("commit:      %s (modified: %t)\n", info.Commit, info.Modified)
			cmd.Printf("commit time: %s\n", info.CommitTime)
			cmd.Printf("go:          %s %s\n", info.GoVersion, info.Platform)

			return nil
		},
	}
	cmd.Flags().Bool(jsonFlag, false, "Print the build info as JSON")

	return cmd
}

// AddVersionCommand adds the version command to cmd.
func AddVersionCommand(cmd *cobra.Command, binaryName string) {
	cmd.AddCommand(CommandVersion(binaryName))
}
