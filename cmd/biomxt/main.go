// Command biomxt converts delimited-text matrices to the BMXt binary
// container format and inspects existing BMXt files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "biomxt",
		Short:         "Convert and inspect BMXt matrix files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newConvertCommand())
	root.AddCommand(newHeaderCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "biomxt:", err)
		os.Exit(1)
	}
}
