// Command packctl is the CLI front-end for building and inspecting
// packfs pack files: "pack" seals a descriptor document's sources into a
// pack, "exec" resolves a logical path inside an existing pack and hands
// it to an Executor (actual execution is an out-of-scope collaborator).
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/worldiety/packfs/internal/packerr"
	"github.com/worldiety/packfs/internal/plog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "packctl",
		Short:         "build and inspect packfs pack files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			plog.SetDebug(verbose)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(newPackCmd(), newExecCmd())
	return root
}

func printError(err error) {
	var pe *packerr.Error
	if errors.As(err, &pe) {
		fmt.Fprintln(os.Stderr, pe.Error())
		return
	}
	fmt.Fprintf(os.Stderr, "packctl: %s\n", err)
}
