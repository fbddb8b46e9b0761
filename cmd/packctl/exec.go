package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/worldiety/packfs"
)

// Executor is handed the resolved entry point's stream by runExec. The
// real execution behavior is a caller-supplied, out-of-scope
// collaborator; packctl itself only wires the plumbing up to this point.
type Executor interface {
	Execute(entry string, r io.Reader) error
}

// stdoutExecutor is the stand-in Executor packctl ships with: it proves
// the entry point resolves and is readable, without running anything.
type stdoutExecutor struct{}

func (stdoutExecutor) Execute(entry string, r io.Reader) error {
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "packctl: resolved entry %s (%d bytes)\n", entry, n)
	return nil
}

func newExecCmd() *cobra.Command {
	var entry string

	cmd := &cobra.Command{
		Use:   "exec <pack-file>",
		Short: "resolve an entry point inside a pack and hand it to an executor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(args[0], entry, stdoutExecutor{})
		},
	}
	cmd.Flags().StringVarP(&entry, "exec", "e", "", "logical path of the entry point to execute")
	cmd.MarkFlagRequired("exec")
	return cmd
}

func runExec(packFile, entry string, ex Executor) error {
	r := pack.NewReader()
	if err := r.AddFromFile(packFile); err != nil {
		return err
	}
	entryReader, err := r.Open(entry)
	if err != nil {
		return err
	}
	defer entryReader.Close()
	return ex.Execute(entry, entryReader)
}
