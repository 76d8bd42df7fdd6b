// quitsyncd is the offline sync daemon for the smoke-free tracker. It keeps
// a durable queue of writes made while disconnected and reconciles them
// against the remote document store when connectivity returns.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time.
var version = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "quitsyncd",
		Short:        "Offline sync daemon for the smoke-free tracker",
		SilenceUsage: true,
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newQueueCommand())
	cmd.AddCommand(newRecordCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the daemon version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("quitsyncd v%s\n", version)
		},
	}
}
