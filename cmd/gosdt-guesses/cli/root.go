package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// Execute runs the gosdt-guesses CLI and returns an error if any command
// fails.
func Execute() error {
	root := &cobra.Command{
		Use:          "gosdt-guesses",
		Short:        "gosdt-guesses fits a globally-optimal sparse decision tree",
		Long:         "gosdt-guesses runs the branch-and-bound decision-tree solver against a binarized dataset and prints (or writes) the resulting model.",
		SilenceUsage: true,
	}

	root.AddCommand(newFitCmd())

	return root.ExecuteContext(context.Background())
}
