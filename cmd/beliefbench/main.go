// Command beliefbench runs a single belief-probability measurement recipe
// from the command line and reports its exit code per the run's failure kind.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AltairaLabs/beliefbench/errs"
	"github.com/AltairaLabs/beliefbench/version"
)

var rootCmd = &cobra.Command{
	Use:   "beliefbench",
	Short: "Measure a language model's belief probability that a claim is true",
	Long: `beliefbench runs the deterministic sampling, compliance filtering, and
clustered-bootstrap aggregation that turn many paraphrased, replicated model
calls into a single calibrated probability with a confidence interval.`,
}

func main() {
	version.LogStartup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "beliefbench: %v\n", err)
		os.Exit(errs.ExitCode(err))
	}
}
