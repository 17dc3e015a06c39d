package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "repdao",
	Short: "Reputation-weighted DAO chain",
	Long: `A cometbft chain that runs proposals, reputation staked votes
and milestone funded projects.`,
}

func main() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(proposalCmd)
	rootCmd.AddCommand(governanceCmd)
	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(finalizeCmd)
	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(refundCmd)
	rootCmd.AddCommand(milestoneCmd)
	rootCmd.AddCommand(memberCmd)
	rootCmd.AddCommand(versionCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
