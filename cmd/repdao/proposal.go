package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calehh/rep-dao/tx"
)

type proposalArguments struct {
	txArguments
	File string
}

var proposalArgs proposalArguments

var proposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Create a grant proposal from a JSON file",
	Long: `Create a grant proposal. The file holds the proposal fields, e.g.

  {"name": "bridge", "cost": "1000", "threshold": 50, "timeout": 1735689600,
   "policingRatio": 20, "memberQuorum": 3, "reputationQuorum": "100",
   "voterStakingLimit": 10, "stakedRep": "50",
   "milestones": [{"progressPercentage": 100, "timeout": 1738368000,
                   "tranches": [{"amount": "1000"}]}]}`,
	RunE: proposalRun,
}

func init() {
	txFlags(proposalCmd, &proposalArgs.txArguments)
	proposalCmd.Flags().StringVarP(&proposalArgs.File, "file", "f", "", "proposal JSON file")
	_ = proposalCmd.MarkFlagRequired("file")
}

func proposalRun(cmd *cobra.Command, args []string) error {
	dat, err := os.ReadFile(proposalArgs.File)
	if err != nil {
		return err
	}
	var ptx tx.CreateProposalTx
	if err := json.Unmarshal(dat, &ptx); err != nil {
		return fmt.Errorf("decode %s: %w", proposalArgs.File, err)
	}
	return sendTx(&proposalArgs.txArguments, tx.DAOTxTypeCreateProposal, &ptx)
}

type governanceArguments struct {
	txArguments
	tx.CreateGovernanceProposalTx
	RepositoryAddress string
}

var governanceArgs governanceArguments

var governanceCmd = &cobra.Command{
	Use:   "governance",
	Short: "Propose a change of a chain parameter",
	RunE:  governanceRun,
}

func init() {
	txFlags(governanceCmd, &governanceArgs.txArguments)
	f := governanceCmd.Flags()
	g := &governanceArgs.CreateGovernanceProposalTx
	f.StringVar(&g.Name, "name", "", "proposal name")
	f.StringVar(&g.Repository, "repository", "", "repository of the proposal text")
	f.StringVar(&governanceArgs.RepositoryAddress, "repository-address", "", "proposal repository account hash")
	f.StringVar(&g.TransitionVoteQuorum, "transition-quorum", "0", "transition vote reputation quorum")
	f.Uint8Var(&g.TransitionVoteThreshold, "transition-threshold", 50, "transition vote threshold percentage")
	f.StringVar(&g.FullVoteQuorum, "quorum", "0", "full vote reputation quorum")
	f.Uint8Var(&g.FullVoteThreshold, "threshold", 50, "full vote threshold percentage")
	f.Uint64Var(&g.Timeout, "timeout", 0, "vote deadline, unix seconds")
	f.StringVar(&g.ParameterName, "param", "", "parameter name")
	f.StringVar(&g.ParameterValue, "value", "", "new parameter value")
	f.StringVar(&g.StakedRep, "stake", "0", "reputation staked by the proposer")
	_ = governanceCmd.MarkFlagRequired("param")
	_ = governanceCmd.MarkFlagRequired("value")
	_ = governanceCmd.MarkFlagRequired("timeout")
}

func governanceRun(cmd *cobra.Command, args []string) error {
	g := governanceArgs.CreateGovernanceProposalTx
	if governanceArgs.RepositoryAddress != "" {
		addr, err := parseAccount(governanceArgs.RepositoryAddress)
		if err != nil {
			return err
		}
		g.ProposalRepositoryAddress = addr
	}
	return sendTx(&governanceArgs.txArguments, tx.DAOTxTypeCreateGovernanceProposal, &g)
}
