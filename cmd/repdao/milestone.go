package main

import (
	"github.com/spf13/cobra"

	"github.com/calehh/rep-dao/tx"
)

var milestoneCmd = &cobra.Command{
	Use:   "milestone",
	Short: "Drive the milestones of a funded project",
}

type projectArguments struct {
	txArguments
	Project uint64
}

func projectFlags(cmd *cobra.Command, args *projectArguments) {
	txFlags(cmd, &args.txArguments)
	cmd.Flags().Uint64VarP(&args.Project, "project", "p", 0, "project index")
}

type analysisArguments struct {
	projectArguments
	Unfavorable     bool
	Recommendations map[string]string
}

type extendArguments struct {
	projectArguments
	Timeout uint64
}

var (
	claimMilestoneArgs projectArguments
	checkMilestoneArgs projectArguments
	analysisArgs       analysisArguments
	extendArgs         extendArguments
)

var claimMilestoneCmd = &cobra.Command{
	Use:   "claim",
	Short: "Report the active milestone as done",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(&claimMilestoneArgs.txArguments, tx.DAOTxTypeClaimMilestone,
			&tx.ProjectRefTx{Project: claimMilestoneArgs.Project})
	},
}

var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Submit the analysis of a claimed milestone and open its acceptance vote",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(&analysisArgs.txArguments, tx.DAOTxTypeSubmitMilestoneAnalysis, &tx.SubmitMilestoneAnalysisTx{
			Project:         analysisArgs.Project,
			IsFavorable:     !analysisArgs.Unfavorable,
			Recommendations: analysisArgs.Recommendations,
		})
	},
}

var checkMilestoneCmd = &cobra.Command{
	Use:   "check",
	Short: "Mark the active milestone as timed out when its deadline passed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(&checkMilestoneArgs.txArguments, tx.DAOTxTypeCheckMilestoneTimeout,
			&tx.ProjectRefTx{Project: checkMilestoneArgs.Project})
	},
}

var extendCmd = &cobra.Command{
	Use:   "extend",
	Short: "Move the deadline of the active milestone",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(&extendArgs.txArguments, tx.DAOTxTypeExtendMilestoneDeadline, &tx.ExtendMilestoneDeadlineTx{
			Project: extendArgs.Project,
			Timeout: extendArgs.Timeout,
		})
	},
}

func init() {
	projectFlags(claimMilestoneCmd, &claimMilestoneArgs)
	projectFlags(checkMilestoneCmd, &checkMilestoneArgs)
	projectFlags(analysisCmd, &analysisArgs.projectArguments)
	analysisCmd.Flags().BoolVar(&analysisArgs.Unfavorable, "unfavorable", false, "the milestone does not meet its goals")
	analysisCmd.Flags().StringToStringVar(&analysisArgs.Recommendations, "recommendation", nil, "analysis recommendation as topic=text, repeatable")
	projectFlags(extendCmd, &extendArgs.projectArguments)
	extendCmd.Flags().Uint64Var(&extendArgs.Timeout, "timeout", 0, "new deadline, unix seconds")
	_ = extendCmd.MarkFlagRequired("timeout")

	milestoneCmd.AddCommand(claimMilestoneCmd, analysisCmd, checkMilestoneCmd, extendCmd)
}
