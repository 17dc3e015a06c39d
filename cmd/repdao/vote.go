package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calehh/rep-dao/tx"
	"github.com/calehh/rep-dao/voting"
)

type voteArguments struct {
	txArguments
	Vote    uint64
	Stake   string
	Against bool
}

var voteArgs voteArguments

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Stake reputation for or against a vote",
	RunE: func(cmd *cobra.Command, args []string) error {
		direction := voting.For
		if voteArgs.Against {
			direction = voting.Against
		}
		return sendTx(&voteArgs.txArguments, tx.DAOTxTypeCastVote, &tx.CastVoteTx{
			Vote:      voteArgs.Vote,
			Stake:     voteArgs.Stake,
			Direction: uint8(direction),
		})
	},
}

func init() {
	txFlags(voteCmd, &voteArgs.txArguments)
	voteCmd.Flags().Uint64VarP(&voteArgs.Vote, "vote", "v", 0, "vote index")
	voteCmd.Flags().StringVar(&voteArgs.Stake, "stake", "", "reputation to stake")
	voteCmd.Flags().BoolVar(&voteArgs.Against, "against", false, "vote against")
	_ = voteCmd.MarkFlagRequired("stake")
}

type voteRefArguments struct {
	txArguments
	Vote uint64
}

func voteRefCmd(use, short string, typ tx.DAOTxType) *cobra.Command {
	var args voteRefArguments
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("vote") {
				return fmt.Errorf("--vote is required")
			}
			return sendTx(&args.txArguments, typ, &tx.VoteRefTx{Vote: args.Vote})
		},
	}
	txFlags(cmd, &args.txArguments)
	cmd.Flags().Uint64VarP(&args.Vote, "vote", "v", 0, "vote index")
	return cmd
}

var (
	finalizeCmd = voteRefCmd("finalize", "Compute the outcome of a vote and apply it", tx.DAOTxTypeFinalizeVote)
	claimCmd    = voteRefCmd("claim", "Claim stake and reputation from a decided vote", tx.DAOTxTypeClaimReputation)
	refundCmd   = voteRefCmd("refund", "Take back the stake of a failed vote", tx.DAOTxTypeRefundStake)
)
