package main

import (
	"encoding/hex"

	"github.com/spf13/cobra"

	"github.com/calehh/rep-dao/tx"
	"github.com/calehh/rep-dao/types"
)

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Administer members and reputation",
}

type memberArguments struct {
	txArguments
	Account string
	PubKey  string
	Amount  string
}

func memberFlags(cmd *cobra.Command, args *memberArguments) {
	txFlags(cmd, &args.txArguments)
	cmd.Flags().StringVarP(&args.Account, "account", "a", "", "account hash")
}

func (a *memberArguments) account() (types.AccountHash, error) {
	if a.Account == "" && a.PubKey != "" {
		pk, err := hex.DecodeString(a.PubKey)
		if err != nil {
			return types.AccountHash{}, err
		}
		return types.AccountFromPubKey(pk), nil
	}
	return parseAccount(a.Account)
}

var (
	addMemberArgs    memberArguments
	removeMemberArgs memberArguments
	mintArgs         memberArguments
	burnArgs         memberArguments
)

var addMemberCmd = &cobra.Command{
	Use:   "add",
	Short: "Grant membership, registering the account when --pubkey is given",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := addMemberArgs.account()
		if err != nil {
			return err
		}
		mtx := &tx.MemberTx{Account: addr}
		if addMemberArgs.PubKey != "" {
			if mtx.PubKey, err = hex.DecodeString(addMemberArgs.PubKey); err != nil {
				return err
			}
		}
		return sendTx(&addMemberArgs.txArguments, tx.DAOTxTypeAddMember, mtx)
	},
}

var removeMemberCmd = &cobra.Command{
	Use:   "remove",
	Short: "Revoke membership",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := removeMemberArgs.account()
		if err != nil {
			return err
		}
		return sendTx(&removeMemberArgs.txArguments, tx.DAOTxTypeRemoveMember, &tx.MemberTx{Account: addr})
	},
}

func amountCmd(use, short string, args *memberArguments, typ tx.DAOTxType) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, err := args.account()
			if err != nil {
				return err
			}
			return sendTx(&args.txArguments, typ, &tx.AmountTx{Account: addr, Amount: args.Amount})
		},
	}
	memberFlags(cmd, args)
	cmd.Flags().StringVar(&args.Amount, "amount", "", "reputation amount")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func init() {
	memberFlags(addMemberCmd, &addMemberArgs)
	addMemberCmd.Flags().StringVar(&addMemberArgs.PubKey, "pubkey", "", "hex ed25519 public key of the new member")
	memberFlags(removeMemberCmd, &removeMemberArgs)

	memberCmd.AddCommand(
		addMemberCmd,
		removeMemberCmd,
		amountCmd("mint", "Mint reputation to an account", &mintArgs, tx.DAOTxTypeMint),
		amountCmd("burn", "Burn free reputation of an account", &burnArgs, tx.DAOTxTypeBurn),
	)
}
