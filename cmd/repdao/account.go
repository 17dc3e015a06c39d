package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calehh/rep-dao/crypto"
	"github.com/calehh/rep-dao/types"
)

func parseAccount(s string) (types.AccountHash, error) {
	return types.ParseAccountHash(s)
}

type accountArguments struct {
	Url     string
	Address string
	Skey    string
}

var accountArgs accountArguments

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show an account, by default the one of the local key",
	RunE:  accountRun,
}

func init() {
	urlFlag(accountCmd, &accountArgs.Url)
	keyFlag(accountCmd, &accountArgs.Skey)
	accountCmd.Flags().StringVarP(&accountArgs.Address, "address", "a", "", "account hash")
	keyFlag(pubkeyCmd, &pubkeyArgs.Skey)
	accountCmd.AddCommand(pubkeyCmd)
}

func accountRun(cmd *cobra.Command, args []string) error {
	var addr types.AccountHash
	if accountArgs.Address != "" {
		var err error
		if addr, err = parseAccount(accountArgs.Address); err != nil {
			return err
		}
	} else {
		pv, err := crypto.LoadFilePV(accountArgs.Skey)
		if err != nil {
			return err
		}
		addr = pv.Account()
	}
	cli, err := newClient(accountArgs.Url)
	if err != nil {
		return err
	}
	act, err := queryAccount(context.Background(), cli, addr)
	if err != nil {
		return err
	}
	fmt.Printf("addr:%v nonce:%v balance:%v committed:%v member:%v pk:%x\n",
		act.Address.Hex(), act.Nonce, act.Balance.Dec(), act.Committed.Dec(), act.Member, act.PubKey)
	return nil
}

type pubkeyArguments struct {
	Skey string
}

var pubkeyArgs pubkeyArguments

var pubkeyCmd = &cobra.Command{
	Use:   "pk",
	Short: "Print the public key and account hash of the local key",
	RunE: func(cmd *cobra.Command, args []string) error {
		pv, err := crypto.LoadFilePV(pubkeyArgs.Skey)
		if err != nil {
			return err
		}
		fmt.Println("pubkey:", hex.EncodeToString(pv.PublicKey()))
		fmt.Println("account:", pv.Account().Hex())
		return nil
	},
}

type queryArguments struct {
	Url string
}

var queryArgs queryArguments

var queryCmd = &cobra.Command{
	Use:   "query <path>",
	Short: "Query application state, e.g. /proposals/0, /votes/1, /projects/0, /params",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := newClient(queryArgs.Url)
		if err != nil {
			return err
		}
		dat, err := query(context.Background(), cli, args[0])
		if err != nil {
			return err
		}
		var out bytes.Buffer
		if err := json.Indent(&out, dat, "", "  "); err != nil {
			fmt.Println(string(dat))
			return nil
		}
		fmt.Println(out.String())
		return nil
	},
}

func init() {
	urlFlag(queryCmd, &queryArgs.Url)
}
