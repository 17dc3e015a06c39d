package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cometbft/cometbft/rpc/client/http"

	"github.com/calehh/rep-dao/crypto"
	"github.com/calehh/rep-dao/state"
	"github.com/calehh/rep-dao/tx"
	"github.com/calehh/rep-dao/types"
)

func newClient(url string) (*http.HTTP, error) {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	return cli, nil
}

func query(ctx context.Context, cli *http.HTTP, path string) ([]byte, error) {
	res, err := cli.ABCIQuery(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	if res.Response.Code != 0 {
		if res.Response.Log != "" {
			return nil, errors.New(res.Response.Log)
		}
		return nil, fmt.Errorf("query %s: code %d", path, res.Response.Code)
	}
	return res.Response.Value, nil
}

func queryAccount(ctx context.Context, cli *http.HTTP, addr types.AccountHash) (*state.Account, error) {
	dat, err := query(ctx, cli, "/accounts/"+addr.Hex())
	if err != nil {
		return nil, err
	}
	var act state.Account
	if err := act.UnmarshalJSON(dat); err != nil {
		return nil, err
	}
	return &act, nil
}

// sendTx signs a transaction of type typ carrying payload with the key in
// args.Skey and broadcasts it.
func sendTx(args *txArguments, typ tx.DAOTxType, payload any) error {
	cli, err := newClient(args.Url)
	if err != nil {
		return err
	}
	ctx := context.Background()
	gres, err := cli.Genesis(ctx)
	if err != nil {
		return fmt.Errorf("get chain genesis: %w", err)
	}
	pv, err := crypto.LoadFilePV(args.Skey)
	if err != nil {
		return err
	}
	btx := &tx.DAOTx{
		Version: tx.DAOTxVersion0,
		Type:    typ,
		Tx:      payload,
	}
	if args.Nonce >= 0 {
		btx.Nonce = uint64(args.Nonce)
	} else {
		act, err := queryAccount(ctx, cli, pv.Account())
		if err != nil {
			return fmt.Errorf("query sender %v: %w", pv.Account(), err)
		}
		btx.Nonce = act.Nonce
	}
	if err := pv.SignTx(btx, gres.Genesis.ChainID); err != nil {
		return fmt.Errorf("sign tx: %w", err)
	}
	dat, err := tx.MarshalDAOTx(btx)
	if err != nil {
		return err
	}
	if args.NoSend {
		fmt.Println(string(dat))
		return nil
	}
	res, err := cli.BroadcastTxSync(ctx, dat)
	if err != nil {
		return fmt.Errorf("broadcast tx: %w", err)
	}
	out, _ := json.Marshal(res)
	fmt.Println(string(out))
	if res.Code != 0 {
		return fmt.Errorf("tx rejected: %s", res.Log)
	}
	return nil
}
