package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"

	"github.com/calehh/rep-dao/state"
	"github.com/calehh/rep-dao/tx"
	"github.com/calehh/rep-dao/types"
)

// addMember registers the key in PubKey when the account is new and grants
// membership. Account may be left empty when PubKey is given.
func addMember(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	mtx, err := payload[tx.MemberTx](btx)
	if err != nil {
		return nil, err
	}
	if !st.Params().IsAdmin(btx.Sender) {
		return nil, state.ErrNotAdmin
	}
	addr := mtx.Account
	if len(mtx.PubKey) > 0 {
		addr = types.AccountFromPubKey(mtx.PubKey)
		a, err := st.GetAccount(addr)
		if err != nil {
			return nil, err
		}
		if a == nil {
			if _, err := st.AddAccount(mtx.PubKey); err != nil {
				return nil, err
			}
		}
	}
	if err := st.AddMember(btx.Sender, addr); err != nil {
		return nil, err
	}
	return []abcitypes.Event{types.EncodeEventMember(&types.EventMember{Action: "add", Account: addr})}, nil
}

func removeMember(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	mtx, err := payload[tx.MemberTx](btx)
	if err != nil {
		return nil, err
	}
	if err := st.RemoveMember(btx.Sender, mtx.Account); err != nil {
		return nil, err
	}
	return []abcitypes.Event{types.EncodeEventMember(&types.EventMember{Action: "remove", Account: mtx.Account})}, nil
}

func mint(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	atx, err := payload[tx.AmountTx](btx)
	if err != nil {
		return nil, err
	}
	amount, err := tx.Amount(atx.Amount)
	if err != nil {
		return nil, err
	}
	if err := st.Mint(btx.Sender, atx.Account, amount); err != nil {
		return nil, err
	}
	return []abcitypes.Event{types.EncodeEventMember(&types.EventMember{
		Action:  "mint",
		Account: atx.Account,
		Amount:  amount.Dec(),
	})}, nil
}

func burn(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	atx, err := payload[tx.AmountTx](btx)
	if err != nil {
		return nil, err
	}
	amount, err := tx.Amount(atx.Amount)
	if err != nil {
		return nil, err
	}
	if err := st.Burn(btx.Sender, atx.Account, amount); err != nil {
		return nil, err
	}
	return []abcitypes.Event{types.EncodeEventMember(&types.EventMember{
		Action:  "burn",
		Account: atx.Account,
		Amount:  amount.Dec(),
	})}, nil
}
