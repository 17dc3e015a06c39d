package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"

	"github.com/calehh/rep-dao/state"
	"github.com/calehh/rep-dao/tx"
	"github.com/calehh/rep-dao/types"
)

func claimReputation(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	vtx, err := payload[tx.VoteRefTx](btx)
	if err != nil {
		return nil, err
	}
	session, err := st.GetVote(vtx.Vote)
	if err != nil {
		return nil, err
	}
	e, err := session.ClaimReputation(btx.Sender)
	if err != nil {
		return nil, err
	}
	if err := st.Unlock(btx.Sender, e.Stake); err != nil {
		return nil, err
	}
	reward := e.Share
	reward.Add(&reward, &e.Bonus)
	if !reward.IsZero() {
		escrow := session.Escrow
		if escrow == (types.AccountHash{}) {
			escrow = st.Params().VotingEngineAddress
		}
		if err := st.Transfer(escrow, btx.Sender, reward); err != nil {
			return nil, err
		}
	}
	if err := st.SetVote(vtx.Vote, session); err != nil {
		return nil, err
	}
	return []abcitypes.Event{types.EncodeEventReputationClaim(&types.EventReputationClaim{
		Vote:  vtx.Vote,
		Voter: btx.Sender,
		Stake: e.Stake.Dec(),
		Share: e.Share.Dec(),
		Bonus: e.Bonus.Dec(),
	})}, nil
}

func refundStake(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	vtx, err := payload[tx.VoteRefTx](btx)
	if err != nil {
		return nil, err
	}
	session, err := st.GetVote(vtx.Vote)
	if err != nil {
		return nil, err
	}
	stake, err := session.GetStake(btx.Sender)
	if err != nil {
		return nil, err
	}
	if err := st.Unlock(btx.Sender, stake); err != nil {
		return nil, err
	}
	if err := st.SetVote(vtx.Vote, session); err != nil {
		return nil, err
	}
	return []abcitypes.Event{types.EncodeEventReputationClaim(&types.EventReputationClaim{
		Vote:   vtx.Vote,
		Voter:  btx.Sender,
		Stake:  stake.Dec(),
		Share:  "0",
		Bonus:  "0",
		Refund: true,
	})}, nil
}
