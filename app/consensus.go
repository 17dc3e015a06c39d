package app

import (
	"context"
	"errors"

	abcitypes "github.com/cometbft/cometbft/abci/types"

	"github.com/calehh/rep-dao/state"
	"github.com/calehh/rep-dao/tx"
)

var (
	ErrUnsupportedTx = errors.New("unsupported tx")
)

func (app *DAOApp) getState() (st *state.State) {
	st = app.db.NewState()
	app.st = st
	return
}

func (app *DAOApp) parseTx(st *state.State, txDat []byte, allowNonceGap bool) (btx *tx.DAOTx, err error) {
	btx, err = tx.UnmarshalDAOTx(txDat)
	if err != nil {
		return
	}
	_, err = st.Verify(btx, allowNonceGap)
	return
}

func (app *DAOApp) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	st := app.db.State().Clone()
	btx, err := app.parseTx(st, check.Tx, true)
	if err != nil {
		app.logger.Error("parse tx fail", "err", err)
		res.Code = 1
		res.Log = err.Error()
		err = nil
		return
	}
	app.logger.Debug("check tx", "type", btx.Type, "sender", btx.Sender)
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		app.logger.Error("unsupported tx", "type", btx.Type)
		res.Code = 1
		res.Log = ErrUnsupportedTx.Error()
		return
	}
	res, err = h.Check(ctx, st, btx)
	if err != nil {
		app.logger.Error("check tx fail", "err", err)
		res = &abcitypes.ResponseCheckTx{Code: 1, Log: err.Error()}
		err = nil
	}
	return
}

// PrepareProposal drops txs that no longer parse or verify against the
// block's running state. Failing handlers still go in; their result is
// recorded with a non-zero code.
func (app *DAOApp) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (res *abcitypes.ResponsePrepareProposal, err error) {
	st := app.db.NewState()
	txs := make([][]byte, 0, len(proposal.Txs))
	var size int64
	for _, stx := range proposal.Txs {
		btx, err := app.parseTx(st, stx, false)
		if err != nil {
			app.logger.Info("drop tx, parse fail", "err", err)
			continue
		}
		if size+int64(len(stx)) > proposal.MaxTxBytes {
			break
		}
		if err := st.IncNonce(btx.Sender); err != nil {
			continue
		}
		size += int64(len(stx))
		txs = append(txs, stx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

func (app *DAOApp) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (res *abcitypes.ResponseProcessProposal, err error) {
	res = &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}
	st := app.db.NewState()
	for _, stx := range proposal.Txs {
		btx, err := app.parseTx(st, stx, false)
		if err != nil {
			app.logger.Error("reject proposal, parse tx fail", "height", proposal.Height, "err", err)
			return res, nil
		}
		if err := st.IncNonce(btx.Sender); err != nil {
			return res, nil
		}
	}
	res.Status = abcitypes.ResponseProcessProposal_ACCEPT
	return res, nil
}

// execute runs each tx on a clone of st and adopts the clone only when the
// handler succeeds. The sender's nonce advances either way.
func (app *DAOApp) execute(ctx context.Context, st *state.State, txs [][]byte) (next *state.State, res []*abcitypes.ExecTxResult, err error) {
	res = make([]*abcitypes.ExecTxResult, len(txs))
	for i, stx := range txs {
		btx, err := app.parseTx(st, stx, false)
		if err != nil {
			app.logger.Error("unexpected tx, parse fail", "err", err)
			res[i] = &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}
			continue
		}
		h, ok := app.txHdlrs[btx.Type]
		if !ok {
			res[i] = &abcitypes.ExecTxResult{Code: 1, Log: ErrUnsupportedTx.Error()}
			continue
		}
		stTmp := st.Clone()
		result, err := h.Process(ctx, stTmp, btx)
		if err != nil {
			app.logger.Info("process tx fail", "type", btx.Type, "sender", btx.Sender, "err", err)
			res[i] = &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}
		} else {
			st = stTmp
			res[i] = result
		}
		if err := st.IncNonce(btx.Sender); err != nil {
			return nil, nil, err
		}
	}
	return st, res, nil
}

func (app *DAOApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.logger.Info("FinalizeBlock", "height", req.Height, "txs", len(req.Txs))
	app.lastBlk.Set(req)
	st := app.getState()
	st.SetTime(uint64(req.Time.Unix()))
	st, res, err := app.execute(ctx, st, req.Txs)
	if err != nil {
		return nil, err
	}
	app.st = st
	h, err := st.Update()
	if err != nil {
		app.logger.Error("state update hash fail", "err", err)
		return nil, err
	}
	return &abcitypes.ResponseFinalizeBlock{
		TxResults: res,
		AppHash:   h.Bytes(),
	}, nil
}

func (app *DAOApp) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	_, err := app.db.SetState(app.st)
	if err != nil {
		return nil, err
	}
	app.st = nil
	app.logger.Info("Commit", "height", app.lastBlk.Height)
	return &abcitypes.ResponseCommit{}, nil
}
