package handler

import (
	"context"
	"errors"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/calehh/rep-dao/state"
	"github.com/calehh/rep-dao/tx"
	"github.com/calehh/rep-dao/types"
)

var (
	ErrNotProposer      = errors.New("sender is not the proposer")
	ErrInvalidDirection = errors.New("invalid vote direction")
	ErrUnknownVoteKind  = errors.New("unknown vote kind")
)

type TxHandler interface {
	Check(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ResponseCheckTx, err error)
	Process(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error)
}

type handleFunc func(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error)

// txHandler runs a handleFunc. Check runs it against a throwaway clone so
// the mempool view is never modified.
type txHandler struct {
	logger cmtlog.Logger
	handle handleFunc
}

func newTxHandler(logger cmtlog.Logger, module string, fn handleFunc) *txHandler {
	return &txHandler{
		logger: logger.With("module", module),
		handle: fn,
	}
}

func (h *txHandler) Check(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	if _, err1 := h.handle(ctx, st.Clone(), btx); err1 != nil {
		h.logger.Info("CheckTx fail", "type", btx.Type, "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *txHandler) Process(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error) {
	events, err := h.handle(ctx, st, btx)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{Events: events}
	return
}

// NewTxHandlers returns a handler for every tx type.
func NewTxHandlers(logger cmtlog.Logger) map[tx.DAOTxType]TxHandler {
	return map[tx.DAOTxType]TxHandler{
		tx.DAOTxTypeCreateProposal:           newTxHandler(logger, "proposalTx", createProposal),
		tx.DAOTxTypeCreateGovernanceProposal: newTxHandler(logger, "governanceTx", createGovernanceProposal),
		tx.DAOTxTypeCastVote:                 newTxHandler(logger, "voteTx", castVote),
		tx.DAOTxTypeFinalizeVote:             newTxHandler(logger, "finalizeTx", finalizeVote),
		tx.DAOTxTypeClaimReputation:          newTxHandler(logger, "claimTx", claimReputation),
		tx.DAOTxTypeRefundStake:              newTxHandler(logger, "refundTx", refundStake),
		tx.DAOTxTypeClaimMilestone:           newTxHandler(logger, "milestoneTx", claimMilestone),
		tx.DAOTxTypeSubmitMilestoneAnalysis:  newTxHandler(logger, "milestoneTx", submitMilestoneAnalysis),
		tx.DAOTxTypeCheckMilestoneTimeout:    newTxHandler(logger, "milestoneTx", checkMilestoneTimeout),
		tx.DAOTxTypeExtendMilestoneDeadline:  newTxHandler(logger, "milestoneTx", extendMilestoneDeadline),
		tx.DAOTxTypeAddMember:                newTxHandler(logger, "memberTx", addMember),
		tx.DAOTxTypeRemoveMember:             newTxHandler(logger, "memberTx", removeMember),
		tx.DAOTxTypeMint:                     newTxHandler(logger, "memberTx", mint),
		tx.DAOTxTypeBurn:                     newTxHandler(logger, "memberTx", burn),
	}
}

func payload[T any](btx *tx.DAOTx) (*T, error) {
	p, ok := btx.Tx.(*T)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	return p, nil
}

func requireMember(st *state.State, addr types.AccountHash) error {
	if !st.IsMember(addr) {
		return state.ErrNotMember
	}
	return nil
}
