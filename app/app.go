package app

import (
	"context"
	"encoding/json"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/store"
	"github.com/ethereum/go-ethereum/common"

	"github.com/calehh/rep-dao/config"
	"github.com/calehh/rep-dao/governance"
	"github.com/calehh/rep-dao/state"
	"github.com/calehh/rep-dao/tx"
	"github.com/calehh/rep-dao/tx/handler"
	"github.com/calehh/rep-dao/types"
)

type finalizeBlock struct {
	Height uint64
	Hash   common.Hash
}

func (b *finalizeBlock) Set(blk *abcitypes.RequestFinalizeBlock) {
	b.Height = uint64(blk.Height)
	b.Hash = common.BytesToHash(blk.Hash)
}

var _ abcitypes.Application = &DAOApp{}

type DAOApp struct {
	cfg    *config.AppConfig
	logger cmtlog.Logger

	db       *state.StateDB
	lastBlk  finalizeBlock
	txHdlrs  map[tx.DAOTxType]handler.TxHandler
	queriers map[string]Querier

	st *state.State
}

func NewDAOApp(cfg *config.AppConfig, logger cmtlog.Logger) (app *DAOApp, err error) {
	logger = logger.With("module", "app")

	dir := cfg.Home + "/data"
	db, err := state.NewStateDB(dir, logger)
	if err != nil {
		return nil, err
	}
	return newDAOApp(cfg, db, logger), nil
}

func newDAOApp(cfg *config.AppConfig, db *state.StateDB, logger cmtlog.Logger) (app *DAOApp) {
	app = &DAOApp{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		queriers: make(map[string]Querier),
	}
	app.txHdlrs = handler.NewTxHandlers(logger)
	app.registerQuerier()
	return
}

func (app *DAOApp) Start(bs *store.BlockStore) {
	height := app.db.Header().Height
	if height > 0 {
		blk := bs.LoadBlock(int64(height))
		if blk == nil {
			panic("unexpected BlockStore")
		}
		app.lastBlk.Height = height
		app.lastBlk.Hash = common.BytesToHash(blk.Hash())
	}
}

func (app *DAOApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("DAO app stopped")
}

func (app *DAOApp) registerQuerier() {
	app.queriers["/accounts/"] = NewAccountQuerier(app.db, app.logger)
	app.queriers["/proposals/"] = newEntityQuerier(app.db, func(st *state.State, idx uint64) (any, error) {
		return st.GetProposal(idx)
	})
	app.queriers["/governance/"] = newEntityQuerier(app.db, func(st *state.State, idx uint64) (any, error) {
		return st.GetGovernanceProposal(idx)
	})
	app.queriers["/votes/"] = newEntityQuerier(app.db, func(st *state.State, idx uint64) (any, error) {
		return st.GetVote(idx)
	})
	app.queriers["/projects/"] = newEntityQuerier(app.db, func(st *state.State, idx uint64) (any, error) {
		return st.GetProject(idx)
	})
	app.queriers["/params/"] = &ParamsQuerier{db: app.db}
	app.queriers["/stateheader/"] = &HeaderQuerier{db: app.db}
}

func (app *DAOApp) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	st := app.db.NewState()
	st.SetChainId(chain.ChainId)
	st.SetTime(uint64(chain.Time.Unix()))

	appState := types.AppState{Params: governance.DefaultParams()}
	if len(chain.AppStateBytes) > 0 {
		if err = json.Unmarshal(chain.AppStateBytes, &appState); err != nil {
			app.logger.Error("InitChain decode app state fail", "err", err)
			return nil, err
		}
	}
	if err = appState.Validate(); err != nil {
		app.logger.Error("InitChain invalid app state", "err", err)
		return nil, err
	}
	if err = st.SetParams(appState.Params); err != nil {
		return nil, err
	}
	for _, ga := range appState.Accounts {
		acnt := state.NewAccount(ga.PubKey)
		acnt.Member = ga.Member
		if ga.Balance != "" {
			if acnt.Balance, err = types.ParseAmount(ga.Balance); err != nil {
				return nil, err
			}
		}
		st.SetAccount(acnt)
	}

	var h common.Hash
	_, err = st.Update()
	if err != nil {
		app.logger.Error("InitChain update state fail", "err", err)
		return nil, err
	}
	h, err = app.db.SetState(st)
	if err != nil {
		app.logger.Error("InitChain apply state fail", "err", err)
		return nil, err
	}
	app.logger.Info("InitChain", "accounts", len(appState.Accounts), "hash", h)
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

func (app *DAOApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}

func (app *DAOApp) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *DAOApp) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (app *DAOApp) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{}, nil
}

func (app *DAOApp) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (app *DAOApp) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (app *DAOApp) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{}, nil
}
