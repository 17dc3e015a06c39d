package app

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calehh/rep-dao/config"
	"github.com/calehh/rep-dao/crypto"
	"github.com/calehh/rep-dao/governance"
	"github.com/calehh/rep-dao/state"
	"github.com/calehh/rep-dao/tx"
	"github.com/calehh/rep-dao/types"
)

const testChainID = "repdao-test"

type member struct {
	pv    *crypto.PV
	nonce uint64
}

func newMember() *member {
	return &member{pv: crypto.NewPV(ed25519.GenPrivKey())}
}

func (m *member) sign(t *testing.T, typ tx.DAOTxType, payload any) []byte {
	t.Helper()
	btx := &tx.DAOTx{Type: typ, Nonce: m.nonce, Tx: payload}
	require.NoError(t, m.pv.SignTx(btx, testChainID))
	dat, err := tx.MarshalDAOTx(btx)
	require.NoError(t, err)
	m.nonce++
	return dat
}

func newTestApp(t *testing.T, members ...*member) *DAOApp {
	t.Helper()
	home := t.TempDir()
	db, err := state.NewStateDB(filepath.Join(home, "data"), log.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	app := newDAOApp(config.DefaultAppConfig(home), db, log.NewNopLogger())

	appState := types.AppState{Params: governance.DefaultParams()}
	appState.Params.Failsafe = members[0].pv.Account()
	for _, m := range members {
		appState.Accounts = append(appState.Accounts, types.GenesisAccount{
			PubKey:  m.pv.PublicKey(),
			Balance: "1000",
			Member:  true,
		})
	}
	dat, err := json.Marshal(appState)
	require.NoError(t, err)
	_, err = app.InitChain(context.Background(), &abcitypes.RequestInitChain{
		ChainId:       testChainID,
		Time:          time.Unix(1000, 0),
		AppStateBytes: dat,
	})
	require.NoError(t, err)
	return app
}

func commitBlock(t *testing.T, app *DAOApp, height int64, now int64, txs ...[]byte) []*abcitypes.ExecTxResult {
	t.Helper()
	res, err := app.FinalizeBlock(context.Background(), &abcitypes.RequestFinalizeBlock{
		Height: height,
		Time:   time.Unix(now, 0),
		Txs:    txs,
	})
	require.NoError(t, err)
	_, err = app.Commit(context.Background(), &abcitypes.RequestCommit{})
	require.NoError(t, err)
	return res.TxResults
}

func query(t *testing.T, app *DAOApp, path string) *abcitypes.ResponseQuery {
	t.Helper()
	res, err := app.Query(context.Background(), &abcitypes.RequestQuery{Path: path})
	require.NoError(t, err)
	return res
}

func proposalTx() *tx.CreateProposalTx {
	return &tx.CreateProposalTx{
		Name:              "wallet",
		PolicingRatio:     20,
		MemberQuorum:      2,
		ReputationQuorum:  "100",
		Threshold:         50,
		Timeout:           2000,
		VoterStakingLimit: 50,
		Milestones: []tx.MilestoneTx{
			{ProgressPercentage: 100, Tranches: []tx.TrancheTx{{Amount: "500"}}, Timeout: 100_000},
		},
		StakedRep: "400",
		Cost:      "500",
	}
}

func TestBlockExecution(t *testing.T) {
	alice, bob := newMember(), newMember()
	app := newTestApp(t, alice, bob)

	results := commitBlock(t, app, 1, 1000,
		alice.sign(t, tx.DAOTxTypeCreateProposal, proposalTx()),
		bob.sign(t, tx.DAOTxTypeCastVote, &tx.CastVoteTx{Vote: 0, Stake: "300", Direction: 1}),
		bob.sign(t, tx.DAOTxTypeCastVote, &tx.CastVoteTx{Vote: 0, Stake: "10", Direction: 1}),
	)
	require.Len(t, results, 3)
	assert.Equal(t, uint32(0), results[0].Code)
	assert.Equal(t, uint32(0), results[1].Code)
	assert.Equal(t, uint32(1), results[2].Code, "second vote by the same member")

	res := query(t, app, "/accounts/"+bob.pv.Account().Hex())
	require.Equal(t, uint32(0), res.Code)
	var acnt state.Account
	require.NoError(t, json.Unmarshal(res.Value, &acnt))
	assert.Equal(t, uint64(2), acnt.Nonce, "failed txs still use their nonce")
	assert.Equal(t, "300", acnt.Committed.Dec())

	assert.Equal(t, uint32(0), query(t, app, "/proposals/0").Code)
	assert.Equal(t, uint32(0), query(t, app, "/votes/0").Code)
	assert.Equal(t, uint32(1), query(t, app, "/projects/0").Code)
	assert.Equal(t, uint32(1), query(t, app, "/proposals/x").Code)
	assert.Equal(t, uint32(404), query(t, app, "/unknown/0").Code)

	results = commitBlock(t, app, 2, 2000,
		bob.sign(t, tx.DAOTxTypeFinalizeVote, &tx.VoteRefTx{Vote: 0}),
	)
	require.Len(t, results, 1)
	require.Equal(t, uint32(0), results[0].Code, results[0].Log)
	assert.Equal(t, uint32(0), query(t, app, "/projects/0").Code)

	res = query(t, app, "/params")
	require.Equal(t, uint32(0), res.Code)
	var params governance.Params
	require.NoError(t, json.Unmarshal(res.Value, &params))
	assert.Equal(t, alice.pv.Account(), params.Failsafe)

	info, err := app.Info(context.Background(), &abcitypes.RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, int64(app.db.Header().Height), info.LastBlockHeight)
}

func TestCheckTx(t *testing.T) {
	alice, bob := newMember(), newMember()
	app := newTestApp(t, alice, bob)

	res, err := app.CheckTx(context.Background(), &abcitypes.RequestCheckTx{
		Tx: alice.sign(t, tx.DAOTxTypeCreateProposal, proposalTx()),
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.Code, res.Log)

	tampered := newMember()
	tampered.pv = bob.pv
	dat := tampered.sign(t, tx.DAOTxTypeCastVote, &tx.CastVoteTx{Vote: 0, Stake: "1", Direction: 1})
	var raw map[string]any
	require.NoError(t, json.Unmarshal(dat, &raw))
	raw["nonce"] = 7
	dat, err = json.Marshal(raw)
	require.NoError(t, err)
	res, err = app.CheckTx(context.Background(), &abcitypes.RequestCheckTx{Tx: dat})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), res.Code)

	outsider := newMember()
	res, err = app.CheckTx(context.Background(), &abcitypes.RequestCheckTx{
		Tx: outsider.sign(t, tx.DAOTxTypeCreateProposal, proposalTx()),
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), res.Code)

	// CheckTx never changes committed state.
	assert.Equal(t, uint32(1), query(t, app, "/proposals/0").Code)
}

func TestPrepareProposalDropsBadTxs(t *testing.T) {
	alice, bob := newMember(), newMember()
	app := newTestApp(t, alice, bob)

	good := alice.sign(t, tx.DAOTxTypeCreateProposal, proposalTx())
	stale := newMember()
	stale.pv = bob.pv
	stale.nonce = 5
	bad := stale.sign(t, tx.DAOTxTypeCastVote, &tx.CastVoteTx{Vote: 0, Stake: "1", Direction: 1})

	res, err := app.PrepareProposal(context.Background(), &abcitypes.RequestPrepareProposal{
		Txs:        [][]byte{good, bad, []byte("junk")},
		MaxTxBytes: 1 << 20,
	})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{good}, res.Txs)

	proc, err := app.ProcessProposal(context.Background(), &abcitypes.RequestProcessProposal{Txs: [][]byte{good, bad}})
	require.NoError(t, err)
	assert.Equal(t, abcitypes.ResponseProcessProposal_REJECT, proc.Status)
	proc, err = app.ProcessProposal(context.Background(), &abcitypes.RequestProcessProposal{Txs: res.Txs})
	require.NoError(t, err)
	assert.Equal(t, abcitypes.ResponseProcessProposal_ACCEPT, proc.Status)
}
