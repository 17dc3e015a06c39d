package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calehh/rep-dao/types"
)

var (
	alice = common.HexToHash("0xa1")
	bob   = common.HexToHash("0xb0")
)

func newTestIndexer(t *testing.T) *ChainIndexer {
	db, err := OpenDB(filepath.Join(t.TempDir(), "indexer.db"))
	require.NoError(t, err)
	c, err := newChainIndexer(log.NewNopLogger(), db, "")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func txResult(events ...abci.Event) *abci.ExecTxResult {
	return &abci.ExecTxResult{Events: events}
}

func indexGrantLifecycle(t *testing.T, c *ChainIndexer) {
	ctx := context.Background()
	require.NoError(t, c.indexBlock(ctx, 1, []*abci.ExecTxResult{
		txResult(types.EncodeEventProposalCreated(&types.EventProposalCreated{
			Kind: types.KindGrant, Index: 0, Vote: 0, Proposer: alice, Name: "bridge", Cost: "1000", Timeout: 50,
		})),
	}))
	require.NoError(t, c.indexBlock(ctx, 2, []*abci.ExecTxResult{
		txResult(types.EncodeEventVoteCast(&types.EventVoteCast{Vote: 0, Voter: bob, Stake: "10", Direction: 1})),
		{Code: 1, Events: []abci.Event{types.EncodeEventVoteCast(&types.EventVoteCast{Vote: 0, Voter: bob, Stake: "99", Direction: 0})}},
	}))
	require.NoError(t, c.indexBlock(ctx, 3, []*abci.ExecTxResult{
		txResult(
			types.EncodeEventVoteFinalized(&types.EventVoteFinalized{Vote: 0, Kind: types.KindGrant, Target: 0, Result: 2, InputReputation: "40"}),
			types.EncodeEventProjectUpdated(&types.EventProjectUpdated{Project: 0, Action: "created", Status: 0, Vote: 0}),
		),
	}))
	require.NoError(t, c.indexBlock(ctx, 4, []*abci.ExecTxResult{
		txResult(types.EncodeEventReputationClaim(&types.EventReputationClaim{Vote: 0, Voter: bob, Stake: "10", Share: "0", Bonus: "4"})),
		txResult(types.EncodeEventFundingReleased(&types.EventFundingReleased{Project: 0, Milestone: 0, Amount: "500"})),
	}))
}

func TestIndexBlock(t *testing.T) {
	c := newTestIndexer(t)
	indexGrantLifecycle(t, c)

	var h Height
	require.NoError(t, c.db.Where("id = ?", 1).First(&h).Error)
	assert.Equal(t, uint64(4), h.Height)

	proposals, total, err := c.getProposals(types.KindGrant, "", 0, 10)
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Equal(t, uint64(1), total)
	p := proposals[0]
	assert.Equal(t, "bridge", p.Name)
	assert.Equal(t, alice.Hex(), p.Proposer)
	assert.Equal(t, "40", p.InputReputation)
	assert.Equal(t, uint64(3), p.FinalizeHeight)
	assert.Equal(t, "approved", p.Result)

	ballots, total, err := c.getBallots(0, "", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total, "failed tx events are skipped")
	assert.Equal(t, "10", ballots[0].Stake)

	claims, _, err := c.getClaims(nil, bob.Hex(), 0, 10)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, "4", claims[0].Bonus)

	proj, err := c.getProjectByIndex(0)
	require.NoError(t, err)
	assert.Equal(t, "created", proj.LastAction)
	assert.Equal(t, uint64(3), proj.CreateHeight)
	fundings, err := c.getFundingsByProject(0)
	require.NoError(t, err)
	require.Len(t, fundings, 1)
	assert.Equal(t, "500", fundings[0].Amount)
}

func TestIndexerResumesFromCursor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indexer.db")
	db, err := OpenDB(path)
	require.NoError(t, err)
	c, err := newChainIndexer(log.NewNopLogger(), db, "")
	require.NoError(t, err)
	indexGrantLifecycle(t, c)
	require.NoError(t, c.Close())

	db, err = OpenDB(path)
	require.NoError(t, err)
	c, err = newChainIndexer(log.NewNopLogger(), db, "")
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, int64(5), c.Height)
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	dat, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(dat))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestService(t *testing.T) {
	c := newTestIndexer(t)
	indexGrantLifecycle(t, c)
	h := NewService("", c).Handler()
	zero := uint64(0)

	t.Run("proposals", func(t *testing.T) {
		w := postJSON(t, h, "/getProposals", GetProposalsReq{Vote: &zero})
		require.Equal(t, http.StatusOK, w.Code)
		var res GetProposalsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		require.Len(t, res.Proposals, 1)
		assert.Len(t, res.Proposals[0].Votes, 1)
	})

	t.Run("votes need a filter", func(t *testing.T) {
		w := postJSON(t, h, "/getVotes", GetVotesReq{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("votes by voter", func(t *testing.T) {
		w := postJSON(t, h, "/getVotes", GetVotesReq{Voter: bob.Hex()})
		require.Equal(t, http.StatusOK, w.Code)
		var res GetVotesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, uint64(1), res.Total)
	})

	t.Run("projects", func(t *testing.T) {
		w := postJSON(t, h, "/getProjects", GetProjectsReq{})
		require.Equal(t, http.StatusOK, w.Code)
		var res GetProjectsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		require.Len(t, res.Projects, 1)
		assert.Len(t, res.Projects[0].Fundings, 1)
	})

	t.Run("claims", func(t *testing.T) {
		w := postJSON(t, h, "/getClaims", GetClaimsReq{Vote: &zero})
		require.Equal(t, http.StatusOK, w.Code)
		var res GetClaimsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, uint64(1), res.Total)
	})
}
