package types

import (
	"testing"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calehh/rep-dao/governance"
)

func TestEventVoteFinalized(t *testing.T) {
	ev := &EventVoteFinalized{Vote: 4, Kind: KindGovernance, Target: 1, Result: 2, InputReputation: "0", Executed: true}
	raw := EncodeEventVoteFinalized(ev)
	assert.Equal(t, EventVoteFinalizedType, raw.Type)
	assert.Equal(t, ev, DecodeEventVoteFinalized(raw))
}

func TestEventReputationClaim(t *testing.T) {
	ev := &EventReputationClaim{Vote: 1, Voter: common.HexToHash("0xb0"), Stake: "30", Share: "10", Bonus: "5"}
	assert.Equal(t, ev, DecodeEventReputationClaim(EncodeEventReputationClaim(ev)))
}

func TestDecodeEventRejectsBadAttributes(t *testing.T) {
	raw := abci.Event{
		Type:       EventVoteCastType,
		Attributes: []abci.EventAttribute{{Key: "vote", Value: "x"}},
	}
	assert.Nil(t, DecodeEventVoteCast(raw))

	raw.Attributes = []abci.EventAttribute{{Key: "voter", Value: "0x12"}}
	assert.Nil(t, DecodeEventVoteCast(raw))
}

func TestAppStateValidate(t *testing.T) {
	pk := []byte{1, 2, 3}
	as := AppState{
		Params:   governance.DefaultParams(),
		Accounts: []GenesisAccount{{PubKey: pk, Balance: "10"}},
	}
	require.NoError(t, as.Validate())

	as.Accounts = append(as.Accounts, GenesisAccount{PubKey: pk})
	assert.Error(t, as.Validate())

	as.Accounts = []GenesisAccount{{PubKey: pk, Balance: "ten"}}
	assert.Error(t, as.Validate())

	as.Accounts = []GenesisAccount{{}}
	assert.Error(t, as.Validate())
}
