package state

import (
	"path/filepath"
	"testing"

	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/cometbft/cometbft/libs/log"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calehh/rep-dao/types"
)

func amount(v uint64) uint256.Int { return types.NewAmount(v) }

func newTestDB(t *testing.T) *StateDB {
	t.Helper()
	db, err := NewStateDB(filepath.Join(t.TempDir(), "data"), log.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// newTestState returns a state whose failsafe admin is the returned account
// and which holds a member with the given balance.
func newTestState(t *testing.T, balance uint64) (st *State, admin, member types.AccountHash) {
	t.Helper()
	st = newTestDB(t).NewState()
	adminAcnt := NewAccount(ed25519.GenPrivKey().PubKey().Bytes())
	st.SetAccount(adminAcnt)
	p := st.Params()
	p.Failsafe = adminAcnt.Address
	require.NoError(t, st.SetParams(p))

	m := NewAccount(ed25519.GenPrivKey().PubKey().Bytes())
	m.Member = true
	m.Balance = amount(balance)
	st.SetAccount(m)
	return st, adminAcnt.Address, m.Address
}

func TestTransferAndLock(t *testing.T) {
	st, _, m := newTestState(t, 100)
	other := NewAccount(ed25519.GenPrivKey().PubKey().Bytes())
	st.SetAccount(other)

	require.NoError(t, st.Lock(m, amount(60)))
	committed := st.CommittedOf(m)
	assert.Equal(t, uint64(60), committed.Uint64())

	assert.ErrorIs(t, st.Transfer(m, other.Address, amount(50)), ErrInsufficientBalance)
	require.NoError(t, st.Transfer(m, other.Address, amount(40)))
	bal := st.BalanceOf(other.Address)
	assert.Equal(t, uint64(40), bal.Uint64())

	assert.ErrorIs(t, st.Unlock(m, amount(61)), ErrInsufficientCommitted)
	require.NoError(t, st.Unlock(m, amount(60)))
	bal = st.BalanceOf(m)
	assert.Equal(t, uint64(60), bal.Uint64())
}

func TestTransferFromEngineOnly(t *testing.T) {
	st, admin, m := newTestState(t, 100)
	engine := st.Params().VotingEngineAddress

	assert.ErrorIs(t, st.TransferFrom(admin, m, engine, amount(10)), ErrNotVotingEngine)
	require.NoError(t, st.TransferFrom(engine, m, engine, amount(10)))
	bal := st.BalanceOf(engine)
	assert.Equal(t, uint64(10), bal.Uint64())
}

func TestMintBurnGates(t *testing.T) {
	st, admin, m := newTestState(t, 100)
	engine := st.Params().VotingEngineAddress

	assert.ErrorIs(t, st.Mint(m, m, amount(1)), ErrNotAdmin)
	require.NoError(t, st.Mint(admin, m, amount(50)))
	require.NoError(t, st.Mint(engine, engine, amount(5)))
	bal := st.BalanceOf(m)
	assert.Equal(t, uint64(150), bal.Uint64())

	assert.ErrorIs(t, st.Burn(engine, m, amount(1)), ErrNotAdmin)
	require.NoError(t, st.Lock(m, amount(100)))
	assert.ErrorIs(t, st.Burn(admin, m, amount(51)), ErrInsufficientBalance)
	require.NoError(t, st.Burn(admin, m, amount(50)))

	var max uint256.Int
	max.SetAllOne()
	assert.ErrorIs(t, st.Mint(admin, m, max), ErrBalanceOverflow)
}

func TestMembership(t *testing.T) {
	st, admin, m := newTestState(t, 100)
	newcomer, err := st.AddAccount(ed25519.GenPrivKey().PubKey().Bytes())
	require.NoError(t, err)
	_, err = st.AddAccount(newcomer.PubKey)
	assert.ErrorIs(t, err, ErrAccountAlreadyExists)

	assert.False(t, st.IsMember(newcomer.Address))
	assert.ErrorIs(t, st.AddMember(m, newcomer.Address), ErrNotAdmin)
	require.NoError(t, st.AddMember(admin, newcomer.Address))
	assert.True(t, st.IsMember(newcomer.Address))
	assert.ErrorIs(t, st.AddMember(admin, types.AccountHash{0x01}), ErrAccountNoexists)

	require.NoError(t, st.Lock(m, amount(1)))
	assert.ErrorIs(t, st.RemoveMember(admin, m), ErrReputationStillLocked)
	require.NoError(t, st.Unlock(m, amount(1)))
	require.NoError(t, st.RemoveMember(admin, m))
	assert.False(t, st.IsMember(m))
	assert.ErrorIs(t, st.RemoveMember(admin, m), ErrNotMember)
}
