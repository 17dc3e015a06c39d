package governance

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeParamChange(t *testing.T) {
	hash := strings.Repeat("ab", 32)

	t.Run("policing ratio", func(t *testing.T) {
		c, err := DecodeParamChange("update_policing_ratio", "25")
		require.NoError(t, err)
		assert.Equal(t, ParamPolicingRatio, c.Kind)
		assert.Equal(t, uint64(25), c.Uint)
		assert.Equal(t, "25", c.Value())
	})

	t.Run("policing ratio out of range", func(t *testing.T) {
		_, err := DecodeParamChange("update_policing_ratio", "101")
		assert.ErrorIs(t, err, ErrInvalidParameterValue)
	})

	t.Run("allocation ratio zero", func(t *testing.T) {
		_, err := DecodeParamChange("update_reputation_allocation_ratio", "0")
		assert.ErrorIs(t, err, ErrInvalidParameterValue)
	})

	t.Run("hash with prefix", func(t *testing.T) {
		c, err := DecodeParamChange("update_reputation_contract_hash", "0x"+hash)
		require.NoError(t, err)
		assert.Equal(t, ParamReputationContractHash, c.Kind)
		assert.Equal(t, hash, c.Value())
	})

	t.Run("short hash", func(t *testing.T) {
		_, err := DecodeParamChange("update_voting_engine_address", "abcd")
		assert.ErrorIs(t, err, ErrInvalidParameterValue)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := DecodeParamChange("update_treasury", "1")
		assert.ErrorIs(t, err, ErrUnknownParameter)
	})
}

func TestParamChangeApply(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())

	c, err := DecodeParamChange("update_reputation_allocation_ratio", "500")
	require.NoError(t, err)
	next, err := c.Apply(p)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), next.ReputationAllocationRatio)
	assert.Equal(t, uint64(1_000_000), p.ReputationAllocationRatio, "apply must not mutate the input")

	addr := common.HexToHash("0x01")
	next, err = ParamChange{Kind: ParamVotingEngineAddress, Hash: addr}.Apply(p)
	require.NoError(t, err)
	assert.Equal(t, addr, next.VotingEngineAddress)

	c, err = DecodeParamChange("update_execution_contract_hash", strings.Repeat("cd", 32))
	require.NoError(t, err)
	assert.Equal(t, ParamExecutionContractHash, c.Kind)
	next, err = c.Apply(p)
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0x"+strings.Repeat("cd", 32)), next.ExecutionContractHash)
	assert.Equal(t, common.Hash{}, p.ExecutionContractHash)

	_, err = ParamChange{Kind: 99}.Apply(p)
	assert.ErrorIs(t, err, ErrUnknownParameter)
}

func TestIsAdmin(t *testing.T) {
	p := DefaultParams()
	p.Failsafe = common.HexToHash("0xf1")
	p.Compliance = common.HexToHash("0xc1")

	assert.True(t, p.IsAdmin(p.Failsafe))
	assert.True(t, p.IsAdmin(p.Compliance))
	assert.False(t, p.IsAdmin(common.HexToHash("0x02")))
	assert.False(t, DefaultParams().IsAdmin(common.Hash{}))
}
