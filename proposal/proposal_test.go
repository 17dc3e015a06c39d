package proposal

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calehh/rep-dao/governance"
	"github.com/calehh/rep-dao/types"
)

func amount(v uint64) uint256.Int { return types.NewAmount(v) }

func tranche(v uint64) FundingTranche {
	return FundingTranche{Type: 1, Amount: amount(v), ReputationAllocation: amount(v / 10)}
}

func validArgs() *CreateArgs {
	return &CreateArgs{
		Name:               "indexer grant",
		StoragePointer:     "ipfs://bafy",
		StorageFingerprint: "0xfeed",
		Category:           0,
		Citations:          []uint64{3, 1},
		Ratios:             Ratios{Policing: 20, OP: 80, Citation: 0},
		VoteConfiguration: VoteConfiguration{
			MemberQuorum:      2,
			ReputationQuorum:  amount(100),
			Threshold:         50,
			Timeout:           1000,
			VoterStakingLimit: 50,
		},
		Milestones: []MilestoneSpec{
			{Type: 0, ProgressPercentage: 60, Tranches: []FundingTranche{tranche(400), tranche(200)}, Timeout: 5000},
			{Type: 0, ProgressPercentage: 40, Tranches: []FundingTranche{tranche(400)}, Timeout: 9000},
		},
		StakedRep:                 amount(100),
		Proposer:                  common.HexToHash("0xa1"),
		SystemPolicingRatio:       10,
		ProposerReputationBalance: amount(1000),
		Sponsors: []Sponsor{
			{Account: common.HexToHash("0xb2"), Amount: amount(5)},
			{Account: common.HexToHash("0xb1"), Amount: amount(7)},
		},
		Cost: amount(1000),
	}
}

func TestNewProposal(t *testing.T) {
	p, err := New(validArgs())
	require.NoError(t, err)
	assert.Equal(t, StatusInFullVote, p.Status)
	assert.Equal(t, TypeGrant, p.Type)
	assert.Equal(t, uint64(2), p.MilestoneCount())
	assert.Equal(t, uint64(2), p.Milestones[0].FundingTranchesSize)
	assert.Equal(t, MilestoneResultPending, p.Milestones[1].Result)
	assert.Len(t, p.Sponsors, 2)

	m0 := p.Milestones[0]
	sum, err := m0.Amount()
	require.NoError(t, err)
	assert.Equal(t, uint64(600), sum.Uint64())
}

func TestNewProposalValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *CreateArgs)
		err    error
	}{
		{"policing below system minimum", func(a *CreateArgs) { a.Ratios.Policing = 5 }, ErrInvalidPolicingRatio},
		{"policing above 100", func(a *CreateArgs) { a.Ratios.Policing = 101 }, ErrInvalidPolicingRatio},
		{"category", func(a *CreateArgs) { a.Category = 2 }, ErrInvalidCategory},
		{"stake above balance", func(a *CreateArgs) {
			a.StakedRep = amount(500)
			a.ProposerReputationBalance = amount(400)
		}, ErrStakedRepGreaterThanReputationBalance},
		{"cost mismatch", func(a *CreateArgs) { a.Cost = amount(999) }, ErrProjectCostNotEqualToMilestonesSum},
		{"progress sum", func(a *CreateArgs) { a.Milestones[1].ProgressPercentage = 30 }, ErrInvalidMilestonesProgressPercentages},
		{"cost too large for the bonus pool", func(a *CreateArgs) {
			huge := new(uint256.Int).Lsh(uint256.NewInt(1), 250)
			a.Milestones = []MilestoneSpec{{ProgressPercentage: 100, Tranches: []FundingTranche{{Amount: *huge}}}}
			a.Cost = *huge
		}, ErrAmountOverflow},
		{"no milestones", func(a *CreateArgs) {
			a.Milestones = nil
			a.Cost = amount(0)
		}, ErrInvalidMilestonesProgressPercentages},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := validArgs()
			tt.mutate(args)
			p, err := New(args)
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, p)
		})
	}
}

func TestValidationOrder(t *testing.T) {
	// both the ratio and the cost are wrong; the ratio is reported first
	args := validArgs()
	args.Ratios.Policing = 1
	args.Cost = amount(1)
	_, err := New(args)
	assert.ErrorIs(t, err, ErrInvalidPolicingRatio)
}

func TestAnalysisAcceptance(t *testing.T) {
	p, err := New(validArgs())
	require.NoError(t, err)
	a := p.AnalysisAcceptance(7777)
	assert.Equal(t, TypeAnalysisAcceptance, a.Type)
	assert.Equal(t, uint64(7777), a.VoteConfiguration.Timeout)
	assert.Equal(t, uint64(1000), p.VoteConfiguration.Timeout)

	a.Milestones[0].FundingTranches[0] = tranche(1)
	orig := p.Milestones[0].FundingTranches[0]
	assert.Equal(t, uint64(400), orig.Amount.Uint64())
}

func TestNewGovernance(t *testing.T) {
	args := &CreateGovernanceArgs{
		Name:           "raise policing",
		Repository:     "git://dao/params",
		Proposer:       common.HexToHash("0xa1"),
		ParameterName:  "update_policing_ratio",
		ParameterValue: "30",
		VoteConfiguration: GovernanceVoteConfiguration{
			FullVoteQuorum:    amount(10),
			FullVoteThreshold: 50,
			Timeout:           100,
		},
		StakedRep:                 amount(10),
		ProposerReputationBalance: amount(10),
	}
	g, err := NewGovernance(args)
	require.NoError(t, err)
	assert.Equal(t, governance.ParamPolicingRatio, g.Change.Kind)
	assert.Equal(t, StatusInFullVote, g.Status)

	args.StakedRep = amount(11)
	_, err = NewGovernance(args)
	assert.ErrorIs(t, err, ErrStakedRepGreaterThanReputationBalance)

	args.StakedRep = amount(1)
	args.ParameterName = "update_nothing"
	_, err = NewGovernance(args)
	assert.ErrorIs(t, err, governance.ErrUnknownParameter)
}
