package voting

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calehh/rep-dao/proposal"
	"github.com/calehh/rep-dao/types"
)

var (
	alice = common.HexToHash("0xa1")
	bob   = common.HexToHash("0xb0")
	carol = common.HexToHash("0xc0")
	dave  = common.HexToHash("0xd0")
)

func amount(v uint64) uint256.Int { return types.NewAmount(v) }

func grantProposal(t *testing.T) *proposal.Proposal {
	t.Helper()
	p, err := proposal.New(&proposal.CreateArgs{
		Name:   "grant",
		Ratios: proposal.Ratios{Policing: 20, OP: 80},
		VoteConfiguration: proposal.VoteConfiguration{
			MemberQuorum:      2,
			ReputationQuorum:  amount(100),
			Threshold:         50,
			Timeout:           100,
			VoterStakingLimit: 50,
		},
		Milestones: []proposal.MilestoneSpec{
			{ProgressPercentage: 60, Tranches: []proposal.FundingTranche{{Amount: amount(600)}}, Timeout: 1000},
			{ProgressPercentage: 40, Tranches: []proposal.FundingTranche{{Amount: amount(400)}}, Timeout: 2000},
		},
		StakedRep:                 amount(400),
		Proposer:                  alice,
		SystemPolicingRatio:       10,
		ProposerReputationBalance: amount(1000),
		Cost:                      amount(1000),
	})
	require.NoError(t, err)
	return p
}

// votedSession has alice 400 for, bob 300 for, carol 300 against.
func votedSession(t *testing.T) *Session {
	t.Helper()
	s := NewGrant(grantProposal(t), 10)
	require.NoError(t, s.CastProposerVote(10, amount(1000), amount(400), amount(0)))
	require.NoError(t, s.CastVote(bob, 20, amount(1000), amount(300), amount(0), For))
	require.NoError(t, s.CastVote(carol, 30, amount(1000), amount(300), amount(0), Against))
	return s
}

func TestCastVoteAccounting(t *testing.T) {
	s := votedSession(t)
	assert.Equal(t, uint64(3), s.TotalMembers)
	assert.Equal(t, uint64(700), s.ForVotes.Uint64())
	assert.Equal(t, uint64(300), s.AgainstVotes.Uint64())

	sum := new(uint256.Int).Add(&s.ForVotes, &s.AgainstVotes)
	assert.True(t, sum.Eq(&s.TotalStakedReputation))
	for voter := range s.ForVoters {
		_, dup := s.AgainstVoters[voter]
		assert.False(t, dup)
	}
}

func TestCastVoteRejections(t *testing.T) {
	tests := []struct {
		name      string
		voter     common.Hash
		now       uint64
		balance   uint64
		stake     uint64
		committed uint64
		err       error
	}{
		{"already voted", bob, 50, 1000, 10, 0, ErrAlreadyVoted},
		{"already voted on other side", carol, 50, 1000, 10, 0, ErrAlreadyVoted},
		{"one past deadline", dave, 101, 1000, 10, 0, ErrVotingEnded},
		{"past deadline", dave, 150, 1000, 10, 0, ErrVotingEnded},
		{"more than free balance", dave, 50, 1000, 300, 800, ErrInvalidReputationToStake},
		{"committed above balance", dave, 50, 100, 1, 200, ErrInvalidReputationToStake},
		{"zero stake", dave, 50, 1000, 0, 0, ErrInvalidReputationToStake},
		{"staking limit", dave, 50, 100, 60, 0, ErrStakingLimitReached},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := votedSession(t)
			before, err := s.Serialize()
			require.NoError(t, err)

			err = s.CastVote(tt.voter, tt.now, amount(tt.balance), amount(tt.stake), amount(tt.committed), For)
			assert.ErrorIs(t, err, tt.err)

			after, err := s.Serialize()
			require.NoError(t, err)
			assert.Equal(t, before, after, "rejected vote must not change the session")
		})
	}
}

func TestCastVoteAtDeadline(t *testing.T) {
	s := votedSession(t)
	require.NoError(t, s.CastVote(dave, 100, amount(1000), amount(10), amount(0), For))
	assert.Equal(t, uint64(4), s.TotalMembers)
}

func TestStakingLimitOverflow(t *testing.T) {
	s := votedSession(t)
	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 255)
	err := s.CastVote(dave, 50, *huge, *huge, amount(0), For)
	assert.ErrorIs(t, err, ErrAmountOverflow)
	_, ok := s.Vote(dave)
	assert.False(t, ok)
}

func TestStakingLimitOnlyForGrants(t *testing.T) {
	s := NewAnalysis(grantProposal(t), 3, 10)
	assert.NoError(t, s.CastVote(dave, 50, amount(100), amount(90), amount(0), For))
}

func TestCalculateVoteOutcome(t *testing.T) {
	s := votedSession(t)

	_, err := s.CalculateVoteOutcome(99, 1_000_000)
	assert.ErrorIs(t, err, ErrVotingOngoing)
	assert.Equal(t, ResultInVote, s.Result)

	res, err := s.CalculateVoteOutcome(100, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, ResultApproved, res)
	// 1000 * 10^16 / (10^12 / 10^6)
	assert.Equal(t, uint64(10_000_000_000_000), s.InputReputation.Uint64())

	res, err = s.CalculateVoteOutcome(200, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, ResultApproved, res)
	assert.Equal(t, uint64(10_000_000_000_000), s.InputReputation.Uint64())
}

func TestCalculateVoteOutcomeResults(t *testing.T) {
	tests := []struct {
		name      string
		threshold uint8
		forVotes  []uint64
		against   []uint64
		quorum    uint64
		want      VoteResult
	}{
		{"approved", 50, []uint64{700}, []uint64{300}, 2, ResultApproved},
		{"pass threshold unmet", 70, []uint64{700}, []uint64{300}, 2, ResultPassThresholdUnmet},
		{"rejected", 50, []uint64{300}, []uint64{700}, 2, ResultRejected},
		{"fail threshold unmet", 80, []uint64{300}, []uint64{700}, 2, ResultFailThresholdUnmet},
		{"tie goes against", 40, []uint64{500}, []uint64{500}, 2, ResultRejected},
		{"member quorum is final", 10, []uint64{900}, nil, 2, ResultMemberQuorumUnmet},
		{"reputation quorum", 10, []uint64{40}, []uint64{10}, 2, ResultReputationQuorumUnmet},
		{"nobody voted", 10, nil, nil, 0, ResultReputationQuorumUnmet},
	}
	voters := []common.Hash{common.HexToHash("0x01"), common.HexToHash("0x02"), common.HexToHash("0x03")}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := grantProposal(t)
			p.VoteConfiguration.Threshold = tt.threshold
			p.VoteConfiguration.MemberQuorum = tt.quorum
			p.VoteConfiguration.VoterStakingLimit = 0
			s := NewGrant(p, 0)
			i := 0
			for _, v := range tt.forVotes {
				require.NoError(t, s.CastVote(voters[i], 1, amount(1000), amount(v), amount(0), For))
				i++
			}
			for _, v := range tt.against {
				require.NoError(t, s.CastVote(voters[i], 1, amount(1000), amount(v), amount(0), Against))
				i++
			}
			res, err := s.CalculateVoteOutcome(100, 1_000_000)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res)
			if res != ResultApproved {
				assert.True(t, s.InputReputation.IsZero())
			}
		})
	}
}

func TestEmptyVoteWithoutQuorum(t *testing.T) {
	p := grantProposal(t)
	p.VoteConfiguration.MemberQuorum = 0
	p.VoteConfiguration.ReputationQuorum = amount(0)
	s := NewGrant(p, 0)
	res, err := s.CalculateVoteOutcome(100, 1)
	require.NoError(t, err)
	assert.Equal(t, ResultFailThresholdUnmet, res)
}

func TestPercentage(t *testing.T) {
	total := amount(1000)
	majority := amount(700)
	pct, err := Percentage(&majority, &total)
	require.NoError(t, err)
	assert.Equal(t, uint64(70), pct.Uint64())
	zero := amount(0)
	pct, err = Percentage(&majority, &zero)
	require.NoError(t, err)
	assert.True(t, pct.IsZero())

	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 250)
	_, err = Percentage(huge, huge)
	assert.ErrorIs(t, err, ErrAmountOverflow)
}

func TestInputReputation(t *testing.T) {
	got, err := InputReputation(amount(1000), 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000_000_000), got.Uint64())
	got, err = InputReputation(amount(1000), 0)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
	got, err = InputReputation(amount(1000), 2_000_000_000_000)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	// 2^250 * 10^16 does not fit in 256 bits and must not wrap.
	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 250)
	_, err = InputReputation(*huge, 1_000_000)
	assert.ErrorIs(t, err, ErrAmountOverflow)
}

func TestAnalysisOutcomeHasNoInputReputation(t *testing.T) {
	s := NewAnalysis(grantProposal(t).AnalysisAcceptance(100), 0, 0)
	require.NoError(t, s.CastVote(bob, 1, amount(1000), amount(300), amount(0), For))
	require.NoError(t, s.CastVote(carol, 1, amount(1000), amount(200), amount(0), For))
	res, err := s.CalculateVoteOutcome(100, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, ResultApproved, res)
	assert.True(t, s.InputReputation.IsZero())
}

func TestOutcomeOverflow(t *testing.T) {
	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 250)
	s := NewAnalysis(grantProposal(t).AnalysisAcceptance(100), 0, 0)
	require.NoError(t, s.CastVote(bob, 1, *huge, *huge, amount(0), For))
	require.NoError(t, s.CastVote(carol, 1, amount(10), amount(1), amount(0), Against))
	_, err := s.CalculateVoteOutcome(100, 1_000_000)
	assert.ErrorIs(t, err, ErrAmountOverflow)
	assert.Equal(t, ResultInVote, s.Result)
}

func TestOutcomeWrongPayload(t *testing.T) {
	s := votedSession(t)
	_, err := s.CalculateGovernanceVoteOutcome(100)
	assert.ErrorIs(t, err, ErrWrongPayload)
}

func TestSessionRoundTrip(t *testing.T) {
	s := votedSession(t)
	_, err := s.CalculateVoteOutcome(100, 1_000_000)
	require.NoError(t, err)
	_, err = s.ClaimReputation(bob)
	require.NoError(t, err)

	data, err := s.Serialize()
	require.NoError(t, err)
	got, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	analysis := NewAnalysis(grantProposal(t).AnalysisAcceptance(500), 7, 40)
	data, err = analysis.Serialize()
	require.NoError(t, err)
	got, err = Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, analysis, got)
}
