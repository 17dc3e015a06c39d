package voting

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calehh/rep-dao/proposal"
)

func approvedSession(t *testing.T) *Session {
	t.Helper()
	s := votedSession(t)
	res, err := s.CalculateVoteOutcome(100, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, ResultApproved, res)
	return s
}

func TestClaimReputationApprovedGrant(t *testing.T) {
	s := approvedSession(t)

	// proposer: shares 400*1000/7000 = 57, share 57*300/100 = 171,
	// bonus (100-20)% of 10^13
	e, err := s.ClaimReputation(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), e.Stake.Uint64())
	assert.Equal(t, uint64(171), e.Share.Uint64())
	assert.Equal(t, uint64(8_000_000_000_000), e.Bonus.Uint64())

	// policing voter: shares 42, share 126, bonus 2*10^12 * 42 / 100
	e, err = s.ClaimReputation(bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), e.Stake.Uint64())
	assert.Equal(t, uint64(126), e.Share.Uint64())
	assert.Equal(t, uint64(840_000_000_000), e.Bonus.Uint64())
	total := e.Total()
	assert.Equal(t, uint64(840_000_000_426), total.Uint64())

	assert.True(t, s.ForVoters[alice].Claimed)
	assert.True(t, s.ForVoters[bob].Claimed)
}

func TestClaimReputationTwice(t *testing.T) {
	s := approvedSession(t)
	_, err := s.ClaimReputation(bob)
	require.NoError(t, err)
	before, err := s.Serialize()
	require.NoError(t, err)

	_, err = s.ClaimReputation(bob)
	assert.ErrorIs(t, err, ErrReputationAlreadyClaimed)
	after, err := s.Serialize()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestClaimReputationLoserAndStranger(t *testing.T) {
	s := approvedSession(t)
	_, err := s.ClaimReputation(carol)
	assert.ErrorIs(t, err, ErrNoReputationToClaim)
	_, err = s.ClaimReputation(dave)
	assert.ErrorIs(t, err, ErrNoReputationToClaim)
	assert.False(t, s.AgainstVoters[carol].Claimed)
}

func TestClaimReputationRejected(t *testing.T) {
	p := grantProposal(t)
	s := NewGrant(p, 0)
	require.NoError(t, s.CastVote(bob, 1, amount(1000), amount(200), amount(0), For))
	require.NoError(t, s.CastVote(carol, 1, amount(1000), amount(400), amount(0), Against))
	require.NoError(t, s.CastVote(dave, 1, amount(1000), amount(400), amount(0), Against))
	res, err := s.CalculateVoteOutcome(100, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, ResultRejected, res)

	// shares 400*1000/8000 = 50, share 50*200/100 = 100, no bonus
	e, err := s.ClaimReputation(carol)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), e.Share.Uint64())
	assert.True(t, e.Bonus.IsZero())

	_, err = s.ClaimReputation(bob)
	assert.ErrorIs(t, err, ErrNoReputationToClaim)

	assert.Equal(t, []Stake{{Voter: bob, Amount: amount(200)}}, s.Losers())
}

func TestClaimOnFailedVote(t *testing.T) {
	p := grantProposal(t)
	p.VoteConfiguration.Threshold = 90
	s := NewGrant(p, 0)
	require.NoError(t, s.CastVote(bob, 1, amount(1000), amount(300), amount(0), For))
	require.NoError(t, s.CastVote(carol, 1, amount(1000), amount(200), amount(0), Against))
	res, err := s.CalculateVoteOutcome(100, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, ResultPassThresholdUnmet, res)
	assert.Nil(t, s.Losers())

	_, err = s.ClaimReputation(bob)
	assert.ErrorIs(t, err, ErrVoteFailed)

	refund, err := s.GetStake(carol)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), refund.Uint64())
	_, err = s.GetStake(carol)
	assert.ErrorIs(t, err, ErrReputationAlreadyClaimed)
	_, err = s.GetStake(dave)
	assert.ErrorIs(t, err, ErrNoReputationToClaim)
}

func TestGetStakeOnDecidedVote(t *testing.T) {
	s := approvedSession(t)
	_, err := s.GetStake(bob)
	assert.ErrorIs(t, err, ErrVoteDidNotFail)

	open := NewGrant(grantProposal(t), 0)
	_, err = open.GetStake(bob)
	assert.ErrorIs(t, err, ErrVoteDidNotFail)
	_, err = open.ClaimReputation(bob)
	assert.ErrorIs(t, err, ErrVoteFailed)
}

func TestPreviewClaimDoesNotMark(t *testing.T) {
	s := approvedSession(t)
	e, err := s.PreviewClaim(bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(126), e.Share.Uint64())
	assert.False(t, s.ForVoters[bob].Claimed)
}

func TestClaimReputationOverflow(t *testing.T) {
	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 250)
	s := NewGrant(grantProposal(t), 10)
	s.ForVoters[bob] = VotingData{ReputationStaked: *huge, Direction: For}
	s.ForVotes = *huge
	s.TotalStakedReputation = *huge
	s.Result = ResultApproved

	_, err := s.ClaimReputation(bob)
	assert.ErrorIs(t, err, ErrAmountOverflow)
	assert.False(t, s.ForVoters[bob].Claimed)
}

func governanceSession(t *testing.T, threshold uint8) *Session {
	t.Helper()
	g, err := proposal.NewGovernance(&proposal.CreateGovernanceArgs{
		Name:           "ratio",
		Proposer:       alice,
		ParameterName:  "update_reputation_allocation_ratio",
		ParameterValue: "42",
		VoteConfiguration: proposal.GovernanceVoteConfiguration{
			FullVoteQuorum:    amount(100),
			FullVoteThreshold: threshold,
			Timeout:           100,
		},
		ProposerReputationBalance: amount(1000),
	})
	require.NoError(t, err)
	return NewGovernance(g, 0)
}

func TestGovernanceTwoPhaseExecution(t *testing.T) {
	s := governanceSession(t, 50)
	require.NoError(t, s.CastVote(bob, 1, amount(1000), amount(800), amount(0), For))
	require.NoError(t, s.CastVote(carol, 1, amount(1000), amount(200), amount(0), Against))

	_, err := s.CalculateGovernanceVoteOutcome(50)
	assert.ErrorIs(t, err, ErrVotingOngoing)

	out, err := s.CalculateGovernanceVoteOutcome(100)
	require.NoError(t, err)
	assert.Equal(t, ResultApproved, out.Result)
	assert.False(t, out.Executed)
	assert.Equal(t, "update_reputation_allocation_ratio", out.Change.Name())
	assert.Equal(t, "42", out.Change.Value())

	out, err = s.CalculateGovernanceVoteOutcome(101)
	require.NoError(t, err)
	assert.True(t, out.Executed)

	out, err = s.CalculateGovernanceVoteOutcome(102)
	require.NoError(t, err)
	assert.Equal(t, ResultApproved, out.Result)
	assert.False(t, out.Executed, "a change executes once")
}

func TestGovernanceNotApprovedNeverExecutes(t *testing.T) {
	s := governanceSession(t, 50)
	require.NoError(t, s.CastVote(bob, 1, amount(1000), amount(20), amount(0), For))

	for i := 0; i < 3; i++ {
		out, err := s.CalculateGovernanceVoteOutcome(100)
		require.NoError(t, err)
		assert.Equal(t, ResultReputationQuorumUnmet, out.Result)
		assert.False(t, out.Executed)
	}
}

func TestGovernanceSessionRoundTrip(t *testing.T) {
	s := governanceSession(t, 50)
	require.NoError(t, s.CastVote(bob, 1, amount(1000), amount(800), amount(0), For))
	_, err := s.CalculateGovernanceVoteOutcome(100)
	require.NoError(t, err)
	_, err = s.CalculateGovernanceVoteOutcome(100)
	require.NoError(t, err)
	require.True(t, s.Executed)

	data, err := s.Serialize()
	require.NoError(t, err)
	got, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}
