package voting

import (
	"github.com/holiman/uint256"

	"github.com/calehh/rep-dao/governance"
	"github.com/calehh/rep-dao/proposal"
)

var (
	reputationScale = uint256.NewInt(10_000_000_000_000_000) // 10^16
	ratioScale      = uint256.NewInt(1_000_000_000_000)      // 10^12
)

// CalculateVoteOutcome evaluates a grant or analysis session once its vote
// deadline has passed. It may be called repeatedly; the result and the input
// reputation are recomputed, never accumulated.
func (s *Session) CalculateVoteOutcome(now uint64, reputationAllocationRatio uint64) (VoteResult, error) {
	var p *proposal.Proposal
	switch payload := s.Payload.(type) {
	case GrantPayload:
		p = payload.Proposal
	case AnalysisPayload:
		p = payload.Proposal
	default:
		return ResultInVote, ErrWrongPayload
	}
	if now < p.VoteConfiguration.Timeout {
		return ResultInVote, ErrVotingOngoing
	}
	if p.Status != proposal.StatusInFullVote {
		return ResultInVote, ErrVotingNotOngoing
	}

	vc := p.VoteConfiguration
	result, err := s.evaluate(vc.MemberQuorum, &vc.ReputationQuorum, vc.Threshold)
	if err != nil {
		return ResultInVote, err
	}
	var input uint256.Int
	if result == ResultApproved && p.Type == proposal.TypeGrant {
		if input, err = InputReputation(p.Cost, reputationAllocationRatio); err != nil {
			return ResultInVote, err
		}
	}
	s.InputReputation = input
	s.Result = result
	return result, nil
}

type GovernanceOutcome struct {
	Result   VoteResult
	Change   governance.ParamChange
	Executed bool
}

// CalculateGovernanceVoteOutcome evaluates a governance session. Executed is
// true exactly once: on the evaluation that sees Approved a second time in a
// row. The caller applies Change only then.
func (s *Session) CalculateGovernanceVoteOutcome(now uint64) (GovernanceOutcome, error) {
	payload, ok := s.Payload.(GovernancePayload)
	if !ok {
		return GovernanceOutcome{}, ErrWrongPayload
	}
	g := payload.Proposal
	if now < g.VoteConfiguration.Timeout {
		return GovernanceOutcome{}, ErrVotingOngoing
	}
	if g.Status != proposal.StatusInFullVote {
		return GovernanceOutcome{}, ErrVotingNotOngoing
	}

	vc := g.VoteConfiguration
	previous := s.Result
	result, err := s.evaluate(0, &vc.FullVoteQuorum, vc.FullVoteThreshold)
	if err != nil {
		return GovernanceOutcome{}, err
	}
	out := GovernanceOutcome{Result: result}
	if result == ResultApproved {
		out.Change = g.Change
		if previous == ResultApproved && !s.Executed {
			s.Executed = true
			out.Executed = true
		}
	}
	s.Result = result
	return out, nil
}

// evaluate applies quorum then threshold. A quorum failure is final.
func (s *Session) evaluate(memberQuorum uint64, reputationQuorum *uint256.Int, threshold uint8) (VoteResult, error) {
	if s.TotalMembers < memberQuorum {
		return ResultMemberQuorumUnmet, nil
	}
	if s.TotalStakedReputation.Lt(reputationQuorum) {
		return ResultReputationQuorumUnmet, nil
	}

	forMajority := s.ForVotes.Gt(&s.AgainstVotes)
	majority := &s.AgainstVotes
	if forMajority {
		majority = &s.ForVotes
	}
	pct, err := Percentage(majority, &s.TotalStakedReputation)
	if err != nil {
		return ResultInVote, err
	}
	if pct.Cmp(uint256.NewInt(uint64(threshold))) <= 0 {
		if forMajority {
			return ResultPassThresholdUnmet, nil
		}
		return ResultFailThresholdUnmet, nil
	}
	if forMajority {
		return ResultApproved, nil
	}
	return ResultRejected, nil
}

// Percentage returns majority*10000/(100*total), zero for an empty vote.
func Percentage(majority, total *uint256.Int) (*uint256.Int, error) {
	if total.IsZero() {
		return new(uint256.Int), nil
	}
	num, err := mulOverflow(majority, uint256.NewInt(10000))
	if err != nil {
		return nil, err
	}
	den, err := mulOverflow(total, uint256.NewInt(100))
	if err != nil {
		return nil, err
	}
	return num.Div(num, den), nil
}

// InputReputation is the bonus pool of an approved grant:
// cost*10^16/(10^12/ratio).
func InputReputation(cost uint256.Int, reputationAllocationRatio uint64) (uint256.Int, error) {
	if reputationAllocationRatio == 0 {
		return uint256.Int{}, nil
	}
	den := new(uint256.Int).Div(ratioScale, uint256.NewInt(reputationAllocationRatio))
	if den.IsZero() {
		return uint256.Int{}, nil
	}
	num, err := mulOverflow(&cost, reputationScale)
	if err != nil {
		return uint256.Int{}, err
	}
	return *num.Div(num, den), nil
}

func mulOverflow(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrAmountOverflow
	}
	return z, nil
}
