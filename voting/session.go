package voting

import (
	"bytes"
	"errors"
	"sort"

	"github.com/holiman/uint256"

	"github.com/calehh/rep-dao/proposal"
	"github.com/calehh/rep-dao/types"
)

var (
	ErrAlreadyVoted             = errors.New("already voted")
	ErrVotingEnded              = errors.New("voting ended")
	ErrVotingNotOngoing         = errors.New("voting not ongoing")
	ErrVotingOngoing            = errors.New("voting ongoing")
	ErrInvalidReputationToStake = errors.New("invalid reputation to stake")
	ErrStakingLimitReached      = errors.New("staking limit reached")
	ErrReputationAlreadyClaimed = errors.New("reputation already claimed")
	ErrNoReputationToClaim      = errors.New("no reputation to claim")
	ErrVoteDidNotFail           = errors.New("vote did not fail")
	ErrVoteFailed               = errors.New("vote failed")
	ErrWrongPayload             = errors.New("wrong session payload")
	ErrInvalidEncoding          = errors.New("invalid session encoding")
	ErrAmountOverflow           = errors.New("reputation amount overflow")
)

type Direction uint8

const (
	Against Direction = iota
	For
)

func (d Direction) String() string {
	if d == For {
		return "for"
	}
	return "against"
}

type VoteResult uint8

const (
	ResultInVote VoteResult = iota
	ResultFailCriteriaUnmet
	ResultApproved
	ResultRejected
	ResultMemberQuorumUnmet
	ResultReputationQuorumUnmet
	ResultPassThresholdUnmet
	ResultFailThresholdUnmet
)

var resultNames = [...]string{
	"in_vote",
	"fail_criteria_unmet",
	"approved",
	"rejected",
	"member_quorum_unmet",
	"reputation_quorum_unmet",
	"pass_threshold_unmet",
	"fail_threshold_unmet",
}

func (r VoteResult) String() string {
	if int(r) < len(resultNames) {
		return resultNames[r]
	}
	return "unknown"
}

// Decided reports whether the vote reached a majority that settles stakes.
func (r VoteResult) Decided() bool {
	return r == ResultApproved || r == ResultRejected
}

// Failed reports whether the vote ended without a valid decision. Stakes of
// failed votes are refunded.
func (r VoteResult) Failed() bool {
	switch r {
	case ResultFailCriteriaUnmet, ResultMemberQuorumUnmet, ResultReputationQuorumUnmet,
		ResultPassThresholdUnmet, ResultFailThresholdUnmet:
		return true
	}
	return false
}

type VotingData struct {
	ReputationStaked uint256.Int `json:"reputation_staked"`
	Direction        Direction   `json:"direction"`
	Claimed          bool        `json:"claimed"`
}

// Payload is what a session votes on: a grant, a governance change or the
// acceptance of a milestone analysis.
type Payload interface {
	Type() proposal.ProposalType
	timeout() uint64
	status() proposal.ProposalStatus
	proposer() types.AccountHash
}

type GrantPayload struct {
	Proposal *proposal.Proposal
}

func (GrantPayload) Type() proposal.ProposalType { return proposal.TypeGrant }
func (p GrantPayload) timeout() uint64 { return p.Proposal.VoteConfiguration.Timeout }
func (p GrantPayload) status() proposal.ProposalStatus { return p.Proposal.Status }
func (p GrantPayload) proposer() types.AccountHash { return p.Proposal.Proposer }

type AnalysisPayload struct {
	Proposal *proposal.Proposal
	Project  uint64
}

func (AnalysisPayload) Type() proposal.ProposalType { return proposal.TypeAnalysisAcceptance }
func (p AnalysisPayload) timeout() uint64 { return p.Proposal.VoteConfiguration.Timeout }
func (p AnalysisPayload) status() proposal.ProposalStatus { return p.Proposal.Status }
func (p AnalysisPayload) proposer() types.AccountHash { return p.Proposal.Proposer }

type GovernancePayload struct {
	Proposal *proposal.GovernanceProposal
}

func (GovernancePayload) Type() proposal.ProposalType { return proposal.TypeGovernance }
func (p GovernancePayload) timeout() uint64 { return p.Proposal.VoteConfiguration.Timeout }
func (p GovernancePayload) status() proposal.ProposalStatus { return p.Proposal.Status }
func (p GovernancePayload) proposer() types.AccountHash { return p.Proposal.Proposer }

type Session struct {
	StartTime             uint64                           `json:"start_time"`
	TotalMembers          uint64                           `json:"total_members"`
	TotalStakedReputation uint256.Int                      `json:"total_staked_reputation"`
	Payload               Payload                          `json:"payload"`
	ForVotes              uint256.Int                      `json:"for_votes"`
	AgainstVotes          uint256.Int                      `json:"against_votes"`
	InputReputation       uint256.Int                      `json:"input_reputation"`
	Escrow                types.AccountHash                `json:"escrow"`
	ForVoters             map[types.AccountHash]VotingData `json:"for_voters"`
	AgainstVoters         map[types.AccountHash]VotingData `json:"against_voters"`
	Result                VoteResult                       `json:"result"`
	Executed              bool                             `json:"executed"`
}

func newSession(payload Payload, now uint64) *Session {
	return &Session{
		StartTime:     now,
		Payload:       payload,
		ForVoters:     make(map[types.AccountHash]VotingData),
		AgainstVoters: make(map[types.AccountHash]VotingData),
		Result:        ResultInVote,
	}
}

func NewGrant(p *proposal.Proposal, now uint64) *Session {
	return newSession(GrantPayload{Proposal: p}, now)
}

func NewAnalysis(p *proposal.Proposal, project uint64, now uint64) *Session {
	return newSession(AnalysisPayload{Proposal: p, Project: project}, now)
}

func NewGovernance(g *proposal.GovernanceProposal, now uint64) *Session {
	return newSession(GovernancePayload{Proposal: g}, now)
}

func (s *Session) Timeout() uint64 {
	return s.Payload.timeout()
}

func (s *Session) Proposer() types.AccountHash {
	return s.Payload.proposer()
}

// Vote returns the voting data recorded for voter, if any.
func (s *Session) Vote(voter types.AccountHash) (VotingData, bool) {
	if d, ok := s.ForVoters[voter]; ok {
		return d, true
	}
	d, ok := s.AgainstVoters[voter]
	return d, ok
}

// CastVote records a stake for voter. balance is the voter's reputation and
// committed the part of it already staked in other undecided sessions.
func (s *Session) CastVote(voter types.AccountHash, now uint64, balance, stake, committed uint256.Int, dir Direction) error {
	if err := s.checkVote(voter, now, &balance, &stake, &committed); err != nil {
		return err
	}
	if g, ok := s.Payload.(GrantPayload); ok {
		if limit := g.Proposal.VoteConfiguration.VoterStakingLimit; limit > 0 {
			lhs, err := mulOverflow(&stake, uint256.NewInt(100))
			if err != nil {
				return err
			}
			rhs, err := mulOverflow(&balance, uint256.NewInt(uint64(limit)))
			if err != nil {
				return err
			}
			if lhs.Gt(rhs) {
				return ErrStakingLimitReached
			}
		}
	}
	s.record(voter, stake, dir)
	return nil
}

// CastProposerVote records the stake the proposer put behind the proposal
// when it was created. It is a For vote and skips the staking limit.
func (s *Session) CastProposerVote(now uint64, balance, stake, committed uint256.Int) error {
	voter := s.Proposer()
	if err := s.checkVote(voter, now, &balance, &stake, &committed); err != nil {
		return err
	}
	s.record(voter, stake, For)
	return nil
}

func (s *Session) checkVote(voter types.AccountHash, now uint64, balance, stake, committed *uint256.Int) error {
	if _, ok := s.Vote(voter); ok {
		return ErrAlreadyVoted
	}
	if now > s.Payload.timeout() {
		return ErrVotingEnded
	}
	if s.Payload.status() != proposal.StatusInFullVote || s.Result != ResultInVote {
		return ErrVotingNotOngoing
	}
	if stake.IsZero() || committed.Gt(balance) {
		return ErrInvalidReputationToStake
	}
	free := new(uint256.Int).Sub(balance, committed)
	if stake.Gt(free) {
		return ErrInvalidReputationToStake
	}
	return nil
}

func (s *Session) record(voter types.AccountHash, stake uint256.Int, dir Direction) {
	data := VotingData{ReputationStaked: stake, Direction: dir}
	if dir == For {
		s.ForVoters[voter] = data
		s.ForVotes.Add(&s.ForVotes, &stake)
	} else {
		s.AgainstVoters[voter] = data
		s.AgainstVotes.Add(&s.AgainstVotes, &stake)
	}
	s.TotalStakedReputation.Add(&s.TotalStakedReputation, &stake)
	s.TotalMembers++
}

// Stake is one voter's entry, used when settling a whole side.
type Stake struct {
	Voter  types.AccountHash
	Amount uint256.Int
}

// Losers lists the losing side of a decided vote in ascending voter order.
func (s *Session) Losers() []Stake {
	switch s.Result {
	case ResultApproved:
		return sortedStakes(s.AgainstVoters)
	case ResultRejected:
		return sortedStakes(s.ForVoters)
	}
	return nil
}

func sortedStakes(m map[types.AccountHash]VotingData) []Stake {
	out := make([]Stake, 0, len(m))
	for k, v := range m {
		out = append(out, Stake{Voter: k, Amount: v.ReputationStaked})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Voter[:], out[j].Voter[:]) < 0
	})
	return out
}
