package voting

import (
	"github.com/holiman/uint256"

	"github.com/calehh/rep-dao/types"
)

// Entitlement is what a winning voter receives when claiming.
type Entitlement struct {
	Stake uint256.Int `json:"stake"`
	Share uint256.Int `json:"share"`
	Bonus uint256.Int `json:"bonus"`
}

func (e Entitlement) Total() uint256.Int {
	var t uint256.Int
	t.Add(&e.Stake, &e.Share)
	t.Add(&t, &e.Bonus)
	return t
}

// ClaimReputation settles the caller's stake on a decided vote and marks it
// claimed. Voters on the losing side have nothing to claim.
func (s *Session) ClaimReputation(caller types.AccountHash) (Entitlement, error) {
	winners, data, err := s.winner(caller)
	if err != nil {
		return Entitlement{}, err
	}
	if data.Claimed {
		return Entitlement{}, ErrReputationAlreadyClaimed
	}
	e, err := s.entitlement(caller, data)
	if err != nil {
		return Entitlement{}, err
	}
	data.Claimed = true
	winners[caller] = data
	return e, nil
}

// PreviewClaim computes the caller's entitlement without marking it claimed.
func (s *Session) PreviewClaim(caller types.AccountHash) (Entitlement, error) {
	_, data, err := s.winner(caller)
	if err != nil {
		return Entitlement{}, err
	}
	return s.entitlement(caller, data)
}

func (s *Session) winner(caller types.AccountHash) (map[types.AccountHash]VotingData, VotingData, error) {
	if !s.Result.Decided() {
		return nil, VotingData{}, ErrVoteFailed
	}
	winners := s.ForVoters
	if s.Result == ResultRejected {
		winners = s.AgainstVoters
	}
	data, ok := winners[caller]
	if !ok {
		return nil, VotingData{}, ErrNoReputationToClaim
	}
	return winners, data, nil
}

// GetStake refunds the caller's stake on a vote that failed its quorum or
// threshold.
func (s *Session) GetStake(caller types.AccountHash) (uint256.Int, error) {
	if !s.Result.Failed() {
		return uint256.Int{}, ErrVoteDidNotFail
	}
	voters := s.ForVoters
	data, ok := voters[caller]
	if !ok {
		voters = s.AgainstVoters
		data, ok = voters[caller]
	}
	if !ok {
		return uint256.Int{}, ErrNoReputationToClaim
	}
	if data.Claimed {
		return uint256.Int{}, ErrReputationAlreadyClaimed
	}
	data.Claimed = true
	voters[caller] = data
	return data.ReputationStaked, nil
}

func (s *Session) entitlement(caller types.AccountHash, data VotingData) (Entitlement, error) {
	majority, minority := &s.ForVotes, &s.AgainstVotes
	if s.Result == ResultRejected {
		majority, minority = &s.AgainstVotes, &s.ForVotes
	}
	e := Entitlement{Stake: data.ReputationStaked}
	if majority.IsZero() {
		return e, nil
	}

	// voter_shares = stake*1000/(10*majority), share = voter_shares*minority/100
	shares, err := mulOverflow(&data.ReputationStaked, uint256.NewInt(1000))
	if err != nil {
		return Entitlement{}, err
	}
	den, err := mulOverflow(majority, uint256.NewInt(10))
	if err != nil {
		return Entitlement{}, err
	}
	shares.Div(shares, den)
	share, err := mulOverflow(shares, minority)
	if err != nil {
		return Entitlement{}, err
	}
	e.Share = *share.Div(share, uint256.NewInt(100))

	g, ok := s.Payload.(GrantPayload)
	if !ok || s.Result != ResultApproved || s.InputReputation.IsZero() {
		return e, nil
	}
	// The proposer takes the OP pool. Everyone else splits the policing pool
	// by voter shares, so the proposer's own shares of it stay in escrow.
	policing := uint64(min(g.Proposal.Ratios.Policing, 100))
	opPool, err := mulOverflow(&s.InputReputation, uint256.NewInt(100-policing))
	if err != nil {
		return Entitlement{}, err
	}
	opPool.Div(opPool, uint256.NewInt(100))
	if caller == g.Proposal.Proposer {
		e.Bonus = *opPool
		return e, nil
	}
	policingPool := new(uint256.Int).Sub(&s.InputReputation, opPool)
	bonus, err := mulOverflow(policingPool, shares)
	if err != nil {
		return Entitlement{}, err
	}
	e.Bonus = *bonus.Div(bonus, uint256.NewInt(100))
	return e, nil
}
