package proposal

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/calehh/rep-dao/governance"
	"github.com/calehh/rep-dao/types"
)

// GovernanceVoteConfiguration carries the two-phase vote settings of a
// parameter change. Outcomes are evaluated against the full-vote values.
type GovernanceVoteConfiguration struct {
	TransitionVoteQuorum      uint256.Int `json:"transition_vote_quorum"`
	TransitionVoteThreshold   uint8       `json:"transition_vote_threshold"`
	ProposalRepositoryAddress common.Hash `json:"proposal_repository_address"`
	FullVoteQuorum            uint256.Int `json:"full_vote_quorum"`
	FullVoteThreshold         uint8       `json:"full_vote_threshold"`
	Timeout                   uint64      `json:"timeout"`
}

type GovernanceProposal struct {
	Name              string                            `json:"name"`
	Repository        string                            `json:"repository"`
	Proposer          types.AccountHash                 `json:"proposer"`
	Sponsors          map[types.AccountHash]uint256.Int `json:"sponsors"`
	VoteConfiguration GovernanceVoteConfiguration       `json:"vote_configuration"`
	Change            governance.ParamChange            `json:"change"`
	Status            ProposalStatus                    `json:"status"`
}

type CreateGovernanceArgs struct {
	Name                      string
	Repository                string
	Proposer                  types.AccountHash
	Sponsors                  []Sponsor
	VoteConfiguration         GovernanceVoteConfiguration
	ParameterName             string
	ParameterValue            string
	StakedRep                 uint256.Int
	ProposerReputationBalance uint256.Int
}

// NewGovernance validates args and decodes the parameter change. Unknown
// parameter names are rejected here rather than at execution.
func NewGovernance(args *CreateGovernanceArgs) (*GovernanceProposal, error) {
	if args.StakedRep.Gt(&args.ProposerReputationBalance) {
		return nil, ErrStakedRepGreaterThanReputationBalance
	}
	change, err := governance.DecodeParamChange(args.ParameterName, args.ParameterValue)
	if err != nil {
		return nil, err
	}
	return &GovernanceProposal{
		Name:              args.Name,
		Repository:        args.Repository,
		Proposer:          args.Proposer,
		Sponsors:          sponsorMap(args.Sponsors),
		VoteConfiguration: args.VoteConfiguration,
		Change:            change,
		Status:            StatusInFullVote,
	}, nil
}

func (g *GovernanceProposal) Clone() *GovernanceProposal {
	cp := *g
	cp.Sponsors = make(map[types.AccountHash]uint256.Int, len(g.Sponsors))
	for k, v := range g.Sponsors {
		cp.Sponsors[k] = v
	}
	return &cp
}
