package proposal

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/calehh/rep-dao/types"
)

var (
	ErrInvalidPolicingRatio                  = errors.New("invalid policing ratio")
	ErrInvalidCategory                       = errors.New("invalid category")
	ErrStakedRepGreaterThanReputationBalance = errors.New("staked reputation greater than reputation balance")
	ErrProjectCostNotEqualToMilestonesSum    = errors.New("project cost not equal to milestones sum")
	ErrInvalidMilestonesProgressPercentages  = errors.New("milestone progress percentages do not sum to 100")
	ErrAmountOverflow                        = errors.New("amount overflow")
)

type ProposalType uint8

const (
	TypeGrant ProposalType = iota
	TypeGovernance
	TypeAnalysisAcceptance
)

func (t ProposalType) String() string {
	switch t {
	case TypeGrant:
		return "grant"
	case TypeGovernance:
		return "governance"
	case TypeAnalysisAcceptance:
		return "analysis_acceptance"
	}
	return "unknown"
}

type ProposalStatus uint8

const (
	StatusWaitingFullVote ProposalStatus = iota
	StatusInFullVote
	StatusFullVoteComplete
)

// Milestone result codes. A milestone stays pending until an analysis of it
// is accepted.
const (
	MilestoneResultUnfavorable uint8 = iota
	MilestoneResultFavorable
	MilestoneResultPending
)

// MaxCategory is the highest accepted grant category.
const MaxCategory uint8 = 1

// maxCost keeps the approved bonus pool, cost scaled by 10^16, inside 256 bits.
var maxCost = new(uint256.Int).Div(
	new(uint256.Int).SetAllOne(),
	uint256.NewInt(10_000_000_000_000_000),
)

type FundingTranche struct {
	Type                 uint8       `json:"type"`
	Amount               uint256.Int `json:"amount"`
	ReputationAllocation uint256.Int `json:"reputation_allocation"`
}

type Milestone struct {
	Type                uint8                     `json:"type"`
	ProgressPercentage  uint8                     `json:"progress_percentage"`
	Result              uint8                     `json:"result"`
	FundingTranches     map[uint64]FundingTranche `json:"funding_tranches"`
	FundingTranchesSize uint64                    `json:"funding_tranches_size"`
	Timeout             uint64                    `json:"timeout"`
}

// Amount is the sum of the milestone's tranche amounts.
func (m *Milestone) Amount() (uint256.Int, error) {
	var sum uint256.Int
	for _, tr := range m.FundingTranches {
		if _, overflow := sum.AddOverflow(&sum, &tr.Amount); overflow {
			return uint256.Int{}, ErrAmountOverflow
		}
	}
	return sum, nil
}

type Ratios struct {
	Policing uint8 `json:"policing_ratio"`
	OP       uint8 `json:"op_ratio"`
	Citation uint8 `json:"citation_ratio"`
}

type VoteConfiguration struct {
	MemberQuorum      uint64      `json:"member_quorum"`
	ReputationQuorum  uint256.Int `json:"reputation_quorum"`
	Threshold         uint8       `json:"threshold"`
	Timeout           uint64      `json:"timeout"`
	VoterStakingLimit uint8       `json:"voter_staking_limit"`
}

// Proposal is a funding request. Everything but Status is fixed once built.
type Proposal struct {
	Name               string                            `json:"name"`
	StoragePointer     string                            `json:"storage_pointer"`
	StorageFingerprint string                            `json:"storage_fingerprint"`
	Type               ProposalType                      `json:"proposal_type"`
	Category           uint8                             `json:"category"`
	Proposer           types.AccountHash                 `json:"proposer"`
	Citations          []uint64                          `json:"citations"`
	Ratios             Ratios                            `json:"ratios"`
	VoteConfiguration  VoteConfiguration                 `json:"vote_configuration"`
	Milestones         map[uint64]Milestone              `json:"milestones"`
	Status             ProposalStatus                    `json:"proposal_status"`
	Sponsors           map[types.AccountHash]uint256.Int `json:"sponsors"`
	Cost               uint256.Int                       `json:"cost"`
}

type MilestoneSpec struct {
	Type               uint8            `json:"type"`
	ProgressPercentage uint8            `json:"progress_percentage"`
	Tranches           []FundingTranche `json:"tranches"`
	Timeout            uint64           `json:"timeout"`
}

type Sponsor struct {
	Account types.AccountHash `json:"account"`
	Amount  uint256.Int       `json:"amount"`
}

type CreateArgs struct {
	Name                      string
	StoragePointer            string
	StorageFingerprint        string
	Category                  uint8
	Citations                 []uint64
	Ratios                    Ratios
	VoteConfiguration         VoteConfiguration
	Milestones                []MilestoneSpec
	StakedRep                 uint256.Int
	Proposer                  types.AccountHash
	SystemPolicingRatio       uint8
	ProposerReputationBalance uint256.Int
	Sponsors                  []Sponsor
	Cost                      uint256.Int
}

// New validates args and returns a grant proposal open for its full vote.
func New(args *CreateArgs) (*Proposal, error) {
	if args.Ratios.Policing < args.SystemPolicingRatio || args.Ratios.Policing > 100 {
		return nil, ErrInvalidPolicingRatio
	}
	if args.Category > MaxCategory {
		return nil, ErrInvalidCategory
	}
	if args.StakedRep.Gt(&args.ProposerReputationBalance) {
		return nil, ErrStakedRepGreaterThanReputationBalance
	}

	milestones := make(map[uint64]Milestone, len(args.Milestones))
	var milestonesSum uint256.Int
	var progressSum uint64
	for i, spec := range args.Milestones {
		tranches := make(map[uint64]FundingTranche, len(spec.Tranches))
		for j, tr := range spec.Tranches {
			tranches[uint64(j)] = tr
			if _, overflow := milestonesSum.AddOverflow(&milestonesSum, &tr.Amount); overflow {
				return nil, ErrAmountOverflow
			}
		}
		progressSum += uint64(spec.ProgressPercentage)
		milestones[uint64(i)] = Milestone{
			Type:                spec.Type,
			ProgressPercentage:  spec.ProgressPercentage,
			Result:              MilestoneResultPending,
			FundingTranches:     tranches,
			FundingTranchesSize: uint64(len(spec.Tranches)),
			Timeout:             spec.Timeout,
		}
	}
	if !args.Cost.Eq(&milestonesSum) {
		return nil, ErrProjectCostNotEqualToMilestonesSum
	}
	if args.Cost.Gt(maxCost) {
		return nil, ErrAmountOverflow
	}
	if progressSum != 100 {
		return nil, ErrInvalidMilestonesProgressPercentages
	}

	return &Proposal{
		Name:               args.Name,
		StoragePointer:     args.StoragePointer,
		StorageFingerprint: args.StorageFingerprint,
		Type:               TypeGrant,
		Category:           args.Category,
		Proposer:           args.Proposer,
		Citations:          append(make([]uint64, 0, len(args.Citations)), args.Citations...),
		Ratios:             args.Ratios,
		VoteConfiguration:  args.VoteConfiguration,
		Milestones:         milestones,
		Status:             StatusInFullVote,
		Sponsors:           sponsorMap(args.Sponsors),
		Cost:               args.Cost,
	}, nil
}

func sponsorMap(sponsors []Sponsor) map[types.AccountHash]uint256.Int {
	m := make(map[types.AccountHash]uint256.Int, len(sponsors))
	for _, s := range sponsors {
		m[s.Account] = s.Amount
	}
	return m
}

// AnalysisAcceptance derives the proposal voted on when a milestone analysis
// is submitted. The copy gets its own vote deadline.
func (p *Proposal) AnalysisAcceptance(timeout uint64) *Proposal {
	cp := p.Clone()
	cp.Type = TypeAnalysisAcceptance
	cp.Status = StatusInFullVote
	cp.VoteConfiguration.Timeout = timeout
	return cp
}

// MilestoneCount is the number of milestones in the proposal.
func (p *Proposal) MilestoneCount() uint64 {
	return uint64(len(p.Milestones))
}

func (p *Proposal) Clone() *Proposal {
	cp := *p
	cp.Citations = append(make([]uint64, 0, len(p.Citations)), p.Citations...)
	cp.Milestones = make(map[uint64]Milestone, len(p.Milestones))
	for k, m := range p.Milestones {
		tranches := make(map[uint64]FundingTranche, len(m.FundingTranches))
		for j, tr := range m.FundingTranches {
			tranches[j] = tr
		}
		m.FundingTranches = tranches
		cp.Milestones[k] = m
	}
	cp.Sponsors = make(map[types.AccountHash]uint256.Int, len(p.Sponsors))
	for k, v := range p.Sponsors {
		cp.Sponsors[k] = v
	}
	return &cp
}
