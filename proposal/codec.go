package proposal

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/calehh/rep-dao/governance"
	"github.com/calehh/rep-dao/types"
)

var ErrInvalidEncoding = errors.New("invalid proposal encoding")

// Maps are written as lists sorted by ascending key so that equal values
// always produce equal bytes.

type trancheRLP struct {
	Index                uint64
	Type                 uint8
	Amount               *big.Int
	ReputationAllocation *big.Int
}

type milestoneRLP struct {
	Index               uint64
	Type                uint8
	ProgressPercentage  uint8
	Result              uint8
	Tranches            []trancheRLP
	FundingTranchesSize uint64
	Timeout             uint64
}

type sponsorRLP struct {
	Account common.Hash
	Amount  *big.Int
}

type proposalRLP struct {
	Name               string
	StoragePointer     string
	StorageFingerprint string
	Type               uint8
	Category           uint8
	Proposer           common.Hash
	Citations          []uint64
	PolicingRatio      uint8
	OPRatio            uint8
	CitationRatio      uint8
	MemberQuorum       uint64
	ReputationQuorum   *big.Int
	Threshold          uint8
	Timeout            uint64
	VoterStakingLimit  uint8
	Milestones         []milestoneRLP
	Status             uint8
	Sponsors           []sponsorRLP
	Cost               *big.Int
}

type governanceRLP struct {
	Name                      string
	Repository                string
	Proposer                  common.Hash
	Sponsors                  []sponsorRLP
	TransitionVoteQuorum      *big.Int
	TransitionVoteThreshold   uint8
	ProposalRepositoryAddress common.Hash
	FullVoteQuorum            *big.Int
	FullVoteThreshold         uint8
	Timeout                   uint64
	ParamKind                 uint8
	ParamUint                 uint64
	ParamHash                 common.Hash
	Status                    uint8
}

func (p *Proposal) Serialize() ([]byte, error) {
	enc := proposalRLP{
		Name:               p.Name,
		StoragePointer:     p.StoragePointer,
		StorageFingerprint: p.StorageFingerprint,
		Type:               uint8(p.Type),
		Category:           p.Category,
		Proposer:           p.Proposer,
		Citations:          p.Citations,
		PolicingRatio:      p.Ratios.Policing,
		OPRatio:            p.Ratios.OP,
		CitationRatio:      p.Ratios.Citation,
		MemberQuorum:       p.VoteConfiguration.MemberQuorum,
		ReputationQuorum:   types.AmountToBig(p.VoteConfiguration.ReputationQuorum),
		Threshold:          p.VoteConfiguration.Threshold,
		Timeout:            p.VoteConfiguration.Timeout,
		VoterStakingLimit:  p.VoteConfiguration.VoterStakingLimit,
		Milestones:         make([]milestoneRLP, 0, len(p.Milestones)),
		Status:             uint8(p.Status),
		Sponsors:           encodeSponsors(p.Sponsors),
		Cost:               types.AmountToBig(p.Cost),
	}
	for _, idx := range sortedKeys(p.Milestones) {
		enc.Milestones = append(enc.Milestones, encodeMilestone(idx, p.Milestones[idx]))
	}
	return rlp.EncodeToBytes(&enc)
}

func Deserialize(data []byte) (*Proposal, error) {
	var dec proposalRLP
	if err := rlp.DecodeBytes(data, &dec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	p := &Proposal{
		Name:               dec.Name,
		StoragePointer:     dec.StoragePointer,
		StorageFingerprint: dec.StorageFingerprint,
		Type:               ProposalType(dec.Type),
		Category:           dec.Category,
		Proposer:           dec.Proposer,
		Citations:          append(make([]uint64, 0, len(dec.Citations)), dec.Citations...),
		Ratios: Ratios{
			Policing: dec.PolicingRatio,
			OP:       dec.OPRatio,
			Citation: dec.CitationRatio,
		},
		VoteConfiguration: VoteConfiguration{
			MemberQuorum:      dec.MemberQuorum,
			Threshold:         dec.Threshold,
			Timeout:           dec.Timeout,
			VoterStakingLimit: dec.VoterStakingLimit,
		},
		Milestones: make(map[uint64]Milestone, len(dec.Milestones)),
		Status:     ProposalStatus(dec.Status),
	}
	var err error
	if p.VoteConfiguration.ReputationQuorum, err = types.AmountFromBig(dec.ReputationQuorum); err != nil {
		return nil, err
	}
	if p.Cost, err = types.AmountFromBig(dec.Cost); err != nil {
		return nil, err
	}
	if p.Sponsors, err = decodeSponsors(dec.Sponsors); err != nil {
		return nil, err
	}
	for _, em := range dec.Milestones {
		m, err := decodeMilestone(&em)
		if err != nil {
			return nil, err
		}
		p.Milestones[em.Index] = m
	}
	return p, nil
}

func (g *GovernanceProposal) Serialize() ([]byte, error) {
	vc := g.VoteConfiguration
	return rlp.EncodeToBytes(&governanceRLP{
		Name:                      g.Name,
		Repository:                g.Repository,
		Proposer:                  g.Proposer,
		Sponsors:                  encodeSponsors(g.Sponsors),
		TransitionVoteQuorum:      types.AmountToBig(vc.TransitionVoteQuorum),
		TransitionVoteThreshold:   vc.TransitionVoteThreshold,
		ProposalRepositoryAddress: vc.ProposalRepositoryAddress,
		FullVoteQuorum:            types.AmountToBig(vc.FullVoteQuorum),
		FullVoteThreshold:         vc.FullVoteThreshold,
		Timeout:                   vc.Timeout,
		ParamKind:                 uint8(g.Change.Kind),
		ParamUint:                 g.Change.Uint,
		ParamHash:                 g.Change.Hash,
		Status:                    uint8(g.Status),
	})
}

func DeserializeGovernance(data []byte) (*GovernanceProposal, error) {
	var dec governanceRLP
	if err := rlp.DecodeBytes(data, &dec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	kind := governance.ParamKind(dec.ParamKind)
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: kind %d", governance.ErrUnknownParameter, dec.ParamKind)
	}
	g := &GovernanceProposal{
		Name:       dec.Name,
		Repository: dec.Repository,
		Proposer:   dec.Proposer,
		VoteConfiguration: GovernanceVoteConfiguration{
			TransitionVoteThreshold:   dec.TransitionVoteThreshold,
			ProposalRepositoryAddress: dec.ProposalRepositoryAddress,
			FullVoteThreshold:         dec.FullVoteThreshold,
			Timeout:                   dec.Timeout,
		},
		Change: governance.ParamChange{Kind: kind, Uint: dec.ParamUint, Hash: dec.ParamHash},
		Status: ProposalStatus(dec.Status),
	}
	var err error
	if g.VoteConfiguration.TransitionVoteQuorum, err = types.AmountFromBig(dec.TransitionVoteQuorum); err != nil {
		return nil, err
	}
	if g.VoteConfiguration.FullVoteQuorum, err = types.AmountFromBig(dec.FullVoteQuorum); err != nil {
		return nil, err
	}
	if g.Sponsors, err = decodeSponsors(dec.Sponsors); err != nil {
		return nil, err
	}
	return g, nil
}

func encodeMilestone(idx uint64, m Milestone) milestoneRLP {
	em := milestoneRLP{
		Index:               idx,
		Type:                m.Type,
		ProgressPercentage:  m.ProgressPercentage,
		Result:              m.Result,
		Tranches:            make([]trancheRLP, 0, len(m.FundingTranches)),
		FundingTranchesSize: m.FundingTranchesSize,
		Timeout:             m.Timeout,
	}
	for _, j := range sortedKeys(m.FundingTranches) {
		tr := m.FundingTranches[j]
		em.Tranches = append(em.Tranches, trancheRLP{
			Index:                j,
			Type:                 tr.Type,
			Amount:               types.AmountToBig(tr.Amount),
			ReputationAllocation: types.AmountToBig(tr.ReputationAllocation),
		})
	}
	return em
}

func decodeMilestone(em *milestoneRLP) (Milestone, error) {
	m := Milestone{
		Type:                em.Type,
		ProgressPercentage:  em.ProgressPercentage,
		Result:              em.Result,
		FundingTranches:     make(map[uint64]FundingTranche, len(em.Tranches)),
		FundingTranchesSize: em.FundingTranchesSize,
		Timeout:             em.Timeout,
	}
	for _, et := range em.Tranches {
		var err error
		tr := FundingTranche{Type: et.Type}
		if tr.Amount, err = types.AmountFromBig(et.Amount); err != nil {
			return Milestone{}, err
		}
		if tr.ReputationAllocation, err = types.AmountFromBig(et.ReputationAllocation); err != nil {
			return Milestone{}, err
		}
		m.FundingTranches[et.Index] = tr
	}
	return m, nil
}

// EncodeMilestone serializes a single milestone together with its index.
func EncodeMilestone(idx uint64, m Milestone) ([]byte, error) {
	em := encodeMilestone(idx, m)
	return rlp.EncodeToBytes(&em)
}

func DecodeMilestone(data []byte) (uint64, Milestone, error) {
	var em milestoneRLP
	if err := rlp.DecodeBytes(data, &em); err != nil {
		return 0, Milestone{}, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	m, err := decodeMilestone(&em)
	return em.Index, m, err
}

func encodeSponsors(sponsors map[types.AccountHash]uint256.Int) []sponsorRLP {
	keys := make([]types.AccountHash, 0, len(sponsors))
	for k := range sponsors {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	out := make([]sponsorRLP, 0, len(keys))
	for _, k := range keys {
		out = append(out, sponsorRLP{Account: k, Amount: types.AmountToBig(sponsors[k])})
	}
	return out
}

func decodeSponsors(in []sponsorRLP) (map[types.AccountHash]uint256.Int, error) {
	out := make(map[types.AccountHash]uint256.Int, len(in))
	for _, s := range in {
		amount, err := types.AmountFromBig(s.Amount)
		if err != nil {
			return nil, err
		}
		out[s.Account] = amount
	}
	return out, nil
}

func sortedKeys[V any](m map[uint64]V) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
