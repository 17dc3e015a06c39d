package project

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/calehh/rep-dao/proposal"
)

type recommendationRLP struct {
	Key   string
	Value string
}

type analysisRLP struct {
	VoteIndex       uint64
	IsFavorable     bool
	Recommendations []recommendationRLP
}

type projectRLP struct {
	Proposal        []byte
	ActiveMilestone uint64
	Status          uint8
	Claimed         [][]byte
	Analyses        []analysisRLP
}

func (p *Project) Serialize() ([]byte, error) {
	body, err := p.Proposal.Serialize()
	if err != nil {
		return nil, err
	}
	enc := projectRLP{
		Proposal:        body,
		ActiveMilestone: p.ActiveMilestone,
		Status:          uint8(p.Status),
		Claimed:         make([][]byte, 0, len(p.ClaimedMilestones)),
		Analyses:        make([]analysisRLP, 0, len(p.Analyses)),
	}
	for _, c := range p.ClaimedMilestones {
		m, err := proposal.EncodeMilestone(c.Index, c.Milestone)
		if err != nil {
			return nil, err
		}
		enc.Claimed = append(enc.Claimed, m)
	}
	keys := make([]uint64, 0, len(p.Analyses))
	for k := range p.Analyses {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		a := p.Analyses[k]
		enc.Analyses = append(enc.Analyses, analysisRLP{
			VoteIndex:       k,
			IsFavorable:     a.IsFavorable,
			Recommendations: encodeRecommendations(a.Recommendations),
		})
	}
	return rlp.EncodeToBytes(&enc)
}

func Deserialize(data []byte) (*Project, error) {
	var dec projectRLP
	if err := rlp.DecodeBytes(data, &dec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	prop, err := proposal.Deserialize(dec.Proposal)
	if err != nil {
		return nil, err
	}
	p := &Project{
		Proposal:          prop,
		ActiveMilestone:   dec.ActiveMilestone,
		Status:            Status(dec.Status),
		ClaimedMilestones: make([]ClaimedMilestone, 0, len(dec.Claimed)),
		Analyses:          make(map[uint64]MilestoneAnalysis, len(dec.Analyses)),
	}
	for _, c := range dec.Claimed {
		idx, m, err := proposal.DecodeMilestone(c)
		if err != nil {
			return nil, err
		}
		p.ClaimedMilestones = append(p.ClaimedMilestones, ClaimedMilestone{Index: idx, Milestone: m})
	}
	for _, a := range dec.Analyses {
		p.Analyses[a.VoteIndex] = MilestoneAnalysis{IsFavorable: a.IsFavorable, Recommendations: decodeRecommendations(a.Recommendations)}
	}
	return p, nil
}

// encodeRecommendations flattens the map into a key-sorted list.
func encodeRecommendations(m map[string]string) []recommendationRLP {
	out := make([]recommendationRLP, 0, len(m))
	for k, v := range m {
		out = append(out, recommendationRLP{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func decodeRecommendations(in []recommendationRLP) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for _, r := range in {
		out[r.Key] = r.Value
	}
	return out
}
