package voting

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/calehh/rep-dao/proposal"
	"github.com/calehh/rep-dao/types"
)

type voterRLP struct {
	Voter     common.Hash
	Staked    *big.Int
	Direction uint8
	Claimed   bool
}

type sessionRLP struct {
	StartTime             uint64
	TotalMembers          uint64
	TotalStakedReputation *big.Int
	PayloadType           uint8
	Project               uint64
	Payload               []byte
	ForVotes              *big.Int
	AgainstVotes          *big.Int
	InputReputation       *big.Int
	Escrow                common.Hash
	ForVoters             []voterRLP
	AgainstVoters         []voterRLP
	Result                uint8
	Executed              bool
}

func (s *Session) Serialize() ([]byte, error) {
	enc := sessionRLP{
		StartTime:             s.StartTime,
		TotalMembers:          s.TotalMembers,
		TotalStakedReputation: types.AmountToBig(s.TotalStakedReputation),
		PayloadType:           uint8(s.Payload.Type()),
		ForVotes:              types.AmountToBig(s.ForVotes),
		AgainstVotes:          types.AmountToBig(s.AgainstVotes),
		InputReputation:       types.AmountToBig(s.InputReputation),
		Escrow:                s.Escrow,
		ForVoters:             encodeVoters(s.ForVoters),
		AgainstVoters:         encodeVoters(s.AgainstVoters),
		Result:                uint8(s.Result),
		Executed:              s.Executed,
	}
	var err error
	switch payload := s.Payload.(type) {
	case GrantPayload:
		enc.Payload, err = payload.Proposal.Serialize()
	case AnalysisPayload:
		enc.Project = payload.Project
		enc.Payload, err = payload.Proposal.Serialize()
	case GovernancePayload:
		enc.Payload, err = payload.Proposal.Serialize()
	default:
		return nil, ErrWrongPayload
	}
	if err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes(&enc)
}

func Deserialize(data []byte) (*Session, error) {
	var dec sessionRLP
	if err := rlp.DecodeBytes(data, &dec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	s := &Session{
		StartTime:    dec.StartTime,
		TotalMembers: dec.TotalMembers,
		Escrow:       dec.Escrow,
		Result:       VoteResult(dec.Result),
		Executed:     dec.Executed,
	}
	switch proposal.ProposalType(dec.PayloadType) {
	case proposal.TypeGrant:
		p, err := proposal.Deserialize(dec.Payload)
		if err != nil {
			return nil, err
		}
		s.Payload = GrantPayload{Proposal: p}
	case proposal.TypeAnalysisAcceptance:
		p, err := proposal.Deserialize(dec.Payload)
		if err != nil {
			return nil, err
		}
		s.Payload = AnalysisPayload{Proposal: p, Project: dec.Project}
	case proposal.TypeGovernance:
		g, err := proposal.DeserializeGovernance(dec.Payload)
		if err != nil {
			return nil, err
		}
		s.Payload = GovernancePayload{Proposal: g}
	default:
		return nil, fmt.Errorf("%w: payload type %d", ErrInvalidEncoding, dec.PayloadType)
	}

	var err error
	if s.TotalStakedReputation, err = types.AmountFromBig(dec.TotalStakedReputation); err != nil {
		return nil, err
	}
	if s.ForVotes, err = types.AmountFromBig(dec.ForVotes); err != nil {
		return nil, err
	}
	if s.AgainstVotes, err = types.AmountFromBig(dec.AgainstVotes); err != nil {
		return nil, err
	}
	if s.InputReputation, err = types.AmountFromBig(dec.InputReputation); err != nil {
		return nil, err
	}
	if s.ForVoters, err = decodeVoters(dec.ForVoters); err != nil {
		return nil, err
	}
	if s.AgainstVoters, err = decodeVoters(dec.AgainstVoters); err != nil {
		return nil, err
	}
	return s, nil
}

func encodeVoters(m map[types.AccountHash]VotingData) []voterRLP {
	out := make([]voterRLP, 0, len(m))
	for k, v := range m {
		out = append(out, voterRLP{
			Voter:     k,
			Staked:    types.AmountToBig(v.ReputationStaked),
			Direction: uint8(v.Direction),
			Claimed:   v.Claimed,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Voter[:], out[j].Voter[:]) < 0
	})
	return out
}

func decodeVoters(in []voterRLP) (map[types.AccountHash]VotingData, error) {
	out := make(map[types.AccountHash]VotingData, len(in))
	for _, v := range in {
		staked, err := types.AmountFromBig(v.Staked)
		if err != nil {
			return nil, err
		}
		out[v.Voter] = VotingData{
			ReputationStaked: staked,
			Direction:        Direction(v.Direction),
			Claimed:          v.Claimed,
		}
	}
	return out, nil
}
