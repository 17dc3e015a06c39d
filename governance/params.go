package governance

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnknownParameter      = errors.New("unknown governance parameter")
	ErrInvalidParameterValue = errors.New("invalid governance parameter value")
	ErrInvalidParams         = errors.New("invalid governance params")
)

// MaxReputationAllocationRatio keeps the input reputation denominator
// 10^12/ratio above zero.
const MaxReputationAllocationRatio = 1_000_000_000_000

// ParamKind is the closed set of parameters a governance vote may change.
type ParamKind uint8

const (
	ParamPolicingRatio ParamKind = iota + 1
	ParamReputationAllocationRatio
	ParamVotingEngineAddress
	ParamVotingEngineContractHash
	ParamReputationContractHash
	ParamExecutionContractHash
)

var paramNames = map[ParamKind]string{
	ParamPolicingRatio:             "update_policing_ratio",
	ParamReputationAllocationRatio: "update_reputation_allocation_ratio",
	ParamVotingEngineAddress:       "update_voting_engine_address",
	ParamVotingEngineContractHash:  "update_voting_engine_contract_hash",
	ParamReputationContractHash:    "update_reputation_contract_hash",
	ParamExecutionContractHash:     "update_execution_contract_hash",
}

func (k ParamKind) String() string {
	if name, ok := paramNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ParamKind(%d)", uint8(k))
}

func (k ParamKind) Valid() bool {
	_, ok := paramNames[k]
	return ok
}

func ParseParamKind(name string) (ParamKind, error) {
	for k, n := range paramNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
}

// Params are the chain-wide values governance proposals act on.
type Params struct {
	PolicingRatio             uint8       `json:"policing_ratio"`
	ReputationAllocationRatio uint64      `json:"reputation_allocation_ratio"`
	AnalysisVotePeriod        uint64      `json:"analysis_vote_period"`
	VotingEngineAddress       common.Hash `json:"voting_engine_address"`
	VotingEngineContractHash  common.Hash `json:"voting_engine_contract_hash"`
	ReputationContractHash    common.Hash `json:"reputation_contract_hash"`
	ExecutionContractHash     common.Hash `json:"execution_contract_hash"`
	Failsafe                  common.Hash `json:"failsafe"`
	Compliance                common.Hash `json:"compliance"`
}

func DefaultParams() Params {
	return Params{
		PolicingRatio:             10,
		ReputationAllocationRatio: 1_000_000,
		AnalysisVotePeriod:        3 * 24 * 3600,
		VotingEngineAddress:       common.BytesToHash([]byte("voting-engine")),
	}
}

func (p Params) Validate() error {
	if p.PolicingRatio > 100 {
		return fmt.Errorf("%w: policing ratio %d", ErrInvalidParams, p.PolicingRatio)
	}
	if p.ReputationAllocationRatio == 0 || p.ReputationAllocationRatio > MaxReputationAllocationRatio {
		return fmt.Errorf("%w: reputation allocation ratio %d", ErrInvalidParams, p.ReputationAllocationRatio)
	}
	if p.VotingEngineAddress == (common.Hash{}) {
		return fmt.Errorf("%w: empty voting engine address", ErrInvalidParams)
	}
	return nil
}

// IsAdmin reports whether caller is the failsafe or the compliance identity.
func (p Params) IsAdmin(caller common.Hash) bool {
	if caller == (common.Hash{}) {
		return false
	}
	return caller == p.Failsafe || caller == p.Compliance
}

// ParamChange is a decoded (parameter, value) pair. Only the field matching
// Kind is meaningful.
type ParamChange struct {
	Kind ParamKind
	Uint uint64
	Hash common.Hash
}

// DecodeParamChange validates name and value once, when the proposal is built.
func DecodeParamChange(name, value string) (ParamChange, error) {
	kind, err := ParseParamKind(name)
	if err != nil {
		return ParamChange{}, err
	}
	change := ParamChange{Kind: kind}
	switch kind {
	case ParamPolicingRatio:
		v, err := strconv.ParseUint(value, 10, 8)
		if err != nil || v > 100 {
			return ParamChange{}, fmt.Errorf("%w: policing ratio %q", ErrInvalidParameterValue, value)
		}
		change.Uint = v
	case ParamReputationAllocationRatio:
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil || v == 0 || v > MaxReputationAllocationRatio {
			return ParamChange{}, fmt.Errorf("%w: reputation allocation ratio %q", ErrInvalidParameterValue, value)
		}
		change.Uint = v
	default:
		h, err := decodeHash(value)
		if err != nil {
			return ParamChange{}, fmt.Errorf("%w: %s %q", ErrInvalidParameterValue, kind, value)
		}
		change.Hash = h
	}
	return change, nil
}

func decodeHash(s string) (common.Hash, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return common.Hash{}, err
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("want %d bytes, got %d", common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}

func (c ParamChange) Name() string {
	return c.Kind.String()
}

func (c ParamChange) Value() string {
	switch c.Kind {
	case ParamPolicingRatio, ParamReputationAllocationRatio:
		return strconv.FormatUint(c.Uint, 10)
	default:
		return hex.EncodeToString(c.Hash[:])
	}
}

// Apply returns a copy of p with the change applied.
func (c ParamChange) Apply(p Params) (Params, error) {
	switch c.Kind {
	case ParamPolicingRatio:
		p.PolicingRatio = uint8(c.Uint)
	case ParamReputationAllocationRatio:
		p.ReputationAllocationRatio = c.Uint
	case ParamVotingEngineAddress:
		p.VotingEngineAddress = c.Hash
	case ParamVotingEngineContractHash:
		p.VotingEngineContractHash = c.Hash
	case ParamReputationContractHash:
		p.ReputationContractHash = c.Hash
	case ParamExecutionContractHash:
		p.ExecutionContractHash = c.Hash
	default:
		return p, fmt.Errorf("%w: %s", ErrUnknownParameter, c.Kind)
	}
	return p, p.Validate()
}
