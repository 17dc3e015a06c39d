package tx

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/calehh/rep-dao/types"
)

type DAOTx struct {
	Version uint8             `json:"version"`
	Type    DAOTxType         `json:"type"`
	Nonce   uint64            `json:"nonce"`
	Sender  types.AccountHash `json:"sender"`
	Tx      any               `json:"tx"`
	Sig     [][]byte          `json:"sig"`
}

// Amounts travel as decimal strings.

type TrancheTx struct {
	Type                 uint8  `json:"type"`
	Amount               string `json:"amount"`
	ReputationAllocation string `json:"reputationAllocation"`
}

type MilestoneTx struct {
	Type               uint8       `json:"type"`
	ProgressPercentage uint8       `json:"progressPercentage"`
	Tranches           []TrancheTx `json:"tranches"`
	Timeout            uint64      `json:"timeout"`
}

type SponsorTx struct {
	Account types.AccountHash `json:"account"`
	Amount  string            `json:"amount"`
}

type CreateProposalTx struct {
	Name               string        `json:"name"`
	StoragePointer     string        `json:"storagePointer"`
	StorageFingerprint string        `json:"storageFingerprint"`
	Category           uint8         `json:"category"`
	Citations          []uint64      `json:"citations"`
	PolicingRatio      uint8         `json:"policingRatio"`
	OPRatio            uint8         `json:"opRatio"`
	CitationRatio      uint8         `json:"citationRatio"`
	MemberQuorum       uint64        `json:"memberQuorum"`
	ReputationQuorum   string        `json:"reputationQuorum"`
	Threshold          uint8         `json:"threshold"`
	Timeout            uint64        `json:"timeout"`
	VoterStakingLimit  uint8         `json:"voterStakingLimit"`
	Milestones         []MilestoneTx `json:"milestones"`
	StakedRep          string        `json:"stakedRep"`
	Sponsors           []SponsorTx   `json:"sponsors"`
	Cost               string        `json:"cost"`
}

type CreateGovernanceProposalTx struct {
	Name                      string            `json:"name"`
	Repository                string            `json:"repository"`
	TransitionVoteQuorum      string            `json:"transitionVoteQuorum"`
	TransitionVoteThreshold   uint8             `json:"transitionVoteThreshold"`
	ProposalRepositoryAddress types.AccountHash `json:"proposalRepositoryAddress"`
	FullVoteQuorum            string            `json:"fullVoteQuorum"`
	FullVoteThreshold         uint8             `json:"fullVoteThreshold"`
	Timeout                   uint64            `json:"timeout"`
	ParameterName             string            `json:"parameterName"`
	ParameterValue            string            `json:"parameterValue"`
	StakedRep                 string            `json:"stakedRep"`
	Sponsors                  []SponsorTx       `json:"sponsors"`
}

type CastVoteTx struct {
	Vote      uint64 `json:"vote"`
	Stake     string `json:"stake"`
	Direction uint8  `json:"direction"`
}

type VoteRefTx struct {
	Vote uint64 `json:"vote"`
}

type ProjectRefTx struct {
	Project uint64 `json:"project"`
}

type SubmitMilestoneAnalysisTx struct {
	Project         uint64            `json:"project"`
	IsFavorable     bool              `json:"isFavorable"`
	Recommendations map[string]string `json:"recommendations"`
}

type ExtendMilestoneDeadlineTx struct {
	Project uint64 `json:"project"`
	Timeout uint64 `json:"timeout"`
}

type MemberTx struct {
	Account types.AccountHash `json:"account"`
	PubKey  []byte            `json:"pubKey"`
}

type AmountTx struct {
	Account types.AccountHash `json:"account"`
	Amount  string            `json:"amount"`
}

type daoTxTmpl[Tx any] struct {
	Version uint8             `json:"version"`
	Type    DAOTxType         `json:"type"`
	Nonce   uint64            `json:"nonce"`
	Sender  types.AccountHash `json:"sender"`
	Tx      Tx                `json:"tx"`
	Sig     [][]byte          `json:"sig"`
}

// SigData is the digest signed by the sender: the envelope with the
// signatures replaced by the chain id.
func (tx *DAOTx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = [][]byte{ext}
	dat, err = json.Marshal(ntx)
	if err != nil {
		return
	}
	dat = crypto.Keccak256(dat)
	return
}

func parseDAOTxType(dat []byte) DAOTxType {
	var tx struct {
		Type DAOTxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return DAOTxTypeUnknown
	}
	return tx.Type
}

func unmarshalDAOTx[Tx any](dat []byte) (btx *DAOTx, err error) {
	var txt daoTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	btx = new(DAOTx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.Sender = txt.Sender
	btx.Tx = &txt.Tx
	btx.Sig = txt.Sig
	return
}

func UnmarshalDAOTx(dat []byte) (btx *DAOTx, err error) {
	tp := parseDAOTxType(dat)
	switch tp {
	case DAOTxTypeCreateProposal:
		btx, err = unmarshalDAOTx[CreateProposalTx](dat)
	case DAOTxTypeCreateGovernanceProposal:
		btx, err = unmarshalDAOTx[CreateGovernanceProposalTx](dat)
	case DAOTxTypeCastVote:
		btx, err = unmarshalDAOTx[CastVoteTx](dat)
	case DAOTxTypeFinalizeVote, DAOTxTypeClaimReputation, DAOTxTypeRefundStake:
		btx, err = unmarshalDAOTx[VoteRefTx](dat)
	case DAOTxTypeClaimMilestone, DAOTxTypeCheckMilestoneTimeout:
		btx, err = unmarshalDAOTx[ProjectRefTx](dat)
	case DAOTxTypeSubmitMilestoneAnalysis:
		btx, err = unmarshalDAOTx[SubmitMilestoneAnalysisTx](dat)
	case DAOTxTypeExtendMilestoneDeadline:
		btx, err = unmarshalDAOTx[ExtendMilestoneDeadlineTx](dat)
	case DAOTxTypeAddMember, DAOTxTypeRemoveMember:
		btx, err = unmarshalDAOTx[MemberTx](dat)
	case DAOTxTypeMint, DAOTxTypeBurn:
		btx, err = unmarshalDAOTx[AmountTx](dat)
	default:
		return nil, ErrUnsupportedTxType
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTx, err)
	}
	if btx.Version != DAOTxVersion0 {
		return nil, ErrUnsupportedTxVersion
	}
	return
}

func MarshalDAOTx(btx *DAOTx) (dat []byte, err error) {
	return json.Marshal(btx)
}

// Amount parses a decimal amount field. An empty string is zero.
func Amount(s string) (a uint256.Int, err error) {
	if s == "" {
		return
	}
	a, err = types.ParseAmount(s)
	if err != nil {
		err = fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return
}
