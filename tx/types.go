package tx

import (
	"errors"
)

type DAOTxType uint8

const (
	DAOTxTypeUnknown                  DAOTxType = 0
	DAOTxTypeCreateProposal           DAOTxType = 1
	DAOTxTypeCreateGovernanceProposal DAOTxType = 2
	DAOTxTypeCastVote                 DAOTxType = 3
	DAOTxTypeFinalizeVote             DAOTxType = 4
	DAOTxTypeClaimReputation          DAOTxType = 5
	DAOTxTypeRefundStake              DAOTxType = 6
	DAOTxTypeClaimMilestone           DAOTxType = 7
	DAOTxTypeSubmitMilestoneAnalysis  DAOTxType = 8
	DAOTxTypeCheckMilestoneTimeout    DAOTxType = 9
	DAOTxTypeExtendMilestoneDeadline  DAOTxType = 10
	DAOTxTypeAddMember                DAOTxType = 11
	DAOTxTypeRemoveMember             DAOTxType = 12
	DAOTxTypeMint                     DAOTxType = 13
	DAOTxTypeBurn                     DAOTxType = 14
)

var txTypeNames = map[DAOTxType]string{
	DAOTxTypeCreateProposal:           "CreateProposal",
	DAOTxTypeCreateGovernanceProposal: "CreateGovernanceProposal",
	DAOTxTypeCastVote:                 "CastVote",
	DAOTxTypeFinalizeVote:             "FinalizeVote",
	DAOTxTypeClaimReputation:          "ClaimReputation",
	DAOTxTypeRefundStake:              "RefundStake",
	DAOTxTypeClaimMilestone:           "ClaimMilestone",
	DAOTxTypeSubmitMilestoneAnalysis:  "SubmitMilestoneAnalysis",
	DAOTxTypeCheckMilestoneTimeout:    "CheckMilestoneTimeout",
	DAOTxTypeExtendMilestoneDeadline:  "ExtendMilestoneDeadline",
	DAOTxTypeAddMember:                "AddMember",
	DAOTxTypeRemoveMember:             "RemoveMember",
	DAOTxTypeMint:                     "Mint",
	DAOTxTypeBurn:                     "Burn",
}

func (t DAOTxType) String() string {
	if n, ok := txTypeNames[t]; ok {
		return n
	}
	return "Unknown"
}

const (
	DAOTxVersion0 uint8 = 0
)

var (
	ErrInvalidTx            = errors.New("invalid tx")
	ErrUnsupportedTxType    = errors.New("unsupported tx type")
	ErrUnmatchedTxType      = errors.New("unmatched tx type")
	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
	ErrInvalidAmount        = errors.New("invalid amount")
)
