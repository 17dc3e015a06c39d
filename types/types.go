package types

import (
	"strconv"

	abci "github.com/cometbft/cometbft/abci/types"
)

const (
	EventProposalCreatedType = "proposal_created"
	EventVoteCastType        = "vote_cast"
	EventVoteFinalizedType   = "vote_finalized"
	EventReputationClaimType = "reputation_claim"
	EventProjectUpdatedType  = "project_updated"
	EventFundingReleasedType = "funding_released"
	EventMemberType          = "member"
	EventParamsUpdatedType   = "params_updated"
)

// Entity kinds carried by EventProposalCreated and EventVoteFinalized.
const (
	KindGrant      = "grant"
	KindGovernance = "governance"
	KindAnalysis   = "analysis_acceptance"
)

type EventProposalCreated struct {
	Kind     string      `json:"kind"`
	Index    uint64      `json:"index"`
	Vote     uint64      `json:"vote"`
	Proposer AccountHash `json:"proposer"`
	Name     string      `json:"name"`
	Cost     string      `json:"cost"`
	Timeout  uint64      `json:"timeout"`
}

func EncodeEventProposalCreated(event *EventProposalCreated) abci.Event {
	return abci.Event{
		Type: EventProposalCreatedType,
		Attributes: []abci.EventAttribute{
			{Key: "kind", Value: event.Kind, Index: true},
			{Key: "index", Value: strconv.FormatUint(event.Index, 10), Index: true},
			{Key: "vote", Value: strconv.FormatUint(event.Vote, 10), Index: true},
			{Key: "proposer", Value: event.Proposer.Hex(), Index: true},
			{Key: "name", Value: event.Name, Index: false},
			{Key: "cost", Value: event.Cost, Index: false},
			{Key: "timeout", Value: strconv.FormatUint(event.Timeout, 10), Index: false},
		},
	}
}

func DecodeEventProposalCreated(originEvent abci.Event) *EventProposalCreated {
	event := &EventProposalCreated{}
	var err error
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "kind":
			event.Kind = v.Value
		case "index":
			event.Index, err = strconv.ParseUint(v.Value, 10, 64)
		case "vote":
			event.Vote, err = strconv.ParseUint(v.Value, 10, 64)
		case "proposer":
			event.Proposer, err = ParseAccountHash(v.Value)
		case "name":
			event.Name = v.Value
		case "cost":
			event.Cost = v.Value
		case "timeout":
			event.Timeout, err = strconv.ParseUint(v.Value, 10, 64)
		}
		if err != nil {
			return nil
		}
	}
	return event
}

type EventVoteCast struct {
	Vote      uint64      `json:"vote"`
	Voter     AccountHash `json:"voter"`
	Stake     string      `json:"stake"`
	Direction uint8       `json:"direction"`
}

func EncodeEventVoteCast(event *EventVoteCast) abci.Event {
	return abci.Event{
		Type: EventVoteCastType,
		Attributes: []abci.EventAttribute{
			{Key: "vote", Value: strconv.FormatUint(event.Vote, 10), Index: true},
			{Key: "voter", Value: event.Voter.Hex(), Index: true},
			{Key: "stake", Value: event.Stake, Index: false},
			{Key: "direction", Value: strconv.FormatUint(uint64(event.Direction), 10), Index: false},
		},
	}
}

func DecodeEventVoteCast(originEvent abci.Event) *EventVoteCast {
	event := &EventVoteCast{}
	var err error
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "vote":
			event.Vote, err = strconv.ParseUint(v.Value, 10, 64)
		case "voter":
			event.Voter, err = ParseAccountHash(v.Value)
		case "stake":
			event.Stake = v.Value
		case "direction":
			var d uint64
			d, err = strconv.ParseUint(v.Value, 10, 8)
			event.Direction = uint8(d)
		}
		if err != nil {
			return nil
		}
	}
	return event
}

type EventVoteFinalized struct {
	Vote            uint64 `json:"vote"`
	Kind            string `json:"kind"`
	Target          uint64 `json:"target"`
	Result          uint8  `json:"result"`
	InputReputation string `json:"inputReputation"`
	Executed        bool   `json:"executed"`
}

func EncodeEventVoteFinalized(event *EventVoteFinalized) abci.Event {
	return abci.Event{
		Type: EventVoteFinalizedType,
		Attributes: []abci.EventAttribute{
			{Key: "vote", Value: strconv.FormatUint(event.Vote, 10), Index: true},
			{Key: "kind", Value: event.Kind, Index: true},
			{Key: "target", Value: strconv.FormatUint(event.Target, 10), Index: true},
			{Key: "result", Value: strconv.FormatUint(uint64(event.Result), 10), Index: false},
			{Key: "inputReputation", Value: event.InputReputation, Index: false},
			{Key: "executed", Value: strconv.FormatBool(event.Executed), Index: false},
		},
	}
}

func DecodeEventVoteFinalized(originEvent abci.Event) *EventVoteFinalized {
	event := &EventVoteFinalized{}
	var err error
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "vote":
			event.Vote, err = strconv.ParseUint(v.Value, 10, 64)
		case "kind":
			event.Kind = v.Value
		case "target":
			event.Target, err = strconv.ParseUint(v.Value, 10, 64)
		case "result":
			var r uint64
			r, err = strconv.ParseUint(v.Value, 10, 8)
			event.Result = uint8(r)
		case "inputReputation":
			event.InputReputation = v.Value
		case "executed":
			event.Executed, err = strconv.ParseBool(v.Value)
		}
		if err != nil {
			return nil
		}
	}
	return event
}

// EventReputationClaim reports a winner's claim or a refund of a failed vote.
type EventReputationClaim struct {
	Vote   uint64      `json:"vote"`
	Voter  AccountHash `json:"voter"`
	Stake  string      `json:"stake"`
	Share  string      `json:"share"`
	Bonus  string      `json:"bonus"`
	Refund bool        `json:"refund"`
}

func EncodeEventReputationClaim(event *EventReputationClaim) abci.Event {
	return abci.Event{
		Type: EventReputationClaimType,
		Attributes: []abci.EventAttribute{
			{Key: "vote", Value: strconv.FormatUint(event.Vote, 10), Index: true},
			{Key: "voter", Value: event.Voter.Hex(), Index: true},
			{Key: "stake", Value: event.Stake, Index: false},
			{Key: "share", Value: event.Share, Index: false},
			{Key: "bonus", Value: event.Bonus, Index: false},
			{Key: "refund", Value: strconv.FormatBool(event.Refund), Index: false},
		},
	}
}

func DecodeEventReputationClaim(originEvent abci.Event) *EventReputationClaim {
	event := &EventReputationClaim{}
	var err error
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "vote":
			event.Vote, err = strconv.ParseUint(v.Value, 10, 64)
		case "voter":
			event.Voter, err = ParseAccountHash(v.Value)
		case "stake":
			event.Stake = v.Value
		case "share":
			event.Share = v.Value
		case "bonus":
			event.Bonus = v.Value
		case "refund":
			event.Refund, err = strconv.ParseBool(v.Value)
		}
		if err != nil {
			return nil
		}
	}
	return event
}

type EventProjectUpdated struct {
	Project         uint64 `json:"project"`
	Action          string `json:"action"`
	Status          uint8  `json:"status"`
	ActiveMilestone uint64 `json:"activeMilestone"`
	Vote            uint64 `json:"vote"`
}

func EncodeEventProjectUpdated(event *EventProjectUpdated) abci.Event {
	return abci.Event{
		Type: EventProjectUpdatedType,
		Attributes: []abci.EventAttribute{
			{Key: "project", Value: strconv.FormatUint(event.Project, 10), Index: true},
			{Key: "action", Value: event.Action, Index: true},
			{Key: "status", Value: strconv.FormatUint(uint64(event.Status), 10), Index: false},
			{Key: "activeMilestone", Value: strconv.FormatUint(event.ActiveMilestone, 10), Index: false},
			{Key: "vote", Value: strconv.FormatUint(event.Vote, 10), Index: false},
		},
	}
}

func DecodeEventProjectUpdated(originEvent abci.Event) *EventProjectUpdated {
	event := &EventProjectUpdated{}
	var err error
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "project":
			event.Project, err = strconv.ParseUint(v.Value, 10, 64)
		case "action":
			event.Action = v.Value
		case "status":
			var s uint64
			s, err = strconv.ParseUint(v.Value, 10, 8)
			event.Status = uint8(s)
		case "activeMilestone":
			event.ActiveMilestone, err = strconv.ParseUint(v.Value, 10, 64)
		case "vote":
			event.Vote, err = strconv.ParseUint(v.Value, 10, 64)
		}
		if err != nil {
			return nil
		}
	}
	return event
}

type EventFundingReleased struct {
	Project   uint64 `json:"project"`
	Milestone uint64 `json:"milestone"`
	Amount    string `json:"amount"`
}

func EncodeEventFundingReleased(event *EventFundingReleased) abci.Event {
	return abci.Event{
		Type: EventFundingReleasedType,
		Attributes: []abci.EventAttribute{
			{Key: "project", Value: strconv.FormatUint(event.Project, 10), Index: true},
			{Key: "milestone", Value: strconv.FormatUint(event.Milestone, 10), Index: false},
			{Key: "amount", Value: event.Amount, Index: false},
		},
	}
}

func DecodeEventFundingReleased(originEvent abci.Event) *EventFundingReleased {
	event := &EventFundingReleased{}
	var err error
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "project":
			event.Project, err = strconv.ParseUint(v.Value, 10, 64)
		case "milestone":
			event.Milestone, err = strconv.ParseUint(v.Value, 10, 64)
		case "amount":
			event.Amount = v.Value
		}
		if err != nil {
			return nil
		}
	}
	return event
}

// EventMember covers membership and admin balance changes. Action is one of
// add, remove, mint or burn.
type EventMember struct {
	Action  string      `json:"action"`
	Account AccountHash `json:"account"`
	Amount  string      `json:"amount"`
}

func EncodeEventMember(event *EventMember) abci.Event {
	return abci.Event{
		Type: EventMemberType,
		Attributes: []abci.EventAttribute{
			{Key: "action", Value: event.Action, Index: true},
			{Key: "account", Value: event.Account.Hex(), Index: true},
			{Key: "amount", Value: event.Amount, Index: false},
		},
	}
}

func DecodeEventMember(originEvent abci.Event) *EventMember {
	event := &EventMember{}
	var err error
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "action":
			event.Action = v.Value
		case "account":
			event.Account, err = ParseAccountHash(v.Value)
		case "amount":
			event.Amount = v.Value
		}
		if err != nil {
			return nil
		}
	}
	return event
}

type EventParamsUpdated struct {
	Vote  uint64 `json:"vote"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

func EncodeEventParamsUpdated(event *EventParamsUpdated) abci.Event {
	return abci.Event{
		Type: EventParamsUpdatedType,
		Attributes: []abci.EventAttribute{
			{Key: "vote", Value: strconv.FormatUint(event.Vote, 10), Index: true},
			{Key: "name", Value: event.Name, Index: true},
			{Key: "value", Value: event.Value, Index: false},
		},
	}
}

func DecodeEventParamsUpdated(originEvent abci.Event) *EventParamsUpdated {
	event := &EventParamsUpdated{}
	var err error
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "vote":
			event.Vote, err = strconv.ParseUint(v.Value, 10, 64)
		case "name":
			event.Name = v.Value
		case "value":
			event.Value = v.Value
		}
		if err != nil {
			return nil
		}
	}
	return event
}
