package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"

	"github.com/calehh/rep-dao/project"
	"github.com/calehh/rep-dao/proposal"
	"github.com/calehh/rep-dao/state"
	"github.com/calehh/rep-dao/tx"
	"github.com/calehh/rep-dao/types"
	"github.com/calehh/rep-dao/voting"
)

func castVote(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	vtx, err := payload[tx.CastVoteTx](btx)
	if err != nil {
		return nil, err
	}
	if err := requireMember(st, btx.Sender); err != nil {
		return nil, err
	}
	if vtx.Direction > uint8(voting.For) {
		return nil, ErrInvalidDirection
	}
	stake, err := tx.Amount(vtx.Stake)
	if err != nil {
		return nil, err
	}
	session, err := st.GetVote(vtx.Vote)
	if err != nil {
		return nil, err
	}
	err = session.CastVote(btx.Sender, st.Now(), st.BalanceOf(btx.Sender), stake, st.CommittedOf(btx.Sender), voting.Direction(vtx.Direction))
	if err != nil {
		return nil, err
	}
	if err := st.Lock(btx.Sender, stake); err != nil {
		return nil, err
	}
	if err := st.SetVote(vtx.Vote, session); err != nil {
		return nil, err
	}
	return []abcitypes.Event{types.EncodeEventVoteCast(&types.EventVoteCast{
		Vote:      vtx.Vote,
		Voter:     btx.Sender,
		Stake:     stake.Dec(),
		Direction: vtx.Direction,
	})}, nil
}

// finalizeVote evaluates a session after its deadline and applies the result
// to whatever the session decides on. Anyone may send it.
func finalizeVote(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	vtx, err := payload[tx.VoteRefTx](btx)
	if err != nil {
		return nil, err
	}
	session, err := st.GetVote(vtx.Vote)
	if err != nil {
		return nil, err
	}
	link, err := st.GetVoteLink(vtx.Vote)
	if err != nil {
		return nil, err
	}
	previous := session.Result

	fin := &types.EventVoteFinalized{Vote: vtx.Vote, Kind: link.Kind.String(), Target: link.Target}
	var events []abcitypes.Event
	switch link.Kind {
	case proposal.TypeGrant, proposal.TypeAnalysisAcceptance:
		result, err := session.CalculateVoteOutcome(st.Now(), st.Params().ReputationAllocationRatio)
		if err != nil {
			return nil, err
		}
		events, err = settleProposalVote(st, session, vtx.Vote, link, result)
		if err != nil {
			return nil, err
		}
	case proposal.TypeGovernance:
		out, err := session.CalculateGovernanceVoteOutcome(st.Now())
		if err != nil {
			return nil, err
		}
		events, err = settleGovernanceVote(st, session, vtx.Vote, link, out)
		if err != nil {
			return nil, err
		}
		fin.Executed = out.Executed
	default:
		return nil, ErrUnknownVoteKind
	}

	if !previous.Decided() && session.Result.Decided() {
		if err := forfeit(st, session); err != nil {
			return nil, err
		}
	}
	if err := st.SetVote(vtx.Vote, session); err != nil {
		return nil, err
	}
	fin.Result = uint8(session.Result)
	fin.InputReputation = session.InputReputation.Dec()
	return append([]abcitypes.Event{types.EncodeEventVoteFinalized(fin)}, events...), nil
}

// forfeit moves the losing side's stakes into escrow and, for an approved
// grant, mints the bonus pool there. The escrow account is pinned on the
// session so claims keep paying from it after the engine address changes.
func forfeit(st *state.State, session *voting.Session) error {
	engine := st.Params().VotingEngineAddress
	session.Escrow = engine
	for _, l := range session.Losers() {
		if err := st.Unlock(l.Voter, l.Amount); err != nil {
			return err
		}
		if err := st.TransferFrom(engine, l.Voter, engine, l.Amount); err != nil {
			return err
		}
	}
	if session.Result == voting.ResultApproved && !session.InputReputation.IsZero() {
		return st.Mint(engine, engine, session.InputReputation)
	}
	return nil
}

func settleProposalVote(st *state.State, session *voting.Session, voteIdx uint64, link state.VoteLink, result voting.VoteResult) ([]abcitypes.Event, error) {
	switch pl := session.Payload.(type) {
	case voting.GrantPayload:
		pl.Proposal.Status = proposal.StatusFullVoteComplete
		p, err := st.GetProposal(link.Target)
		if err != nil {
			return nil, err
		}
		p.Status = proposal.StatusFullVoteComplete
		if err := st.SetProposal(link.Target, p); err != nil {
			return nil, err
		}
		if result != voting.ResultApproved {
			return nil, nil
		}
		idx := st.AllocProject()
		proj := project.New(p)
		if err := st.SetProject(idx, proj); err != nil {
			return nil, err
		}
		return []abcitypes.Event{projectEvent(idx, "created", proj, voteIdx)}, nil

	case voting.AnalysisPayload:
		pl.Proposal.Status = proposal.StatusFullVoteComplete
		proj, err := st.GetProject(link.Target)
		if err != nil {
			return nil, err
		}
		var events []abcitypes.Event
		if result == voting.ResultApproved {
			milestone := proj.ActiveMilestone
			released, err := proj.ApproveMilestoneAnalysis(voteIdx)
			if err != nil {
				return nil, err
			}
			events = append(events, projectEvent(link.Target, "analysis_approved", proj, voteIdx))
			if released != nil {
				amount, err := released.Amount()
				if err != nil {
					return nil, err
				}
				events = append(events, types.EncodeEventFundingReleased(&types.EventFundingReleased{
					Project:   link.Target,
					Milestone: milestone,
					Amount:    amount.Dec(),
				}))
			}
		} else {
			if err := proj.RejectMilestoneAnalysis(voteIdx); err != nil {
				return nil, err
			}
			events = append(events, projectEvent(link.Target, "analysis_rejected", proj, voteIdx))
		}
		if err := st.SetProject(link.Target, proj); err != nil {
			return nil, err
		}
		return events, nil
	}
	return nil, voting.ErrWrongPayload
}

func settleGovernanceVote(st *state.State, session *voting.Session, voteIdx uint64, link state.VoteLink, out voting.GovernanceOutcome) ([]abcitypes.Event, error) {
	gp, ok := session.Payload.(voting.GovernancePayload)
	if !ok {
		return nil, voting.ErrWrongPayload
	}
	// An approved change stays open for the confirming evaluation.
	if out.Result == voting.ResultApproved && !out.Executed {
		return nil, nil
	}
	gp.Proposal.Status = proposal.StatusFullVoteComplete
	g, err := st.GetGovernanceProposal(link.Target)
	if err != nil {
		return nil, err
	}
	g.Status = proposal.StatusFullVoteComplete
	if err := st.SetGovernanceProposal(link.Target, g); err != nil {
		return nil, err
	}
	if !out.Executed {
		return nil, nil
	}
	params, err := out.Change.Apply(st.Params())
	if err != nil {
		return nil, err
	}
	if err := st.SetParams(params); err != nil {
		return nil, err
	}
	return []abcitypes.Event{types.EncodeEventParamsUpdated(&types.EventParamsUpdated{
		Vote:  voteIdx,
		Name:  out.Change.Name(),
		Value: out.Change.Value(),
	})}, nil
}

func projectEvent(idx uint64, action string, proj *project.Project, voteIdx uint64) abcitypes.Event {
	return types.EncodeEventProjectUpdated(&types.EventProjectUpdated{
		Project:         idx,
		Action:          action,
		Status:          uint8(proj.Status),
		ActiveMilestone: proj.ActiveMilestone,
		Vote:            voteIdx,
	})
}
