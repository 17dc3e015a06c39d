package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"

	"github.com/calehh/rep-dao/proposal"
	"github.com/calehh/rep-dao/state"
	"github.com/calehh/rep-dao/tx"
	"github.com/calehh/rep-dao/types"
	"github.com/calehh/rep-dao/voting"
)

func claimMilestone(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	ptx, err := payload[tx.ProjectRefTx](btx)
	if err != nil {
		return nil, err
	}
	proj, err := st.GetProject(ptx.Project)
	if err != nil {
		return nil, err
	}
	if proj.Proposal.Proposer != btx.Sender {
		return nil, ErrNotProposer
	}
	if err := proj.ClaimMilestone(); err != nil {
		return nil, err
	}
	if err := st.SetProject(ptx.Project, proj); err != nil {
		return nil, err
	}
	return []abcitypes.Event{projectEvent(ptx.Project, "milestone_claimed", proj, 0)}, nil
}

// submitMilestoneAnalysis records a member's review of the claimed milestone
// and opens the vote that accepts or rejects it.
func submitMilestoneAnalysis(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	atx, err := payload[tx.SubmitMilestoneAnalysisTx](btx)
	if err != nil {
		return nil, err
	}
	if err := requireMember(st, btx.Sender); err != nil {
		return nil, err
	}
	proj, err := st.GetProject(atx.Project)
	if err != nil {
		return nil, err
	}
	voteIdx := st.AllocVote()
	if err := proj.SubmitMilestoneAnalysis(atx.IsFavorable, atx.Recommendations, voteIdx); err != nil {
		return nil, err
	}
	now := st.Now()
	ap := proj.Proposal.AnalysisAcceptance(now + st.Params().AnalysisVotePeriod)
	session := voting.NewAnalysis(ap, atx.Project, now)
	if err := st.SetVote(voteIdx, session); err != nil {
		return nil, err
	}
	link := state.VoteLink{Kind: proposal.TypeAnalysisAcceptance, Target: atx.Project}
	if err := st.SetVoteLink(voteIdx, link); err != nil {
		return nil, err
	}
	if err := st.SetProject(atx.Project, proj); err != nil {
		return nil, err
	}
	return []abcitypes.Event{
		types.EncodeEventProposalCreated(&types.EventProposalCreated{
			Kind:     types.KindAnalysis,
			Index:    atx.Project,
			Vote:     voteIdx,
			Proposer: btx.Sender,
			Name:     ap.Name,
			Timeout:  ap.VoteConfiguration.Timeout,
		}),
		projectEvent(atx.Project, "analysis_submitted", proj, voteIdx),
	}, nil
}

func checkMilestoneTimeout(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	ptx, err := payload[tx.ProjectRefTx](btx)
	if err != nil {
		return nil, err
	}
	proj, err := st.GetProject(ptx.Project)
	if err != nil {
		return nil, err
	}
	if !proj.CheckMilestoneTimeout(st.Now()) {
		return nil, nil
	}
	if err := st.SetProject(ptx.Project, proj); err != nil {
		return nil, err
	}
	return []abcitypes.Event{projectEvent(ptx.Project, "milestone_timeout", proj, 0)}, nil
}

func extendMilestoneDeadline(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	etx, err := payload[tx.ExtendMilestoneDeadlineTx](btx)
	if err != nil {
		return nil, err
	}
	if !st.Params().IsAdmin(btx.Sender) {
		return nil, state.ErrNotAdmin
	}
	proj, err := st.GetProject(etx.Project)
	if err != nil {
		return nil, err
	}
	if err := proj.ExtendMilestoneDeadline(etx.Timeout); err != nil {
		return nil, err
	}
	if err := st.SetProject(etx.Project, proj); err != nil {
		return nil, err
	}
	return []abcitypes.Event{projectEvent(etx.Project, "deadline_extended", proj, 0)}, nil
}
