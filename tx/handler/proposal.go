package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/holiman/uint256"

	"github.com/calehh/rep-dao/proposal"
	"github.com/calehh/rep-dao/state"
	"github.com/calehh/rep-dao/tx"
	"github.com/calehh/rep-dao/types"
	"github.com/calehh/rep-dao/voting"
)

func createProposal(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	ptx, err := payload[tx.CreateProposalTx](btx)
	if err != nil {
		return nil, err
	}
	if err := requireMember(st, btx.Sender); err != nil {
		return nil, err
	}
	args, err := proposalArgs(ptx)
	if err != nil {
		return nil, err
	}
	args.Proposer = btx.Sender
	args.SystemPolicingRatio = st.Params().PolicingRatio
	args.ProposerReputationBalance = st.BalanceOf(btx.Sender)
	p, err := proposal.New(args)
	if err != nil {
		return nil, err
	}

	idx := st.AllocProposal()
	voteIdx := st.AllocVote()
	session := voting.NewGrant(p, st.Now())
	if err := stakeProposer(st, session, btx.Sender, args.StakedRep); err != nil {
		return nil, err
	}
	if err := st.SetProposal(idx, p); err != nil {
		return nil, err
	}
	if err := st.SetVote(voteIdx, session); err != nil {
		return nil, err
	}
	if err := st.SetVoteLink(voteIdx, state.VoteLink{Kind: proposal.TypeGrant, Target: idx}); err != nil {
		return nil, err
	}
	return []abcitypes.Event{types.EncodeEventProposalCreated(&types.EventProposalCreated{
		Kind:     types.KindGrant,
		Index:    idx,
		Vote:     voteIdx,
		Proposer: btx.Sender,
		Name:     p.Name,
		Cost:     p.Cost.Dec(),
		Timeout:  p.VoteConfiguration.Timeout,
	})}, nil
}

func proposalArgs(ptx *tx.CreateProposalTx) (args *proposal.CreateArgs, err error) {
	args = &proposal.CreateArgs{
		Name:               ptx.Name,
		StoragePointer:     ptx.StoragePointer,
		StorageFingerprint: ptx.StorageFingerprint,
		Category:           ptx.Category,
		Citations:          ptx.Citations,
		Ratios: proposal.Ratios{
			Policing: ptx.PolicingRatio,
			OP:       ptx.OPRatio,
			Citation: ptx.CitationRatio,
		},
		VoteConfiguration: proposal.VoteConfiguration{
			MemberQuorum:      ptx.MemberQuorum,
			Threshold:         ptx.Threshold,
			Timeout:           ptx.Timeout,
			VoterStakingLimit: ptx.VoterStakingLimit,
		},
		Milestones: make([]proposal.MilestoneSpec, 0, len(ptx.Milestones)),
	}
	if args.VoteConfiguration.ReputationQuorum, err = tx.Amount(ptx.ReputationQuorum); err != nil {
		return nil, err
	}
	if args.StakedRep, err = tx.Amount(ptx.StakedRep); err != nil {
		return nil, err
	}
	if args.Cost, err = tx.Amount(ptx.Cost); err != nil {
		return nil, err
	}
	if args.Sponsors, err = sponsors(ptx.Sponsors); err != nil {
		return nil, err
	}
	for _, m := range ptx.Milestones {
		spec := proposal.MilestoneSpec{
			Type:               m.Type,
			ProgressPercentage: m.ProgressPercentage,
			Tranches:           make([]proposal.FundingTranche, 0, len(m.Tranches)),
			Timeout:            m.Timeout,
		}
		for _, t := range m.Tranches {
			tr := proposal.FundingTranche{Type: t.Type}
			if tr.Amount, err = tx.Amount(t.Amount); err != nil {
				return nil, err
			}
			if tr.ReputationAllocation, err = tx.Amount(t.ReputationAllocation); err != nil {
				return nil, err
			}
			spec.Tranches = append(spec.Tranches, tr)
		}
		args.Milestones = append(args.Milestones, spec)
	}
	return
}

func sponsors(in []tx.SponsorTx) ([]proposal.Sponsor, error) {
	out := make([]proposal.Sponsor, 0, len(in))
	for _, s := range in {
		amount, err := tx.Amount(s.Amount)
		if err != nil {
			return nil, err
		}
		out = append(out, proposal.Sponsor{Account: s.Account, Amount: amount})
	}
	return out, nil
}

// stakeProposer records the proposer's stake as its For vote and locks it.
func stakeProposer(st *state.State, session *voting.Session, proposer types.AccountHash, stake uint256.Int) error {
	if stake.IsZero() {
		return nil
	}
	err := session.CastProposerVote(st.Now(), st.BalanceOf(proposer), stake, st.CommittedOf(proposer))
	if err != nil {
		return err
	}
	return st.Lock(proposer, stake)
}

func createGovernanceProposal(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	gtx, err := payload[tx.CreateGovernanceProposalTx](btx)
	if err != nil {
		return nil, err
	}
	if err := requireMember(st, btx.Sender); err != nil {
		return nil, err
	}
	args := &proposal.CreateGovernanceArgs{
		Name:       gtx.Name,
		Repository: gtx.Repository,
		Proposer:   btx.Sender,
		VoteConfiguration: proposal.GovernanceVoteConfiguration{
			TransitionVoteThreshold:   gtx.TransitionVoteThreshold,
			ProposalRepositoryAddress: gtx.ProposalRepositoryAddress,
			FullVoteThreshold:         gtx.FullVoteThreshold,
			Timeout:                   gtx.Timeout,
		},
		ParameterName:             gtx.ParameterName,
		ParameterValue:            gtx.ParameterValue,
		ProposerReputationBalance: st.BalanceOf(btx.Sender),
	}
	if args.VoteConfiguration.TransitionVoteQuorum, err = tx.Amount(gtx.TransitionVoteQuorum); err != nil {
		return nil, err
	}
	if args.VoteConfiguration.FullVoteQuorum, err = tx.Amount(gtx.FullVoteQuorum); err != nil {
		return nil, err
	}
	if args.StakedRep, err = tx.Amount(gtx.StakedRep); err != nil {
		return nil, err
	}
	if args.Sponsors, err = sponsors(gtx.Sponsors); err != nil {
		return nil, err
	}
	g, err := proposal.NewGovernance(args)
	if err != nil {
		return nil, err
	}

	idx := st.AllocGovernance()
	voteIdx := st.AllocVote()
	session := voting.NewGovernance(g, st.Now())
	if err := stakeProposer(st, session, btx.Sender, args.StakedRep); err != nil {
		return nil, err
	}
	if err := st.SetGovernanceProposal(idx, g); err != nil {
		return nil, err
	}
	if err := st.SetVote(voteIdx, session); err != nil {
		return nil, err
	}
	if err := st.SetVoteLink(voteIdx, state.VoteLink{Kind: proposal.TypeGovernance, Target: idx}); err != nil {
		return nil, err
	}
	return []abcitypes.Event{types.EncodeEventProposalCreated(&types.EventProposalCreated{
		Kind:     types.KindGovernance,
		Index:    idx,
		Vote:     voteIdx,
		Proposer: btx.Sender,
		Name:     g.Name,
		Timeout:  g.VoteConfiguration.Timeout,
	})}, nil
}
