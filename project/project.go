package project

import (
	"errors"
	"maps"

	"github.com/calehh/rep-dao/proposal"
)

var (
	ErrInvalidProjectState     = errors.New("invalid project state")
	ErrMilestoneAlreadyClaimed = errors.New("milestone already claimed")
	ErrMilestoneNotFound       = errors.New("milestone not found")
	ErrAnalysisNotFound        = errors.New("milestone analysis not found")
	ErrAnalysisExists          = errors.New("milestone analysis already recorded")
	ErrInvalidTimeout          = errors.New("invalid milestone timeout")
	ErrInvalidEncoding         = errors.New("invalid project encoding")
)

type Status uint8

const (
	StatusActive Status = iota
	StatusMilestoneUnderReview
	StatusVotingOnMilestoneAnalysis
	StatusMilestoneTimeout
	StatusCompleted
	StatusRemediation
)

var statusNames = [...]string{
	"active",
	"milestone_under_review",
	"voting_on_milestone_analysis",
	"milestone_timeout",
	"completed",
	"remediation",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

type MilestoneAnalysis struct {
	IsFavorable     bool              `json:"is_favorable"`
	Recommendations map[string]string `json:"recommendations"`
}

type ClaimedMilestone struct {
	Index     uint64             `json:"index"`
	Milestone proposal.Milestone `json:"milestone"`
}

// Project drives the milestones of an approved grant.
type Project struct {
	Proposal          *proposal.Proposal           `json:"proposal"`
	ActiveMilestone   uint64                       `json:"active_milestone"`
	Status            Status                       `json:"status"`
	ClaimedMilestones []ClaimedMilestone           `json:"claimed_milestones"`
	Analyses          map[uint64]MilestoneAnalysis `json:"analyses"`
}

// New snapshots p; later changes to p are not seen by the project.
func New(p *proposal.Proposal) *Project {
	return &Project{
		Proposal:          p.Clone(),
		Status:            StatusActive,
		ClaimedMilestones: make([]ClaimedMilestone, 0),
		Analyses:          make(map[uint64]MilestoneAnalysis),
	}
}

func (p *Project) Milestone() (proposal.Milestone, error) {
	m, ok := p.Proposal.Milestones[p.ActiveMilestone]
	if !ok {
		return proposal.Milestone{}, ErrMilestoneNotFound
	}
	return m, nil
}

func (p *Project) isClaimed(index uint64) bool {
	for _, c := range p.ClaimedMilestones {
		if c.Index == index {
			return true
		}
	}
	return false
}

// ClaimMilestone marks the active milestone as delivered and puts it up for
// review.
func (p *Project) ClaimMilestone() error {
	if p.Status != StatusActive {
		return ErrInvalidProjectState
	}
	if p.isClaimed(p.ActiveMilestone) {
		return ErrMilestoneAlreadyClaimed
	}
	m, err := p.Milestone()
	if err != nil {
		return err
	}
	p.ClaimedMilestones = append(p.ClaimedMilestones, ClaimedMilestone{Index: p.ActiveMilestone, Milestone: m})
	p.Status = StatusMilestoneUnderReview
	return nil
}

// SubmitMilestoneAnalysis records the analysis that the vote at voteIndex
// will accept or refuse.
func (p *Project) SubmitMilestoneAnalysis(isFavorable bool, recommendations map[string]string, voteIndex uint64) error {
	if p.Status != StatusMilestoneUnderReview {
		return ErrInvalidProjectState
	}
	if _, ok := p.Analyses[voteIndex]; ok {
		return ErrAnalysisExists
	}
	var recs map[string]string
	if len(recommendations) > 0 {
		recs = maps.Clone(recommendations)
	}
	p.Analyses[voteIndex] = MilestoneAnalysis{IsFavorable: isFavorable, Recommendations: recs}
	p.Status = StatusVotingOnMilestoneAnalysis
	return nil
}

// ApproveMilestoneAnalysis applies an accepted analysis and records its
// verdict as the active milestone's result. A favorable one releases the
// milestone and returns it, an unfavorable one sends the project to
// remediation.
func (p *Project) ApproveMilestoneAnalysis(voteIndex uint64) (released *proposal.Milestone, err error) {
	if p.Status != StatusVotingOnMilestoneAnalysis {
		err = ErrInvalidProjectState
		return
	}
	analysis, ok := p.Analyses[voteIndex]
	if !ok {
		err = ErrAnalysisNotFound
		return
	}
	if !analysis.IsFavorable {
		p.setMilestoneResult(proposal.MilestoneResultUnfavorable)
		p.Status = StatusRemediation
		return
	}
	p.setMilestoneResult(proposal.MilestoneResultFavorable)
	m, err := p.Milestone()
	if err != nil {
		return
	}
	released = &m
	if p.ActiveMilestone+1 >= p.Proposal.MilestoneCount() {
		p.Status = StatusCompleted
		return
	}
	p.ActiveMilestone++
	p.Status = StatusActive
	return
}

func (p *Project) setMilestoneResult(result uint8) {
	m, ok := p.Proposal.Milestones[p.ActiveMilestone]
	if !ok {
		return
	}
	m.Result = result
	p.Proposal.Milestones[p.ActiveMilestone] = m
	for i := range p.ClaimedMilestones {
		if p.ClaimedMilestones[i].Index == p.ActiveMilestone {
			p.ClaimedMilestones[i].Milestone.Result = result
		}
	}
}

// RejectMilestoneAnalysis returns the milestone to review after the
// analysis vote did not pass.
func (p *Project) RejectMilestoneAnalysis(voteIndex uint64) error {
	if p.Status != StatusVotingOnMilestoneAnalysis {
		return ErrInvalidProjectState
	}
	if _, ok := p.Analyses[voteIndex]; !ok {
		return ErrAnalysisNotFound
	}
	p.Status = StatusMilestoneUnderReview
	return nil
}

// CheckMilestoneTimeout moves an unclaimed, overdue milestone to timeout.
// It reports whether the transition happened on this call.
func (p *Project) CheckMilestoneTimeout(now uint64) bool {
	if p.Status != StatusActive || p.isClaimed(p.ActiveMilestone) {
		return false
	}
	m, err := p.Milestone()
	if err != nil || now <= m.Timeout {
		return false
	}
	p.Status = StatusMilestoneTimeout
	return true
}

// ExtendMilestoneDeadline gives the active milestone a later timeout and
// reopens it.
func (p *Project) ExtendMilestoneDeadline(newTimeout uint64) error {
	if p.Status != StatusActive && p.Status != StatusMilestoneTimeout {
		return ErrInvalidProjectState
	}
	m, err := p.Milestone()
	if err != nil {
		return err
	}
	if newTimeout <= m.Timeout {
		return ErrInvalidTimeout
	}
	m.Timeout = newTimeout
	p.Proposal.Milestones[p.ActiveMilestone] = m
	p.Status = StatusActive
	return nil
}
