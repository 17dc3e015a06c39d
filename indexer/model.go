package indexer

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primary_key" json:"id"`
	Height uint64 `json:"height"`
}

// Proposal is looked up by the index of the vote that decides it, which is
// unique across grant, governance and analysis proposals.
type Proposal struct {
	Id              uint64 `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Vote            uint64 `gorm:"unique_index" json:"vote"`
	Kind            string `gorm:"index" json:"kind"`
	Index           uint64 `gorm:"column:idx" json:"index"`
	Proposer        string `gorm:"index" json:"proposer"`
	Name            string `json:"name"`
	Cost            string `json:"cost"`
	Timeout         uint64 `json:"timeout"`
	Height          uint64 `json:"height"`
	Result          string `json:"result"`
	InputReputation string `json:"input_reputation"`
	Executed        bool   `json:"executed"`
	FinalizeHeight  uint64 `json:"finalize_height"`
}

type Ballot struct {
	Id        uint64 `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Vote      uint64 `gorm:"index" json:"vote"`
	Voter     string `gorm:"index" json:"voter"`
	Stake     string `json:"stake"`
	Direction string `json:"direction"`
	Height    uint64 `json:"height"`
}

type Claim struct {
	Id     uint64 `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Vote   uint64 `gorm:"index" json:"vote"`
	Voter  string `gorm:"index" json:"voter"`
	Stake  string `json:"stake"`
	Share  string `json:"share"`
	Bonus  string `json:"bonus"`
	Refund bool   `json:"refund"`
	Height uint64 `json:"height"`
}

type Project struct {
	Id              uint64 `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Index           uint64 `gorm:"column:idx;unique_index" json:"index"`
	Status          string `json:"status"`
	ActiveMilestone uint64 `json:"active_milestone"`
	LastAction      string `json:"last_action"`
	LastVote        uint64 `json:"last_vote"`
	CreateHeight    uint64 `json:"create_height"`
	UpdateHeight    uint64 `json:"update_height"`
}

type Funding struct {
	Id        uint64 `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Project   uint64 `gorm:"index" json:"project"`
	Milestone uint64 `json:"milestone"`
	Amount    string `json:"amount"`
	Height    uint64 `json:"height"`
}

type MemberChange struct {
	Id      uint64 `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Action  string `json:"action"`
	Account string `gorm:"index" json:"account"`
	Amount  string `json:"amount"`
	Height  uint64 `json:"height"`
}

type ParamsChange struct {
	Id     uint64 `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Vote   uint64 `json:"vote"`
	Name   string `json:"name"`
	Value  string `json:"value"`
	Height uint64 `json:"height"`
}
