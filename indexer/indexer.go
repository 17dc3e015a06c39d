package indexer

import (
	"context"
	"errors"
	"time"

	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"

	"github.com/calehh/rep-dao/project"
	"github.com/calehh/rep-dao/types"
	"github.com/calehh/rep-dao/voting"
)

// ChainIndexer follows the chain through the rpc client and materialises
// the DAO events of every committed block into sqlite.
type ChainIndexer struct {
	logger        cmtlog.Logger
	Url           string
	Height        int64
	db            *gorm.DB
	cli           *comethttp.HTTP
	eventHandlers map[string]eventHandler
}

func OpenDB(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	err = db.AutoMigrate(&Height{}, &Proposal{}, &Ballot{}, &Claim{}, &Project{}, &Funding{}, &MemberChange{}, &ParamsChange{}).Error
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func NewChainIndexer(logger cmtlog.Logger, dbPath string, chainUrl string) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "dbPath", dbPath, "url", chainUrl)
	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, err
	}
	c, err := newChainIndexer(logger, db, chainUrl)
	if err != nil {
		db.Close()
		return nil, err
	}
	c.cli, err = comethttp.New(chainUrl, "/websocket")
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func newChainIndexer(logger cmtlog.Logger, db *gorm.DB, chainUrl string) (*ChainIndexer, error) {
	h := Height{Id: 1}
	if err := db.First(&h).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c := &ChainIndexer{
		logger: logger.With("module", "indexer"),
		Url:    chainUrl,
		Height: int64(h.Height + 1),
		db:     db,
	}
	c.eventHandlers = map[string]eventHandler{
		types.EventProposalCreatedType: c.handleEventProposalCreated,
		types.EventVoteCastType:        c.handleEventVoteCast,
		types.EventVoteFinalizedType:   c.handleEventVoteFinalized,
		types.EventReputationClaimType: c.handleEventReputationClaim,
		types.EventProjectUpdatedType:  c.handleEventProjectUpdated,
		types.EventFundingReleasedType: c.handleEventFundingReleased,
		types.EventMemberType:          c.handleEventMember,
		types.EventParamsUpdatedType:   c.handleEventParamsUpdated,
	}
	return c, nil
}

func (c *ChainIndexer) Close() error {
	return c.db.Close()
}

type eventHandler func(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error

func (c *ChainIndexer) handleEvent(ctx context.Context, db *gorm.DB, event abci.Event, height int64) {
	h, ok := c.eventHandlers[event.Type]
	if !ok {
		return
	}
	if err := h(ctx, db, event, height); err != nil {
		c.logger.Error("handle event fail", "type", event.Type, "height", height, "err", err)
	}
}

var errDecodeEvent = errors.New("decode event fail")

func (c *ChainIndexer) handleEventProposalCreated(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventProposalCreated(event)
	if ev == nil {
		return errDecodeEvent
	}
	var p Proposal
	if err := db.Where("vote = ?", ev.Vote).First(&p).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return db.Save(&Proposal{
		Id:       p.Id,
		Vote:     ev.Vote,
		Kind:     ev.Kind,
		Index:    ev.Index,
		Proposer: ev.Proposer.Hex(),
		Name:     ev.Name,
		Cost:     ev.Cost,
		Timeout:  ev.Timeout,
		Height:   uint64(height),
		Result:   voting.ResultInVote.String(),
	}).Error
}

func (c *ChainIndexer) handleEventVoteCast(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventVoteCast(event)
	if ev == nil {
		return errDecodeEvent
	}
	return db.Create(&Ballot{
		Vote:      ev.Vote,
		Voter:     ev.Voter.Hex(),
		Stake:     ev.Stake,
		Direction: voting.Direction(ev.Direction).String(),
		Height:    uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventVoteFinalized(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventVoteFinalized(event)
	if ev == nil {
		return errDecodeEvent
	}
	var p Proposal
	if err := db.Where("vote = ?", ev.Vote).First(&p).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	p.Vote = ev.Vote
	p.Kind = ev.Kind
	p.Index = ev.Target
	p.Result = voting.VoteResult(ev.Result).String()
	p.InputReputation = ev.InputReputation
	p.Executed = p.Executed || ev.Executed
	p.FinalizeHeight = uint64(height)
	return db.Save(&p).Error
}

func (c *ChainIndexer) handleEventReputationClaim(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventReputationClaim(event)
	if ev == nil {
		return errDecodeEvent
	}
	return db.Create(&Claim{
		Vote:   ev.Vote,
		Voter:  ev.Voter.Hex(),
		Stake:  ev.Stake,
		Share:  ev.Share,
		Bonus:  ev.Bonus,
		Refund: ev.Refund,
		Height: uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventProjectUpdated(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventProjectUpdated(event)
	if ev == nil {
		return errDecodeEvent
	}
	var p Project
	err := db.Where("idx = ?", ev.Project).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p.Index = ev.Project
		p.CreateHeight = uint64(height)
	} else if err != nil {
		return err
	}
	p.Status = project.Status(ev.Status).String()
	p.ActiveMilestone = ev.ActiveMilestone
	p.LastAction = ev.Action
	if ev.Vote != 0 || ev.Action == "created" {
		p.LastVote = ev.Vote
	}
	p.UpdateHeight = uint64(height)
	return db.Save(&p).Error
}

func (c *ChainIndexer) handleEventFundingReleased(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventFundingReleased(event)
	if ev == nil {
		return errDecodeEvent
	}
	return db.Create(&Funding{
		Project:   ev.Project,
		Milestone: ev.Milestone,
		Amount:    ev.Amount,
		Height:    uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventMember(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventMember(event)
	if ev == nil {
		return errDecodeEvent
	}
	return db.Create(&MemberChange{
		Action:  ev.Action,
		Account: ev.Account.Hex(),
		Amount:  ev.Amount,
		Height:  uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventParamsUpdated(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventParamsUpdated(event)
	if ev == nil {
		return errDecodeEvent
	}
	return db.Create(&ParamsChange{
		Vote:   ev.Vote,
		Name:   ev.Name,
		Value:  ev.Value,
		Height: uint64(height),
	}).Error
}

// indexBlock applies the events of one block and advances the cursor in the
// same sqlite transaction.
func (c *ChainIndexer) indexBlock(ctx context.Context, height int64, txsResults []*abci.ExecTxResult) error {
	tx := c.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	for _, res := range txsResults {
		if res == nil || res.Code != 0 {
			continue
		}
		for _, event := range res.Events {
			c.handleEvent(ctx, tx, event, height)
		}
	}
	if err := tx.Save(&Height{Id: 1, Height: uint64(height)}).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func (c *ChainIndexer) reconnect() {
	if c.cli != nil && c.cli.IsRunning() {
		_ = c.cli.Stop()
	}
	cli, err := comethttp.New(c.Url, "/websocket")
	if err != nil {
		c.logger.Error("reconnect fail", "err", err)
		c.cli = nil
		return
	}
	c.cli = cli
}

func (c *ChainIndexer) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.cli == nil {
				c.reconnect()
				if c.cli == nil {
					continue
				}
			}
			b, err := c.cli.Status(ctx)
			if err != nil {
				c.logger.Error("get status fail", "err", err)
				c.reconnect()
				continue
			}
			for b.SyncInfo.LatestBlockHeight >= c.Height {
				if ctx.Err() != nil {
					return
				}
				height := c.Height
				results, err := c.cli.BlockResults(ctx, &height)
				if err != nil {
					c.logger.Error("get block results fail", "height", height, "err", err)
					c.reconnect()
					break
				}
				if err := c.indexBlock(ctx, height, results.TxsResults); err != nil {
					c.logger.Error("index block fail", "height", height, "err", err)
					break
				}
				c.logger.Debug("indexed block", "height", height)
				c.Height++
			}
		}
	}
}

func paginate(page int, pageSize int) (offset int, limit int) {
	if pageSize <= 0 || pageSize > 1000 {
		pageSize = 100
	}
	if page < 0 {
		page = 0
	}
	return page * pageSize, pageSize
}

func (c *ChainIndexer) getProposals(kind string, proposer string, page int, pageSize int) ([]Proposal, uint64, error) {
	q := c.db.Model(&Proposal{})
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if proposer != "" {
		q = q.Where("proposer = ?", proposer)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := paginate(page, pageSize)
	proposals := make([]Proposal, 0)
	if err := q.Order("vote desc").Offset(offset).Limit(limit).Find(&proposals).Error; err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getProposalByVote(vote uint64) (Proposal, error) {
	var p Proposal
	err := c.db.Where("vote = ?", vote).First(&p).Error
	return p, err
}

func (c *ChainIndexer) getBallots(vote uint64, voter string, page int, pageSize int) ([]Ballot, uint64, error) {
	q := c.db.Model(&Ballot{}).Where("vote = ?", vote)
	if voter != "" {
		q = q.Where("voter = ?", voter)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := paginate(page, pageSize)
	ballots := make([]Ballot, 0)
	if err := q.Order("id asc").Offset(offset).Limit(limit).Find(&ballots).Error; err != nil {
		return nil, 0, err
	}
	return ballots, total, nil
}

func (c *ChainIndexer) getBallotsByVoter(voter string, page int, pageSize int) ([]Ballot, uint64, error) {
	q := c.db.Model(&Ballot{}).Where("voter = ?", voter)
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := paginate(page, pageSize)
	ballots := make([]Ballot, 0)
	if err := q.Order("id desc").Offset(offset).Limit(limit).Find(&ballots).Error; err != nil {
		return nil, 0, err
	}
	return ballots, total, nil
}

func (c *ChainIndexer) getProjects(status string, page int, pageSize int) ([]Project, uint64, error) {
	q := c.db.Model(&Project{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := paginate(page, pageSize)
	projects := make([]Project, 0)
	if err := q.Order("idx desc").Offset(offset).Limit(limit).Find(&projects).Error; err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

func (c *ChainIndexer) getProjectByIndex(id uint64) (Project, error) {
	var p Project
	err := c.db.Where("idx = ?", id).First(&p).Error
	return p, err
}

func (c *ChainIndexer) getFundingsByProject(id uint64) ([]Funding, error) {
	fundings := make([]Funding, 0)
	err := c.db.Where("project = ?", id).Order("id asc").Find(&fundings).Error
	return fundings, err
}

func (c *ChainIndexer) getClaims(vote *uint64, voter string, page int, pageSize int) ([]Claim, uint64, error) {
	q := c.db.Model(&Claim{})
	if vote != nil {
		q = q.Where("vote = ?", *vote)
	}
	if voter != "" {
		q = q.Where("voter = ?", voter)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := paginate(page, pageSize)
	claims := make([]Claim, 0)
	if err := q.Order("id desc").Offset(offset).Limit(limit).Find(&claims).Error; err != nil {
		return nil, 0, err
	}
	return claims, total, nil
}
