package indexer

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

type Service struct {
	engine     *gin.Engine
	indexer    *ChainIndexer
	listenAddr string
}

func NewService(listenAddr string, indexer *ChainIndexer) *Service {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	s := &Service{
		engine:     r,
		indexer:    indexer,
		listenAddr: listenAddr,
	}
	s.engine.POST("/getProposals", s.handleGetProposals)
	s.engine.POST("/getVotes", s.handleGetVotes)
	s.engine.POST("/getProjects", s.handleGetProjects)
	s.engine.POST("/getClaims", s.handleGetClaims)
	return s
}

func (s *Service) Start() error {
	return s.engine.Run(s.listenAddr)
}

func (s *Service) Handler() http.Handler {
	return s.engine
}

type ProposalInfo struct {
	Proposal Proposal `json:"proposal"`
	Votes    []Ballot `json:"votes"`
}

type GetProposalsReq struct {
	Vote     *uint64 `json:"vote"`
	Kind     string  `json:"kind"`
	Proposer string  `json:"proposer"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

type GetProposalsResponse struct {
	Proposals []ProposalInfo `json:"proposals"`
	Total     uint64         `json:"total"`
}

func (s *Service) handleGetProposals(c *gin.Context) {
	var response GetProposalsResponse
	response.Proposals = make([]ProposalInfo, 0)
	var requestData GetProposalsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var proposals []Proposal
	if requestData.Vote != nil {
		p, err := s.indexer.getProposalByVote(*requestData.Vote)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, response)
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		proposals = []Proposal{p}
		response.Total = 1
	} else {
		var err error
		proposals, response.Total, err = s.indexer.getProposals(requestData.Kind, requestData.Proposer, requestData.Page, requestData.PageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	for _, p := range proposals {
		votes, _, err := s.indexer.getBallots(p.Vote, "", 0, 1000)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, ProposalInfo{Proposal: p, Votes: votes})
	}
	c.JSON(http.StatusOK, response)
}

type GetVotesReq struct {
	Vote     *uint64 `json:"vote"`
	Voter    string  `json:"voter"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

type GetVotesResponse struct {
	Votes []Ballot `json:"votes"`
	Total uint64   `json:"total"`
}

func (s *Service) handleGetVotes(c *gin.Context) {
	var requestData GetVotesReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if requestData.Vote == nil && requestData.Voter == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vote or voter is required"})
		return
	}
	var (
		response GetVotesResponse
		err      error
	)
	if requestData.Vote != nil {
		response.Votes, response.Total, err = s.indexer.getBallots(*requestData.Vote, requestData.Voter, requestData.Page, requestData.PageSize)
	} else {
		response.Votes, response.Total, err = s.indexer.getBallotsByVoter(requestData.Voter, requestData.Page, requestData.PageSize)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, response)
}

type ProjectInfo struct {
	Project  Project   `json:"project"`
	Fundings []Funding `json:"fundings"`
}

type GetProjectsReq struct {
	Project  *uint64 `json:"project"`
	Status   string  `json:"status"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

type GetProjectsResponse struct {
	Projects []ProjectInfo `json:"projects"`
	Total    uint64        `json:"total"`
}

func (s *Service) handleGetProjects(c *gin.Context) {
	var response GetProjectsResponse
	response.Projects = make([]ProjectInfo, 0)
	var requestData GetProjectsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var projects []Project
	if requestData.Project != nil {
		p, err := s.indexer.getProjectByIndex(*requestData.Project)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, response)
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		projects = []Project{p}
		response.Total = 1
	} else {
		var err error
		projects, response.Total, err = s.indexer.getProjects(requestData.Status, requestData.Page, requestData.PageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	for _, p := range projects {
		fundings, err := s.indexer.getFundingsByProject(p.Index)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Projects = append(response.Projects, ProjectInfo{Project: p, Fundings: fundings})
	}
	c.JSON(http.StatusOK, response)
}

type GetClaimsReq struct {
	Vote     *uint64 `json:"vote"`
	Voter    string  `json:"voter"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

type GetClaimsResponse struct {
	Claims []Claim `json:"claims"`
	Total  uint64  `json:"total"`
}

func (s *Service) handleGetClaims(c *gin.Context) {
	var requestData GetClaimsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var (
		response GetClaimsResponse
		err      error
	)
	response.Claims, response.Total, err = s.indexer.getClaims(requestData.Vote, requestData.Voter, requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, response)
}
