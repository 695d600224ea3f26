package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	portfoliodomain "github.com/smallbiznis/talentlink/internal/portfolio/domain"
)

type inviteContributorRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type respondRequest struct {
	Accept *bool `json:"accept"`
}

func (s *Server) CreatePortfolio(c *gin.Context) {
	var req portfoliodomain.CreatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.portfolioSvc.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetPortfolio(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := s.portfolioSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePortfolio(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req portfoliodomain.UpdatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.portfolioSvc.Update(c.Request.Context(), currentUserID(c), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePortfolio(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := s.portfolioSvc.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Portfolio deleted successfully"})
}

func (s *Server) ListContributors(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := s.portfolioSvc.ListContributors(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) InviteContributor(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req inviteContributorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	userID, err := parseSnowflakeID(req.UserID)
	if err != nil {
		AbortWithError(c, invalidFieldError("user_id"))
		return
	}

	resp, err := s.portfolioSvc.Invite(c.Request.Context(), currentUserID(c), id, portfoliodomain.InviteContributorRequest{
		UserID: userID,
		Role:   strings.TrimSpace(req.Role),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) SuggestContributors(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			AbortWithError(c, invalidFieldError("limit"))
			return
		}
		limit = parsed
	}

	resp, err := s.collaborationSvc.SuggestContributors(c.Request.Context(), currentUserID(c), id, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPortfolioRecommendations(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := s.recommendationSvc.ListForPortfolio(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListContributorInvitations(c *gin.Context) {
	resp, err := s.portfolioSvc.ListMyInvitations(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RespondContributor(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Accept == nil {
		AbortWithError(c, invalidFieldError("accept"))
		return
	}

	resp, err := s.portfolioSvc.Respond(c.Request.Context(), currentUserID(c), id, *req.Accept)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RemoveContributor(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := s.portfolioSvc.Remove(c.Request.Context(), currentUserID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contributor removed successfully"})
}
