package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	recommendationdomain "github.com/smallbiznis/talentlink/internal/recommendation/domain"
)

type giveRecommendationRequest struct {
	ReceiverID  string `json:"receiver_id"`
	Message     string `json:"message"`
	Rating      *int   `json:"rating"`
	PortfolioID string `json:"portfolio_id"`
	ProjectName string `json:"project_name"`
	TeamID      string `json:"team_id"`
}

type requestRecommendationRequest struct {
	ReceiverID  string `json:"receiver_id"`
	Message     string `json:"message"`
	ProjectName string `json:"project_name"`
	TeamID      string `json:"team_id"`
}

func (s *Server) GiveRecommendation(c *gin.Context) {
	var req giveRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	receiverID, err := parseSnowflakeID(req.ReceiverID)
	if err != nil {
		AbortWithError(c, invalidFieldError("receiver_id"))
		return
	}
	portfolioID, err := parseOptionalSnowflakeID(req.PortfolioID)
	if err != nil {
		AbortWithError(c, invalidFieldError("portfolio_id"))
		return
	}
	teamID, err := parseOptionalSnowflakeID(req.TeamID)
	if err != nil {
		AbortWithError(c, invalidFieldError("team_id"))
		return
	}

	resp, err := s.recommendationSvc.Give(c.Request.Context(), currentUserID(c), recommendationdomain.GiveRecommendation{
		ReceiverID:  receiverID,
		Message:     strings.TrimSpace(req.Message),
		Rating:      req.Rating,
		PortfolioID: portfolioID,
		ProjectName: strings.TrimSpace(req.ProjectName),
		TeamID:      teamID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) RequestRecommendation(c *gin.Context) {
	var req requestRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	receiverID, err := parseSnowflakeID(req.ReceiverID)
	if err != nil {
		AbortWithError(c, invalidFieldError("receiver_id"))
		return
	}
	teamID, err := parseOptionalSnowflakeID(req.TeamID)
	if err != nil {
		AbortWithError(c, invalidFieldError("team_id"))
		return
	}

	resp, err := s.recommendationSvc.Request(c.Request.Context(), currentUserID(c), recommendationdomain.RequestRecommendation{
		ReceiverID:  receiverID,
		Message:     strings.TrimSpace(req.Message),
		ProjectName: strings.TrimSpace(req.ProjectName),
		TeamID:      teamID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListReceivedRecommendations(c *gin.Context) {
	recType := strings.ToUpper(strings.TrimSpace(c.Query("type")))
	status := strings.ToUpper(strings.TrimSpace(c.Query("status")))

	resp, err := s.recommendationSvc.ListReceived(c.Request.Context(), currentUserID(c), recType, status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListGivenRecommendations(c *gin.Context) {
	recType := strings.ToUpper(strings.TrimSpace(c.Query("type")))

	resp, err := s.recommendationSvc.ListGiven(c.Request.Context(), currentUserID(c), recType)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RespondRecommendation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Accept == nil {
		AbortWithError(c, invalidFieldError("accept"))
		return
	}

	resp, err := s.recommendationSvc.Respond(c.Request.Context(), currentUserID(c), id, *req.Accept)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteRecommendation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := s.recommendationSvc.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recommendation deleted successfully"})
}
