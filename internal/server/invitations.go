package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	emaildomain "github.com/smallbiznis/talentlink/internal/emailinvitation/domain"
	invitationdomain "github.com/smallbiznis/talentlink/internal/invitation/domain"
)

type sendInvitationRequest struct {
	TeamID     string `json:"team_id"`
	ReceiverID string `json:"receiver_id"`
	Role       string `json:"role"`
	Message    string `json:"message"`
}

type sendEmailInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Server) SendInvitation(c *gin.Context) {
	var req sendInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	teamID, err := parseSnowflakeID(req.TeamID)
	if err != nil {
		AbortWithError(c, invalidFieldError("team_id"))
		return
	}
	receiverID, err := parseSnowflakeID(req.ReceiverID)
	if err != nil {
		AbortWithError(c, invalidFieldError("receiver_id"))
		return
	}

	resp, err := s.invitationSvc.Send(c.Request.Context(), currentUserID(c), invitationdomain.SendRequest{
		TeamID:     teamID,
		ReceiverID: receiverID,
		Role:       req.Role,
		Message:    strings.TrimSpace(req.Message),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListReceivedInvitations(c *gin.Context) {
	status := strings.ToUpper(strings.TrimSpace(c.Query("status")))
	resp, err := s.invitationSvc.ListReceived(c.Request.Context(), currentUserID(c), status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSentInvitations(c *gin.Context) {
	resp, err := s.invitationSvc.ListSent(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AcceptInvitation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := s.invitationSvc.Accept(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeclineInvitation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := s.invitationSvc.Decline(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelInvitation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := s.invitationSvc.Cancel(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SendEmailInvitation(c *gin.Context) {
	teamID, ok := pathID(c, "teamId")
	if !ok {
		return
	}

	var req sendEmailInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.emailInviteSvc.Send(c.Request.Context(), teamID, currentUserID(c), emaildomain.SendRequest{
		Email: strings.TrimSpace(req.Email),
		Role:  req.Role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListEmailInvitations(c *gin.Context) {
	teamID, ok := pathID(c, "teamId")
	if !ok {
		return
	}

	resp, err := s.emailInviteSvc.ListForTeam(c.Request.Context(), teamID, currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelEmailInvitation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := s.emailInviteSvc.Cancel(c.Request.Context(), id, currentUserID(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation cancelled"})
}

func (s *Server) ValidateEmailInvitation(c *gin.Context) {
	resp, err := s.emailInviteSvc.Validate(c.Request.Context(), c.Param("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AcceptEmailInvitation(c *gin.Context) {
	resp, err := s.emailInviteSvc.Accept(c.Request.Context(), c.Param("token"), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
