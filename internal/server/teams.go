package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/talentlink/internal/audit/domain"
	teamdomain "github.com/smallbiznis/talentlink/internal/team/domain"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
)

type createTeamRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Type         string `json:"type"`
	ParentTeamID string `json:"parent_team_id"`
}

type updateTeamRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Type        *string `json:"type"`
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

func (s *Server) CreateTeam(c *gin.Context) {
	var req createTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	parentID, err := parseOptionalSnowflakeID(req.ParentTeamID)
	if err != nil {
		AbortWithError(c, invalidFieldError("parent_team_id"))
		return
	}

	resp, err := s.teamSvc.Create(c.Request.Context(), currentUserID(c), teamdomain.CreateTeamRequest{
		Name:         strings.TrimSpace(req.Name),
		Description:  strings.TrimSpace(req.Description),
		Type:         req.Type,
		ParentTeamID: parentID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) SearchTeams(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Query    string `form:"q"`
		Type     string `form:"type"`
		MainOnly string `form:"main_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	mainOnly, err := parseOptionalBool(query.MainOnly)
	if err != nil {
		AbortWithError(c, invalidFieldError("main_only"))
		return
	}

	filter := teamdomain.SearchFilter{
		Query: strings.TrimSpace(query.Query),
		Type:  strings.TrimSpace(query.Type),
	}
	if mainOnly != nil {
		filter.MainOnly = *mainOnly
	}

	resp, err := s.teamSvc.Search(c.Request.Context(), teamdomain.SearchRequest{
		SearchFilter: filter,
		Pagination:   query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Teams, "page_info": resp.PageInfo})
}

func (s *Server) ListMyTeams(c *gin.Context) {
	resp, err := s.teamSvc.ListMine(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetTeam accepts either a team id or a slug.
func (s *Server) GetTeam(c *gin.Context) {
	resp, err := s.teamSvc.Get(c.Request.Context(), c.Param("teamId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateTeam(c *gin.Context) {
	teamID, ok := pathID(c, "teamId")
	if !ok {
		return
	}

	var req updateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.teamSvc.Update(c.Request.Context(), teamID, currentUserID(c), teamdomain.UpdateTeamRequest{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteTeam(c *gin.Context) {
	teamID, ok := pathID(c, "teamId")
	if !ok {
		return
	}

	if err := s.teamSvc.Delete(c.Request.Context(), teamID, currentUserID(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Team deleted successfully"})
}

func (s *Server) ListSubTeams(c *gin.Context) {
	teamID, ok := pathID(c, "teamId")
	if !ok {
		return
	}

	resp, err := s.teamSvc.ListSubTeams(c.Request.Context(), teamID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTeamMembers(c *gin.Context) {
	teamID, ok := pathID(c, "teamId")
	if !ok {
		return
	}

	resp, err := s.teamSvc.ListMembers(c.Request.Context(), teamID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AddTeamMember(c *gin.Context) {
	teamID, ok := pathID(c, "teamId")
	if !ok {
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	userID, err := parseSnowflakeID(req.UserID)
	if err != nil {
		AbortWithError(c, invalidFieldError("user_id"))
		return
	}

	resp, err := s.teamSvc.AddMember(c.Request.Context(), teamID, currentUserID(c), teamdomain.AddMemberRequest{
		UserID: userID,
		Role:   req.Role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) RemoveTeamMember(c *gin.Context) {
	teamID, ok := pathID(c, "teamId")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	if err := s.teamSvc.RemoveMember(c.Request.Context(), teamID, currentUserID(c), userID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}

func (s *Server) UpdateTeamMemberRole(c *gin.Context) {
	teamID, ok := pathID(c, "teamId")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.teamSvc.UpdateMemberRole(c.Request.Context(), teamID, currentUserID(c), userID, req.Role)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) LeaveTeam(c *gin.Context) {
	teamID, ok := pathID(c, "teamId")
	if !ok {
		return
	}

	if err := s.teamSvc.Leave(c.Request.Context(), teamID, currentUserID(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left team successfully"})
}

func (s *Server) ListTeamInvitations(c *gin.Context) {
	teamID, ok := pathID(c, "teamId")
	if !ok {
		return
	}

	resp, err := s.invitationSvc.ListForTeam(c.Request.Context(), teamID, currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTeamJobs(c *gin.Context) {
	teamID, ok := pathID(c, "teamId")
	if !ok {
		return
	}

	resp, err := s.jobSvc.ListForTeam(c.Request.Context(), teamID, currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAuditLogs(c *gin.Context) {
	teamID, ok := pathID(c, "teamId")
	if !ok {
		return
	}

	var query struct {
		pagination.Pagination
		Action string `form:"action"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), teamID, currentUserID(c), auditdomain.ListRequest{
		Pagination: query.Pagination,
		Action:     strings.TrimSpace(query.Action),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.AuditLogs, "page_info": resp.PageInfo})
}
