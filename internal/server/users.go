package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
)

type updateProfileRequest struct {
	FirstName    *string        `json:"first_name"`
	LastName     *string        `json:"last_name"`
	Bio          *string        `json:"bio"`
	Location     *string        `json:"location"`
	Availability *string        `json:"availability"`
	HourlyRate   *float64       `json:"hourly_rate"`
	Links        map[string]any `json:"links"`
}

type setSkillsRequest struct {
	Skills []userdomain.SkillInput `json:"skills"`
}

func (s *Server) GetMe(c *gin.Context) {
	resp, err := s.userSvc.GetByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateMe(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.userSvc.UpdateProfile(c.Request.Context(), currentUserID(c), userdomain.UpdateProfileRequest{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Bio:          req.Bio,
		Location:     req.Location,
		Availability: req.Availability,
		HourlyRate:   req.HourlyRate,
		Links:        req.Links,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetMySkills(c *gin.Context) {
	var req setSkillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.userSvc.SetSkills(c.Request.Context(), currentUserID(c), req.Skills)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SearchUsers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Query        string `form:"q"`
		Role         string `form:"role"`
		Availability string `form:"availability"`
		Skill        string `form:"skill"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.userSvc.Search(c.Request.Context(), userdomain.SearchRequest{
		SearchFilter: userdomain.SearchFilter{
			Query:        strings.TrimSpace(query.Query),
			Role:         strings.ToUpper(strings.TrimSpace(query.Role)),
			Availability: strings.ToUpper(strings.TrimSpace(query.Availability)),
			Skill:        strings.TrimSpace(query.Skill),
		},
		Pagination: query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Users, "page_info": resp.PageInfo})
}

func (s *Server) GetUser(c *gin.Context) {
	resp, err := s.userSvc.Get(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCollaborators(c *gin.Context) {
	ctx := c.Request.Context()
	profile, err := s.userSvc.Get(ctx, c.Param("identifier"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.collaborationSvc.ListCollaborators(ctx, profile.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListUserPortfolios(c *gin.Context) {
	ctx := c.Request.Context()
	profile, err := s.userSvc.Get(ctx, c.Param("identifier"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.portfolioSvc.ListByUser(ctx, profile.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDashboard(c *gin.Context) {
	resp, err := s.dashboardSvc.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
