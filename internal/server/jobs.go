package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	applicationdomain "github.com/smallbiznis/talentlink/internal/application/domain"
	jobdomain "github.com/smallbiznis/talentlink/internal/job/domain"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
)

type createJobRequest struct {
	TeamID         string   `json:"team_id"`
	SubTeamID      string   `json:"sub_team_id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Location       string   `json:"location"`
	Remote         bool     `json:"remote"`
	EmploymentType string   `json:"employment_type"`
	SalaryMin      *int64   `json:"salary_min"`
	SalaryMax      *int64   `json:"salary_max"`
	Currency       string   `json:"currency"`
	Skills         []string `json:"skills"`
	Status         string   `json:"status"`
	IsFeatured     bool     `json:"is_featured"`
	IsSponsored    bool     `json:"is_sponsored"`
}

type updateJobRequest struct {
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	Location       *string  `json:"location"`
	Remote         *bool    `json:"remote"`
	EmploymentType *string  `json:"employment_type"`
	SalaryMin      *int64   `json:"salary_min"`
	SalaryMax      *int64   `json:"salary_max"`
	Currency       *string  `json:"currency"`
	Skills         []string `json:"skills"`
	Status         *string  `json:"status"`
	IsFeatured     *bool    `json:"is_featured"`
	IsSponsored    *bool    `json:"is_sponsored"`
}

type applicationStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	teamID, err := parseSnowflakeID(req.TeamID)
	if err != nil {
		AbortWithError(c, invalidFieldError("team_id"))
		return
	}
	subTeamID, err := parseOptionalSnowflakeID(req.SubTeamID)
	if err != nil {
		AbortWithError(c, invalidFieldError("sub_team_id"))
		return
	}

	resp, err := s.jobSvc.Create(c.Request.Context(), currentUserID(c), jobdomain.CreateJobRequest{
		TeamID:         teamID,
		SubTeamID:      subTeamID,
		Title:          strings.TrimSpace(req.Title),
		Description:    strings.TrimSpace(req.Description),
		Location:       strings.TrimSpace(req.Location),
		Remote:         req.Remote,
		EmploymentType: req.EmploymentType,
		SalaryMin:      req.SalaryMin,
		SalaryMax:      req.SalaryMax,
		Currency:       req.Currency,
		Skills:         req.Skills,
		Status:         req.Status,
		IsFeatured:     req.IsFeatured,
		IsSponsored:    req.IsSponsored,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListJobs(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status         string `form:"status"`
		TeamID         string `form:"team_id"`
		Query          string `form:"q"`
		EmploymentType string `form:"employment_type"`
		Featured       string `form:"featured"`
		Remote         string `form:"remote"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	teamID, err := parseOptionalSnowflakeID(query.TeamID)
	if err != nil {
		AbortWithError(c, invalidFieldError("team_id"))
		return
	}
	featured, err := parseOptionalBool(query.Featured)
	if err != nil {
		AbortWithError(c, invalidFieldError("featured"))
		return
	}
	remote, err := parseOptionalBool(query.Remote)
	if err != nil {
		AbortWithError(c, invalidFieldError("remote"))
		return
	}

	resp, err := s.jobSvc.List(c.Request.Context(), jobdomain.ListRequest{
		ViewerID: currentUserID(c),
		ListFilter: jobdomain.ListFilter{
			Status:         strings.ToUpper(strings.TrimSpace(query.Status)),
			TeamID:         teamID,
			Query:          strings.TrimSpace(query.Query),
			EmploymentType: strings.ToUpper(strings.TrimSpace(query.EmploymentType)),
			Featured:       featured,
			Remote:         remote,
		},
		Pagination: query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Jobs, "page_info": resp.PageInfo})
}

func (s *Server) GetJob(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := s.jobSvc.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateJob(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.jobSvc.Update(c.Request.Context(), currentUserID(c), id, jobdomain.UpdateJobRequest{
		Title:          req.Title,
		Description:    req.Description,
		Location:       req.Location,
		Remote:         req.Remote,
		EmploymentType: req.EmploymentType,
		SalaryMin:      req.SalaryMin,
		SalaryMax:      req.SalaryMax,
		Currency:       req.Currency,
		Skills:         req.Skills,
		Status:         req.Status,
		IsFeatured:     req.IsFeatured,
		IsSponsored:    req.IsSponsored,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteJob(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := s.jobSvc.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Job deleted successfully"})
}

func (s *Server) CloseJob(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := s.jobSvc.Close(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ApplyToJob(c *gin.Context) {
	jobID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req applicationdomain.ApplyRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	resp, err := s.applicationSvc.Apply(c.Request.Context(), currentUserID(c), jobID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListJobApplications(c *gin.Context) {
	jobID, ok := pathID(c, "id")
	if !ok {
		return
	}

	status := strings.ToUpper(strings.TrimSpace(c.Query("status")))
	resp, err := s.applicationSvc.ListForJob(c.Request.Context(), currentUserID(c), jobID, status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListMyApplications(c *gin.Context) {
	status := strings.ToUpper(strings.TrimSpace(c.Query("status")))
	resp, err := s.applicationSvc.ListMine(c.Request.Context(), currentUserID(c), status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateApplicationStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req applicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.applicationSvc.UpdateStatus(c.Request.Context(), currentUserID(c), id, strings.ToUpper(strings.TrimSpace(req.Status)))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) WithdrawApplication(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := s.applicationSvc.Withdraw(c.Request.Context(), currentUserID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Application withdrawn successfully"})
}
