package controller

import (
	"errors"

	"mooc_backend/internal/model"
	"mooc_backend/internal/service"
	"mooc_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnnouncementController struct {
	AnnouncementService *service.AnnouncementService
	CatalogService      *service.CatalogService
	EnrollmentService   *service.EnrollmentService
}

func NewAnnouncementController(announcementService *service.AnnouncementService, catalogService *service.CatalogService, enrollmentService *service.EnrollmentService) *AnnouncementController {
	return &AnnouncementController{
		AnnouncementService: announcementService,
		CatalogService:      catalogService,
		EnrollmentService:   enrollmentService,
	}
}

// ListAnnouncements godoc
// @Summary 课程公告列表
// @Description 按创建时间倒序返回课程公告，已报名用户可见
// @Tags 公告
// @Produce  json
// @Security ApiKeyAuth
// @Param   slug path string true "课程短标识"
// @Success 200 {object} util.Response{data=[]model.Announcement} "成功"
// @Failure 403 {object} util.Response "未报名"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{slug}/announcements [get]
func (c *AnnouncementController) ListAnnouncements(ctx *gin.Context) {
	course, ok := c.resolveCourse(ctx, true)
	if !ok {
		return
	}

	announcements, err := c.AnnouncementService.ListForCourse(course.ID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, announcements)
}

// GetAnnouncement godoc
// @Summary 公告详情
// @Description 公告正文及全部评论
// @Tags 公告
// @Produce  json
// @Security ApiKeyAuth
// @Param   slug path string true "课程短标识"
// @Param   id path int true "公告ID"
// @Success 200 {object} util.Response{data=model.Announcement} "成功"
// @Failure 404 {object} util.Response "公告不存在"
// @Router /api/courses/{slug}/announcements/{id} [get]
func (c *AnnouncementController) GetAnnouncement(ctx *gin.Context) {
	course, ok := c.resolveCourse(ctx, true)
	if !ok {
		return
	}

	id := util.MustParseUint(ctx.Param("id"))
	announcement, err := c.AnnouncementService.GetAnnouncement(id)
	if err != nil || announcement.CourseID != course.ID {
		if err != nil && !errors.Is(err, util.ErrAnnouncementNotFound) {
			util.LogInternalError(ctx, err)
		} else {
			util.NotFound(ctx)
		}
		return
	}

	util.Success(ctx, announcement)
}

// swagger:model AnnouncementRequest
type AnnouncementRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// PostAnnouncement godoc
// @Summary 发布公告
// @Description 创建公告并向该课程的在读学员群发邮件通知
// @Tags 公告
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   slug path string true "课程短标识"
// @Param   body body AnnouncementRequest true "公告内容"
// @Success 201 {object} util.Response{data=model.Announcement} "发布成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{slug}/announcements [post]
func (c *AnnouncementController) PostAnnouncement(ctx *gin.Context) {
	course, ok := c.resolveCourse(ctx, false)
	if !ok {
		return
	}

	var req AnnouncementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	announcement, err := c.AnnouncementService.Post(ctx.Request.Context(), course.ID, req.Title, req.Content)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, announcement)
}

// swagger:model CommentRequest
type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// AddComment godoc
// @Summary 评论公告
// @Tags 公告
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   slug path string true "课程短标识"
// @Param   id path int true "公告ID"
// @Param   body body CommentRequest true "评论内容"
// @Success 201 {object} util.Response{data=model.Comment} "评论成功"
// @Failure 404 {object} util.Response "公告不存在"
// @Router /api/courses/{slug}/announcements/{id}/comments [post]
func (c *AnnouncementController) AddComment(ctx *gin.Context) {
	if _, ok := c.resolveCourse(ctx, true); !ok {
		return
	}

	var req CommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	id := util.MustParseUint(ctx.Param("id"))

	comment, err := c.AnnouncementService.AddComment(id, claims.UserID, req.Text)
	if err != nil {
		if errors.Is(err, util.ErrAnnouncementNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, comment)
}

// resolveCourse 解析课程并校验访问身份。enrolledOnly 为 true 时
// 学生需已报名；为 false 时只允许教师和管理员
func (c *AnnouncementController) resolveCourse(ctx *gin.Context, enrolledOnly bool) (*model.Course, bool) {
	slug := ctx.Param("slug")

	course, err := c.CatalogService.GetCourseBySlug(ctx.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return nil, false
	}

	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return nil, false
	}

	if claims.Role == model.Teacher || claims.Role == model.Admin {
		return course, true
	}
	if !enrolledOnly {
		util.Forbidden(ctx)
		return nil, false
	}

	if err := c.EnrollmentService.RequireSubscribed(claims.UserID, course.ID); err != nil {
		if errors.Is(err, util.ErrNotEnrolled) {
			util.Forbidden(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return nil, false
	}

	return course, true
}
