package controller

import (
	"errors"

	"mooc_backend/internal/service"
	"mooc_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	EnrollmentService *service.EnrollmentService
	CatalogService    *service.CatalogService
}

func NewEnrollmentController(enrollmentService *service.EnrollmentService, catalogService *service.CatalogService) *EnrollmentController {
	return &EnrollmentController{
		EnrollmentService: enrollmentService,
		CatalogService:    catalogService,
	}
}

// Enroll godoc
// @Summary 报名课程
// @Description 为当前用户创建报名记录，重复报名返回 409
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Param   slug path string true "课程短标识"
// @Success 201 {object} util.Response{data=model.Enrollment} "报名成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Failure 409 {object} util.Response "已报名"
// @Router /api/courses/{slug}/enroll [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	slug := ctx.Param("slug")

	course, err := c.CatalogService.GetCourseBySlug(ctx.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	enrollment, err := c.EnrollmentService.Enroll(claims.UserID, course.ID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAlreadyEnrolled):
			util.Conflict(ctx, "您已报名该课程")
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, enrollment)
}

// Cancel godoc
// @Summary 退出课程
// @Description 将当前用户的报名置为已取消状态，保留账目记录
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Param   slug path string true "课程短标识"
// @Success 200 {object} util.Response{data=model.Enrollment} "成功"
// @Failure 404 {object} util.Response "未报名或课程不存在"
// @Router /api/courses/{slug}/unenroll [post]
func (c *EnrollmentController) Cancel(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	slug := ctx.Param("slug")

	course, err := c.CatalogService.GetCourseBySlug(ctx.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	enrollment, err := c.EnrollmentService.Cancel(claims.UserID, course.ID)
	if err != nil {
		if errors.Is(err, util.ErrEnrollmentNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, enrollment)
}

// MyEnrollments godoc
// @Summary 我的报名
// @Description 当前用户的全部报名记录，含课程信息
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Enrollment} "成功"
// @Router /api/my/enrollments [get]
func (c *EnrollmentController) MyEnrollments(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	enrollments, err := c.EnrollmentService.ListForUser(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, enrollments)
}

// Activate godoc
// @Summary 批准报名
// @Description 将报名置为已报名状态，已批准的记录重复调用不报错
// @Tags 报名管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "报名ID"
// @Success 200 {object} util.Response{data=model.Enrollment} "成功"
// @Failure 404 {object} util.Response "报名不存在"
// @Router /api/admin/enrollments/{id}/activate [post]
func (c *EnrollmentController) Activate(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	enrollment, err := c.EnrollmentService.Activate(id)
	if err != nil {
		if errors.Is(err, util.ErrEnrollmentNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, enrollment)
}

// Decline godoc
// @Summary 拒绝报名
// @Tags 报名管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "报名ID"
// @Success 200 {object} util.Response{data=model.Enrollment} "成功"
// @Failure 404 {object} util.Response "报名不存在"
// @Router /api/admin/enrollments/{id}/decline [post]
func (c *EnrollmentController) Decline(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	enrollment, err := c.EnrollmentService.Decline(id)
	if err != nil {
		if errors.Is(err, util.ErrEnrollmentNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, enrollment)
}
