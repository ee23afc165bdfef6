package controller

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"mooc_backend/internal/model"
	"mooc_backend/internal/service"
	"mooc_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CatalogController struct {
	CatalogService      *service.CatalogService
	EnrollmentService   *service.EnrollmentService
	AnnouncementService *service.AnnouncementService
}

func NewCatalogController(catalogService *service.CatalogService, enrollmentService *service.EnrollmentService, announcementService *service.AnnouncementService) *CatalogController {
	return &CatalogController{
		CatalogService:      catalogService,
		EnrollmentService:   enrollmentService,
		AnnouncementService: announcementService,
	}
}

// ListCourses godoc
// @Summary 课程列表/搜索
// @Description 按名称或简介子串搜索课程，q 为空返回全部
// @Tags 课程
// @Produce  json
// @Param   q query string false "搜索关键词"
// @Success 200 {object} util.Response{data=[]model.Course} "成功"
// @Router /api/courses [get]
func (c *CatalogController) ListCourses(ctx *gin.Context) {
	query := ctx.Query("q")

	courses, err := c.CatalogService.Search(query)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, courses)
}

// GetCourse godoc
// @Summary 课程详情
// @Description 按短标识查询课程，附带已发布课时；在读学员和教学人员额外返回公告预览
// @Tags 课程
// @Produce  json
// @Param   slug path string true "课程短标识"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{slug} [get]
func (c *CatalogController) GetCourse(ctx *gin.Context) {
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

	lessons, err := c.CatalogService.ReleasedLessons(course.ID, time.Now())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	payload := gin.H{
		"course":  course,
		"lessons": lessons,
	}

	if c.canSeeAnnouncements(ctx, course.ID) {
		if announcements, err := c.AnnouncementService.ListForCourse(course.ID); err == nil {
			if len(announcements) > announcementPreviewLimit {
				announcements = announcements[:announcementPreviewLimit]
			}
			payload["announcements"] = announcements
		}
	}

	util.Success(ctx, payload)
}

const announcementPreviewLimit = 5

// canSeeAnnouncements 游客看不到公告，在读学员和教学人员可见
func (c *CatalogController) canSeeAnnouncements(ctx *gin.Context, courseID uint) bool {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		return false
	}
	if claims.Role == model.Teacher || claims.Role == model.Admin {
		return true
	}
	return c.EnrollmentService.RequireSubscribed(claims.UserID, courseID) == nil
}

// ListLessons godoc
// @Summary 课时列表
// @Description 已报名用户查看课程的已发布课时
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   slug path string true "课程短标识"
// @Success 200 {object} util.Response{data=[]model.Lesson} "成功"
// @Failure 403 {object} util.Response "未报名"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{slug}/lessons [get]
func (c *CatalogController) ListLessons(ctx *gin.Context) {
	course, ok := c.courseForEnrolled(ctx)
	if !ok {
		return
	}

	lessons, err := c.CatalogService.ReleasedLessons(course.ID, time.Now())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, lessons)
}

// GetLesson godoc
// @Summary 课时详情
// @Description 课时内容及材料，未到发布日期的课时学生不可见
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   slug path string true "课程短标识"
// @Param   id path int true "课时ID"
// @Success 200 {object} util.Response{data=model.Lesson} "成功"
// @Failure 403 {object} util.Response "未报名或未发布"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/courses/{slug}/lessons/{id} [get]
func (c *CatalogController) GetLesson(ctx *gin.Context) {
	course, ok := c.courseForEnrolled(ctx)
	if !ok {
		return
	}

	claims := util.GetUserFromContext(ctx)
	lessonID := util.MustParseUint(ctx.Param("id"))

	lesson, err := c.CatalogService.GetLesson(course.ID, lessonID, claims.Role, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, util.ErrLessonNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrLessonNotAvailable):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, lesson)
}

// courseForEnrolled 解析课程并校验访问权：学生必须已报名，
// 教师和管理员直接放行
func (c *CatalogController) courseForEnrolled(ctx *gin.Context) (*model.Course, bool) {
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

// swagger:model CourseRequest
type CourseRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
	About       string `json:"about"`
	StartDate   string `json:"startDate"`
}

// CreateCourse godoc
// @Summary 创建课程
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body CourseRequest true "课程信息"
// @Success 201 {object} util.Response{data=model.Course} "创建成功"
// @Failure 400 {object} util.Response "参数错误"
// @Failure 409 {object} util.Response "短标识已占用"
// @Router /api/admin/courses [post]
func (c *CatalogController) CreateCourse(ctx *gin.Context) {
	var req CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course := &model.Course{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		About:       req.About,
	}
	if req.StartDate != "" {
		t, err := time.Parse(util.DateFormat, req.StartDate)
		if err != nil {
			util.BadRequest(ctx, "无效的开始日期格式")
			return
		}
		course.StartDate = &t
	}

	if err := c.CatalogService.CreateCourse(course); err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidSlug):
			util.BadRequest(ctx, "短标识只能包含小写字母、数字和连字符")
		case errors.Is(err, util.ErrSlugTaken):
			util.Conflict(ctx, "短标识已被占用")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, course)
}

// UpdateCourse godoc
// @Summary 更新课程
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body CourseRequest true "课程信息"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/admin/courses/{id} [put]
func (c *CatalogController) UpdateCourse(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	course, err := c.CatalogService.CourseRepo.FindByID(id)
	if err != nil {
		util.NotFound(ctx)
		return
	}

	var req CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course.Name = req.Name
	course.Slug = req.Slug
	course.Description = req.Description
	course.About = req.About
	if req.StartDate != "" {
		t, err := time.Parse(util.DateFormat, req.StartDate)
		if err != nil {
			util.BadRequest(ctx, "无效的开始日期格式")
			return
		}
		course.StartDate = &t
	}

	if err := c.CatalogService.UpdateCourse(ctx.Request.Context(), course); err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidSlug):
			util.BadRequest(ctx, "短标识只能包含小写字母、数字和连字符")
		case errors.Is(err, util.ErrSlugTaken):
			util.Conflict(ctx, "短标识已被占用")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, course)
}

// DeleteCourse godoc
// @Summary 删除课程
// @Description 级联删除课程下的课时、材料和公告
// @Tags 课程管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/admin/courses/{id} [delete]
func (c *CatalogController) DeleteCourse(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	if err := c.CatalogService.DeleteCourse(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"deleted": id})
}

// UploadCourseImage godoc
// @Summary 上传课程封面
// @Tags 课程管理
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   file formData file true "封面图片"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Failure 400 {object} util.Response "文件无效"
// @Router /api/admin/courses/{id}/image [post]
func (c *CatalogController) UploadCourseImage(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "缺少文件")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	filename := fmt.Sprintf("%d%s", time.Now().UnixNano(), filepath.Ext(fileHeader.Filename))
	course, err := c.CatalogService.UploadCourseImage(ctx.Request.Context(), id, filename, file, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, course)
}

// swagger:model LessonRequest
type LessonRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Number      int    `json:"number"`
	ReleaseDate string `json:"releaseDate"`
}

// CreateLesson godoc
// @Summary 创建课时
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body LessonRequest true "课时信息"
// @Success 201 {object} util.Response{data=model.Lesson} "创建成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/admin/courses/{id}/lessons [post]
func (c *CatalogController) CreateLesson(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("id"))

	var req LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson := &model.Lesson{
		CourseID:    courseID,
		Name:        req.Name,
		Description: req.Description,
		Number:      req.Number,
	}
	if req.ReleaseDate != "" {
		t, err := time.Parse(util.DateFormat, req.ReleaseDate)
		if err != nil {
			util.BadRequest(ctx, "无效的发布日期格式")
			return
		}
		lesson.ReleaseDate = &t
	}

	if err := c.CatalogService.CreateLesson(ctx.Request.Context(), lesson); err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, lesson)
}

// UpdateLesson godoc
// @Summary 更新课时
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   lessonId path int true "课时ID"
// @Param   body body LessonRequest true "课时信息"
// @Success 200 {object} util.Response{data=model.Lesson} "成功"
// @Failure 404 {object} util.Response "课时不存在"
// @Router /api/admin/courses/{id}/lessons/{lessonId} [put]
func (c *CatalogController) UpdateLesson(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("id"))
	lessonID := util.MustParseUint(ctx.Param("lessonId"))

	lesson, err := c.CatalogService.CourseRepo.FindLesson(courseID, lessonID)
	if err != nil {
		util.NotFound(ctx)
		return
	}

	var req LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson.Name = req.Name
	lesson.Description = req.Description
	lesson.Number = req.Number
	if req.ReleaseDate != "" {
		t, err := time.Parse(util.DateFormat, req.ReleaseDate)
		if err != nil {
			util.BadRequest(ctx, "无效的发布日期格式")
			return
		}
		lesson.ReleaseDate = &t
	} else {
		lesson.ReleaseDate = nil
	}

	if err := c.CatalogService.UpdateLesson(ctx.Request.Context(), lesson); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, lesson)
}

// DeleteLesson godoc
// @Summary 删除课时
// @Tags 课程管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   lessonId path int true "课时ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "课时不存在"
// @Router /api/admin/courses/{id}/lessons/{lessonId} [delete]
func (c *CatalogController) DeleteLesson(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("id"))
	lessonID := util.MustParseUint(ctx.Param("lessonId"))

	if err := c.CatalogService.DeleteLesson(ctx.Request.Context(), courseID, lessonID); err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"deleted": lessonID})
}

// swagger:model MaterialRequest
type MaterialRequest struct {
	Name       string `json:"name" binding:"required"`
	EmbedMedia string `json:"embedMedia"`
}

// CreateMaterial godoc
// @Summary 添加内嵌材料
// @Description 为课时添加内嵌媒体材料；文件材料走上传接口
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   lessonId path int true "课时ID"
// @Param   body body MaterialRequest true "材料信息"
// @Success 201 {object} util.Response{data=model.Material} "创建成功"
// @Failure 404 {object} util.Response "课时不存在"
// @Router /api/admin/courses/{id}/lessons/{lessonId}/materials [post]
func (c *CatalogController) CreateMaterial(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("id"))
	lessonID := util.MustParseUint(ctx.Param("lessonId"))

	var req MaterialRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	material := &model.Material{
		LessonID:   lessonID,
		Name:       req.Name,
		EmbedMedia: req.EmbedMedia,
	}
	if err := c.CatalogService.AddMaterial(courseID, material); err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, material)
}

// DeleteMaterial godoc
// @Summary 删除材料
// @Tags 课程管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   lessonId path int true "课时ID"
// @Param   materialId path int true "材料ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "材料不存在"
// @Router /api/admin/courses/{id}/lessons/{lessonId}/materials/{materialId} [delete]
func (c *CatalogController) DeleteMaterial(ctx *gin.Context) {
	lessonID := util.MustParseUint(ctx.Param("lessonId"))
	materialID := util.MustParseUint(ctx.Param("materialId"))

	if err := c.CatalogService.DeleteMaterial(lessonID, materialID); err != nil {
		if errors.Is(err, util.ErrMaterialNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"deleted": materialID})
}

// UploadMaterialFile godoc
// @Summary 上传材料文件
// @Tags 课程管理
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   lessonId path int true "课时ID"
// @Param   name formData string true "材料名称"
// @Param   file formData file true "材料文件"
// @Success 201 {object} util.Response{data=model.Material} "创建成功"
// @Failure 404 {object} util.Response "课时不存在"
// @Router /api/admin/courses/{id}/lessons/{lessonId}/materials/upload [post]
func (c *CatalogController) UploadMaterialFile(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("id"))
	lessonID := util.MustParseUint(ctx.Param("lessonId"))

	name := ctx.PostForm("name")
	if name == "" {
		util.BadRequest(ctx, "缺少材料名称")
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "缺少文件")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	filename := fmt.Sprintf("%d%s", time.Now().UnixNano(), filepath.Ext(fileHeader.Filename))
	material, err := c.CatalogService.UploadMaterialFile(ctx.Request.Context(), courseID, lessonID, name, filename, file, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, material)
}
