package app

import (
	"mooc_backend/docs"
	"mooc_backend/internal/config"
	"mooc_backend/internal/middleware"
	"mooc_backend/internal/model"
	"mooc_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerTeacherRoutes(authGroup, c)
	}

	// 3. 管理员相关接口
	a.registerAdminRoutes(router, c, repos, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// 密码重置
		public.POST("/password-reset", c.auth.RequestPasswordReset)
		public.POST("/password-reset/confirm", c.auth.ConfirmPasswordReset)

		// 课程目录对游客开放，详情里只返回已发布课时
		public.GET("/courses", c.catalog.ListCourses)
		public.GET("/courses/:slug", middleware.TryAuthMiddleware(a.Config), c.catalog.GetCourse)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)
	rg.PUT("/user/profile", c.user.UpdateProfile)
	rg.PUT("/user/password", c.user.ChangePassword)
	rg.POST("/user/avatar/upload", c.user.UploadAvatar)

	// 报名
	rg.GET("/my/enrollments", c.enrollment.MyEnrollments)
	rg.POST("/courses/:slug/enroll", c.enrollment.Enroll)
	rg.POST("/courses/:slug/unenroll", c.enrollment.Cancel)

	// 课程内容，控制器内校验报名状态
	rg.GET("/courses/:slug/lessons", c.catalog.ListLessons)
	rg.GET("/courses/:slug/lessons/:id", c.catalog.GetLesson)

	// 公告
	rg.GET("/courses/:slug/announcements", c.announcement.ListAnnouncements)
	rg.GET("/courses/:slug/announcements/:id", c.announcement.GetAnnouncement)
	rg.POST("/courses/:slug/announcements/:id/comments", c.announcement.AddComment)
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	teacher := rg.Group("/")
	teacher.Use(middleware.RoleMiddleware(model.Teacher, model.Admin))
	{
		// 发布公告会向在读学员群发邮件
		teacher.POST("/courses/:slug/announcements", c.announcement.PostAnnouncement)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		// 1. 课程和报名管理：允许管理员和老师访问
		staff := admin.Group("/")
		staff.Use(middleware.RoleMiddleware(model.Admin, model.Teacher))
		{
			staff.POST("/courses", c.catalog.CreateCourse)
			staff.PUT("/courses/:id", c.catalog.UpdateCourse)
			staff.DELETE("/courses/:id", c.catalog.DeleteCourse)
			staff.POST("/courses/:id/image", c.catalog.UploadCourseImage)

			staff.POST("/courses/:id/lessons", c.catalog.CreateLesson)
			staff.PUT("/courses/:id/lessons/:lessonId", c.catalog.UpdateLesson)
			staff.DELETE("/courses/:id/lessons/:lessonId", c.catalog.DeleteLesson)
			staff.POST("/courses/:id/lessons/:lessonId/materials", c.catalog.CreateMaterial)
			staff.POST("/courses/:id/lessons/:lessonId/materials/upload", c.catalog.UploadMaterialFile)
			staff.DELETE("/courses/:id/lessons/:lessonId/materials/:materialId", c.catalog.DeleteMaterial)

			staff.POST("/enrollments/:id/activate", c.enrollment.Activate)
			staff.POST("/enrollments/:id/decline", c.enrollment.Decline)
		}

		// 2. 用户管理：仅限管理员访问
		adminOnly := admin.Group("/")
		adminOnly.Use(middleware.RoleMiddleware(model.Admin))
		{
			adminOnly.GET("/users", c.user.GetUsers)
			adminOnly.POST("/users/:id/disable", c.user.SetUserDisabled)
		}
	}
}
