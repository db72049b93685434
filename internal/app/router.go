package app

import (
	"exam_prep_backend/docs"
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/middleware"
	"exam_prep_backend/internal/model"

	"exam_prep_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	// 公共路由(无需登录)
	router.POST("/api/register", c.auth.Register)
	router.POST("/api/login", c.auth.Login)

	// 试卷列表可选认证：游客和学生只看到已发布的，教师看到全部
	router.GET("/api/tests", middleware.TryAuthMiddleware(cfg), c.test.ListTests)

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/me", c.auth.Me)

		// 学生/通用 授权接口
		a.registerStudentRoutes(authGroup, c)

		// 教师相关接口
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerStudentRoutes(group *gin.RouterGroup, c *controllers) {
	// 作答会话
	sessions := group.Group("/sessions")
	{
		sessions.POST("", c.session.Start)
		sessions.GET("/:id", c.session.Get)
		sessions.GET("/:id/snapshot", c.session.Snapshot)
		sessions.POST("/:id/answer", c.session.Answer)
		sessions.DELETE("/:id/answer/:qid", c.session.ClearAnswer)
		sessions.POST("/:id/flag/:qid", c.session.ToggleFlag)
		sessions.POST("/:id/navigate", c.session.Navigate)
		sessions.POST("/:id/advance", c.session.Advance)
		sessions.POST("/:id/submit", c.session.Submit)
		sessions.DELETE("/:id", c.session.Abandon)
	}

	// 成绩与建议
	group.GET("/results", c.result.History)
	group.GET("/results/:id", c.result.Detail)
	group.GET("/results/:id/tips", c.guidance.Tips)
	group.GET("/guidance/trend", c.guidance.Trend)
}

func (a *App) registerTeacherRoutes(group *gin.RouterGroup, c *controllers) {
	teacher := group.Group("")
	teacher.Use(middleware.RoleMiddleware(model.Teacher))
	{
		teacher.POST("/tests", c.test.CreateTest)
		teacher.GET("/tests/:id", c.test.GetTest)
		teacher.PUT("/tests/:id", c.test.UpdateTest)
		teacher.DELETE("/tests/:id", c.test.DeleteTest)
		teacher.POST("/tests/:id/publish", c.test.PublishTest)
		teacher.POST("/tests/:id/unpublish", c.test.UnpublishTest)

		teacher.POST("/tests/:id/questions", c.test.AddQuestion)
		teacher.PUT("/tests/:id/questions/:qid", c.test.UpdateQuestion)
		teacher.DELETE("/tests/:id/questions/:qid", c.test.DeleteQuestion)
		teacher.POST("/tests/:id/questions/import", c.test.ImportQuestions)

		teacher.GET("/tests/:id/results", c.result.ListByTest)
		teacher.POST("/tests/:id/results/export", c.result.Export)
	}
}
