package app

import (
	"formar_portal/docs"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/config"
	"formar_portal/internal/middleware"
	"formar_portal/internal/model"
	"formar_portal/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, factory *apiclient.Factory, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	// 门户路由都需要会话；登录状态每次向上游确认
	portal := router.Group("/")
	portal.Use(
		middleware.SessionMiddleware(a.Sessions, factory, cfg.Session),
		middleware.ResolveAuth(a.services.auth),
	)

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(portal, c)

	authGroup := portal.Group("/")
	authGroup.Use(middleware.AuthMiddleware())
	{
		// 2. 所有登录用户
		a.registerSharedRoutes(authGroup, c)

		// 3. 按角色划分
		a.registerFormandoRoutes(authGroup, c)
		a.registerGestorRoutes(authGroup, c)
		a.registerFormadorRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(r *gin.RouterGroup, c *controllers) {
	r.GET("/", c.auth.Root)
	r.GET("/auth/status", c.auth.Status)
	r.POST("/login", c.auth.Login)
	r.POST("/logout", c.auth.Logout)
	r.POST("/register-formador", c.auth.RegisterFormador)
	r.POST("/reset-password", c.auth.RequestPasswordReset)
	r.GET("/layout", c.layout.Layout)
}

func (a *App) registerSharedRoutes(r *gin.RouterGroup, c *controllers) {
	// 外壳
	r.GET("/layout/search", c.layout.Suggest)
	r.POST("/layout/search", c.layout.SubmitSearch)
	r.GET("/ws/shell", c.layout.HandleWS)

	// 课程
	r.GET("/search", c.course.Search)
	r.GET("/cursos/:id", c.course.Detail)
	r.POST("/cursos/:id/inscrever", c.course.Enroll)
	r.GET("/cursos/:id/avaliacoes", c.course.Ratings)
	r.POST("/cursos/:id/avaliar", c.course.Rate)
	r.GET("/cursosInscritos/:id", c.course.Enrolled)
	r.POST("/cursos/rascunho", c.courseEdit.ApplyOp)
	r.GET("/areas", c.category.Areas)
	r.GET("/topicos", c.category.Topicos)

	// 测验
	r.GET("/quiz/curso/:id", c.quiz.List)
	r.GET("/quiz/rascunho", c.quiz.NewDraft)
	r.POST("/quiz/rascunho/correta", c.quiz.MarkCorrect)
	r.GET("/quiz/:quizId", c.quiz.Open)
	r.POST("/quiz/:quizId/resolver", c.quiz.Submit)

	// 论坛
	r.GET("/forum", c.forum.Posts)
	r.POST("/forum/posts", c.forum.CreatePost)
	r.POST("/forum/posts/:id/vote", c.forum.VotePost)
	r.GET("/forum/posts/:id/comments", c.forum.Comments)
	r.POST("/forum/posts/:id/comments", c.forum.AddComment)
	r.POST("/forum/comments/:id/vote", c.forum.VoteComment)

	// 通知
	r.GET("/notificacoes", c.notification.List)
	r.PUT("/notificacoes/ler-todas", c.notification.MarkAllRead)
	r.PUT("/notificacoes/:id/ler", c.notification.MarkRead)
	r.POST("/notificacoes/:id/abrir", c.notification.Open)
	r.POST("/notificacoes/remover", c.notification.RemoveMany)
	r.DELETE("/notificacoes/todas", c.notification.RemoveAll)
	r.DELETE("/notificacoes/lidas", c.notification.RemoveRead)
	r.DELETE("/notificacoes/:id", c.notification.Remove)

	// 个人资料
	r.GET("/perfil", c.profile.Get)
	r.POST("/perfil/reset-password", c.profile.ResetPassword)
}

func (a *App) registerFormandoRoutes(r *gin.RouterGroup, c *controllers) {
	formando := r.Group("/formando")
	formando.Use(middleware.RoleMiddleware(model.RoleFormando))
	{
		formando.GET("/dashboard", c.dashboard.Formando)
		formando.GET("/topico/:id/cursos", c.course.TopicCourses)
	}
}

func (a *App) registerGestorRoutes(r *gin.RouterGroup, c *controllers) {
	gestor := r.Group("/gestor")
	gestor.Use(middleware.RoleMiddleware(model.RoleGestor))
	{
		gestor.GET("/dashboard", c.dashboard.Gestor)

		gestor.GET("/categorias", c.category.List)
		gestor.POST("/categorias", c.category.Create)
		gestor.POST("/categorias/rascunho", c.category.ApplyOp)
		gestor.GET("/categorias/:id", c.category.Get)
		gestor.PUT("/categorias/:id", c.category.Save)
		gestor.DELETE("/categorias/:id", c.category.Delete)

		gestor.POST("/cursos", c.courseEdit.Create)
		gestor.GET("/cursos/:id", c.courseEdit.LoadGestor)
		gestor.PUT("/cursos/:id", c.courseEdit.SaveGestor)
		gestor.DELETE("/cursos/:id", c.courseEdit.Delete)
		gestor.POST("/cursos/:id/modulos", c.courseEdit.CreateModules)
		gestor.POST("/cursos/:id/quizzes", c.quiz.Create)
		gestor.POST("/aulas/:id/upload", c.courseEdit.UploadLessonFiles)
		gestor.GET("/formadores", c.courseEdit.Formadores)

		gestor.GET("/utilizadores", c.userAdmin.List)
		gestor.PUT("/utilizadores/:id", c.userAdmin.ChangeState)
		gestor.PUT("/pedidos-registo/:id/aceitar", c.userAdmin.Accept)
		gestor.PUT("/pedidos-registo/:id/rejeitar", c.userAdmin.Reject)
	}
}

func (a *App) registerFormadorRoutes(r *gin.RouterGroup, c *controllers) {
	formador := r.Group("/formador")
	formador.Use(middleware.RoleMiddleware(model.RoleFormador))
	{
		formador.GET("/dashboard", c.dashboard.Formador)
		formador.GET("/cursos/:id", c.courseEdit.LoadFormador)
		formador.PUT("/cursos/:id", c.courseEdit.SaveFormador)
		formador.POST("/cursos/:id/quizzes", c.quiz.Create)
	}
}
