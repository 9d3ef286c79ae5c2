// 手动验证上游登录流程的脚本
//
// 用配置中的上游地址登录一次，然后调用 /auth/check 确认会话可用。
// 适合在切换 api.base_url 或 api.auth_mode 之后手动执行。
//
// 用法: PORTAL_SMOKE_EMAIL=... PORTAL_SMOKE_PASSWORD=... go run scripts/smoke_login.go

package main

import (
	"context"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/config"
	"formar_portal/internal/model"
	"formar_portal/internal/service"
	"formar_portal/pkg/logger"
	"formar_portal/pkg/session"
	"log"
	"os"
	"time"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置: %v", err)
	}

	logger.InitLogger(cfg)

	email := os.Getenv("PORTAL_SMOKE_EMAIL")
	password := os.Getenv("PORTAL_SMOKE_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("需要设置 PORTAL_SMOKE_EMAIL 与 PORTAL_SMOKE_PASSWORD")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sess := session.New(time.Hour)
	client := apiclient.NewFactory(cfg.API).ForSession(sess.Credentials)
	auth := service.NewAuthService(service.NewNavigator())

	log.Printf("登录 %s (mode=%s)...", cfg.API.BaseURL, cfg.API.AuthMode)
	result, err := auth.Login(ctx, client, sess, model.LoginRequest{Email: email, Password: password})
	if err != nil {
		log.Fatalf("登录失败: %v", err)
	}
	log.Printf("登录成功: role=%s redirect=%s", result.Auth.Role, result.Redirect)

	sess.SetCredentials(client.Credentials())
	check, err := auth.Check(ctx, client, sess)
	if err != nil {
		log.Fatalf("/auth/check 失败: %v", err)
	}
	log.Printf("会话有效: role=%s", check.Role)
	log.Println("完成！")
}
