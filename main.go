// @title Formar Portal API
// @version 1.0
// @description Formar 培训平台的门户服务，代理上游 LMS REST API 并维护浏览器会话。
// @termsOfService http://swagger.io/terms/

// @contact.name API支持
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /

package main

import (
	"flag"
	"formar_portal/internal/app"
	"formar_portal/internal/config"
	"formar_portal/pkg/logger"
	"log"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "configs", "配置文件所在目录")
	checkOnly := flag.Bool("check-config", false, "只校验配置，完成后退出")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *checkOnly {
		log.Printf("配置校验通过 (upstream %s, session store %s)", cfg.API.BaseURL, cfg.Session.Store)
		return
	}

	application := app.NewApp(cfg)
	application.ConfigDir = *configPath
	defer logger.Log.Sync()

	application.Run()
}
