// @title 考试备考平台 API
// @version 1.0
// @description 限时作答、自动判分与学习建议的后端服务器。
// @termsOfService http://swagger.io/terms/

// @contact.name API支持
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"exam_prep_backend/internal/app"
	"exam_prep_backend/internal/config"
	"exam_prep_backend/pkg/configwatcher"
	"exam_prep_backend/pkg/logger"
	"flag"
	"log"
	"path/filepath"
)

func main() {
	configPath := flag.String("config", "configs", "配置文件目录")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 热更新策略阈值：自适应与建议引擎的阈值改配置即生效，不用重启。
	// 新快照整体换入，不在共享 Config 上就地改字段。
	go configwatcher.WatchConfig(filepath.Join(*configPath, "config.yaml"), cfg, func(newCfg interface{}) {
		if next, ok := newCfg.(*config.Config); ok {
			application.Policies.Store(config.Policies{
				Adaptive: next.Adaptive,
				Guidance: next.Guidance,
				Session:  next.Session,
			})
			logger.Log.Info("Config reloaded")
		}
	})

	application.Run()
}
