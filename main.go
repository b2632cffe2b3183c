package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"sqlconsoleapi/bootstrap"
	"sqlconsoleapi/config"
	"sqlconsoleapi/controllers"
	_ "sqlconsoleapi/docs"
	"sqlconsoleapi/pkg/logger"
	"sqlconsoleapi/services/access"
	"sqlconsoleapi/services/audit"
	"sqlconsoleapi/services/connmgmt"
	"sqlconsoleapi/services/query"
	"sqlconsoleapi/services/riskpolicy"
	"sqlconsoleapi/services/roleadmin"
	"sqlconsoleapi/utils"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           sqlconsoleapi
// @version         1.0
// @description     SQL Console Authorization and Query Risk Policy API

// @BasePath  /api

func main() {
	// 1) Load config
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("LoadConfig error: %v", err)
	}

	// 2) Connect metadata DB (GORM)
	if err := config.ConnectDB(); err != nil {
		log.Fatalf("ConnectDB error: %v", err)
	}
	if config.DB == nil {
		log.Fatal("Database is nil after ConnectDB")
	}
	if err := config.MigrateDB(); err != nil {
		log.Fatalf("MigrateDB error: %v", err)
	}

	if err := bootstrap.SeedData(); err != nil {
		log.Fatalf("Seed data error: %v", err)
	}

	controllers.SetAccessService(access.NewAccessService())
	controllers.SetEvaluatorService(riskpolicy.NewEvaluatorService())
	controllers.SetRiskPolicyService(riskpolicy.NewAdminService())
	controllers.SetExecutionService(query.NewExecutionService())
	controllers.SetRoleService(roleadmin.NewRoleService())
	controllers.SetConnectionService(connmgmt.NewConnectionService())
	controllers.SetExecutionLogService(audit.NewLogService())

	// 3) Init structured logger with config
	logLevel := logger.ParseLogLevel(config.Cfg.LogLevel)
	logger.InitWithConfig(
		config.Cfg.LogFile,
		logLevel,
		config.Cfg.LogMaxSize,
		config.Cfg.LogMaxBackups,
		config.Cfg.LogMaxAge,
		config.Cfg.LogCompress,
	)
	logger.Infof("Starting SQL Console API with log level: %s", config.Cfg.LogLevel)

	// 4) Setup Gin
	router := gin.Default()
	router.Use(utils.LoggerMiddleware())

	v1 := router.Group("/api")
	v1.Use(utils.AuthMiddleware())
	{
		controllers.RegisterAccessRoutes(v1)
		controllers.RegisterQueryRoutes(v1)
		controllers.RegisterRiskPolicyRoutes(v1)
		controllers.RegisterRoleRoutes(v1)
		controllers.RegisterConnectionRoutes(v1)
		controllers.RegisterExecutionLogRoutes(v1)
	}

	// 5) Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 6) Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Infof("Received shutdown signal, draining audit recorder...")

		// Flush queued execution records before exiting
		audit.GetRecorder().Stop()

		logger.Infof("Application shutdown complete")
		os.Exit(0)
	}()

	// 7) Run
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}
	logger.Infof("Starting server at port %s", port)
	router.Run("0.0.0.0:" + port)
}
