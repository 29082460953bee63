package main

import (
	"github.com/failsight/backend/internal/server"
	"github.com/failsight/backend/internal/util"
	"github.com/failsight/backend/pkg/logger"
	"github.com/failsight/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
