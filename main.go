package main

import (
	"os"

	"go-huddle/core/logger"
	"go-huddle/core/server"

	_ "go-huddle/docs" // Swagger docs
)

//go:generate swag init

// @title Huddle API
// @version 1.0
// @description Group availability scheduling: events, availability, proposals, locking, invitations and calendar busy times.

// @host localhost:7070
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Example: "Bearer {token}"

func main() {
	if err := server.Run(); err != nil {
		logger.Error("Main:RunServer:Error", "error", err)
		os.Exit(1)
	}
}
