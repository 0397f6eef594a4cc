package main

import (
	"github.com/codeduel-vn/codeduel/internal/app/server"
	"github.com/codeduel-vn/codeduel/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	logging.Fatal("Duel server exited: ", zap.Error(
		server.NewServer().Start(),
	))
}
