package main

import (
	"context"

	"github.com/davidleitw/piazza/cmd/piazza/commands"
	"github.com/sirupsen/logrus"
)

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logrus.SetReportCaller(true)
}

func main() {
	commands.ExecuteContext(context.Background())
}
