package main

import (
	"context"
	"log"
	"os"

	"github.com/daybookapp/daybook/internal/buildinfo"
	"github.com/daybookapp/daybook/internal/client/cli"
	"github.com/daybookapp/daybook/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
