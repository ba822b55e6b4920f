package main

import (
	"log"

	"github.com/daybookapp/daybook/internal/server"
	"github.com/daybookapp/daybook/internal/server/config"
)

func main() {

	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run()

}
