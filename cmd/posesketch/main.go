// Command posesketch runs the face emoji or hand theremin sketch and serves it
// over HTTP.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli"

	"github.com/ayusman/posesketch/internal/event"
)

var version = "development"

func main() {
	// a .env file is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		event.Log.Warnf("load .env: %v", err)
	}

	app := cli.NewApp()
	app.Name = "posesketch"
	app.Usage = "Webcam sketches driven by face and hand landmarks"
	app.Version = version
	app.Flags = globalFlags
	app.Commands = []cli.Command{
		FaceCommand,
		HandCommand,
	}

	if err := app.Run(os.Args); err != nil {
		event.Log.Error(err)
		os.Exit(1)
	}
}
