package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"imagemeta-server-go/internal/bootstrap"
)

const banner = `
  _                                      _
 (_)_ __ ___   __ _  __ _  ___ _ __ ___ | |_ __ _
 | | '_ ' _ \ / _' |/ _' |/ _ \ '_ ' _ \| __/ _' |
 | | | | | | | (_| | (_| |  __/ | | | | | || (_| |
 |_|_| |_| |_|\__,_|\__, |\___|_| |_| |_|\__\__,_|
                    |___/
`

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	fmt.Print(banner)

	if err := bootstrap.Run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "server exited with error: %v\n", err)
		os.Exit(1)
	}
}
