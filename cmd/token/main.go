// Command token mints bearer tokens for the lobby API using JWT_SECRET.
//
//	go run ./cmd/token -subject display -permissions patients:read,media:read
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/marcus-crane/lobby/auth"
	"github.com/marcus-crane/lobby/config"
)

func main() {
	var subject, permissions string
	var ttl time.Duration
	flag.StringVar(&subject, "subject", "display", "who the token is for")
	flag.StringVar(&permissions, "permissions", "patients:read,media:read", "comma separated permissions to grant")
	flag.DurationVar(&ttl, "ttl", 0, "how long the token is valid for, 0 never expires")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.Lobby.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}

	token, err := auth.New(cfg.Lobby.JWTSecret).Issue(subject, config.SplitList(permissions), ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
