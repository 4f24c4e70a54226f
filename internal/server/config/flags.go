package config

import (
	"flag"
	"os"
	"time"

	"github.com/dropnote/dropnote/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3005")
//	-d string   PostgreSQL DSN
//	-r string   redis address
//	-u string   public app base URL
//	-s string   JWT HMAC secret key
//	-t int      session token validity, minutes
//	-x int      session extend limit, minutes
//	-m int      max message horizon, hours
//	-k string   KDF salt for secret-token key derivation
//	-g string   GIF provider API key
//	-e string   GIF provider base endpoint
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers and converted to time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-r", "-u", "-s", "-t", "-x", "-m", "-k", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.AppBaseURL, "u", config.AppBaseURL, "public base URL for share links")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "session token validity (in minutes)")
	extendLimit := fs.Int("x", int(config.ExtendLimit.Minutes()), "session extend limit (in minutes)")
	maxHorizon := fs.Int("m", int(config.MaxMessageHorizon.Hours()), "max message horizon (in hours)")

	fs.StringVar(&config.KDFSalt, "k", config.KDFSalt, "KDF salt")
	fs.StringVar(&config.GifAPIKey, "g", config.GifAPIKey, "GIF provider API key")
	fs.StringVar(&config.GifBaseEndpoint, "e", config.GifBaseEndpoint, "GIF provider base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
	config.ExtendLimit = time.Duration(*extendLimit) * time.Minute
	config.MaxMessageHorizon = time.Duration(*maxHorizon) * time.Hour
}
