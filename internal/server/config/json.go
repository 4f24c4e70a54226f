package config

import (
	"encoding/json"
	"os"

	"github.com/dropnote/dropnote/internal/flagx"
	"github.com/dropnote/dropnote/internal/timex"
)

// JsonConfig is the intermediate DTO used only for reading JSON config
// files. Interval fields use timex.Duration, which accepts both strings
// such as "100m" and integer nanoseconds. After unmarshalling, values are
// copied into the runtime Config.
type JsonConfig struct {
	EndpointAddr          string         `json:"endpoint_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	RedisAddr             string         `json:"redis_addr"`
	AppBaseURL            string         `json:"app_base_url"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	ExtendLimit           timex.Duration `json:"extend_limit"`
	MaxMessageHorizon     timex.Duration `json:"max_message_horizon"`
	KDFSalt               string         `json:"kdf_salt"`
	GifAPIKey             string         `json:"gif_api_key"`
	GifBaseEndpoint       string         `json:"gif_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; when neither is set, no JSON file is loaded. An unreadable or
// invalid file panics: a requested config that cannot be honored should not
// start the server.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.RedisAddr = c.RedisAddr
	config.AppBaseURL = c.AppBaseURL
	config.SecretKey = c.SecretKey
	config.TokenValidityDuration = c.TokenValidityDuration.Duration
	config.ExtendLimit = c.ExtendLimit.Duration
	config.MaxMessageHorizon = c.MaxMessageHorizon.Duration
	config.KDFSalt = c.KDFSalt
	config.GifAPIKey = c.GifAPIKey
	config.GifBaseEndpoint = c.GifBaseEndpoint
}
