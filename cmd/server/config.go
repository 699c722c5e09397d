package main

import "time"

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	LogLevel             string        `env:"LOG_LEVEL,default=info"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	TokenSecret          string        `env:"TOKEN_SECRET,required=true"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=1440h"`
	AuthTimeout          time.Duration `env:"AUTH_TIMEOUT,default=150s"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	PageSize             int           `env:"PAGE_SIZE,default=10"`
	MonitorInterval      time.Duration `env:"MONITOR_INTERVAL,default=30s"`

	MinUsernameLength    int `env:"MIN_USERNAME_LENGTH,default=3"`
	MaxUsernameLength    int `env:"MAX_USERNAME_LENGTH,default=24"`
	MinPasswordLength    int `env:"MIN_PASSWORD_LENGTH,default=8"`
	MaxPasswordLength    int `env:"MAX_PASSWORD_LENGTH,default=72"`
	MinHandleLength      int `env:"MIN_HANDLE_LENGTH,default=1"`
	MaxHandleLength      int `env:"MAX_HANDLE_LENGTH,default=32"`
	MinChannelNameLength int `env:"MIN_CHANNEL_NAME_LENGTH,default=1"`
	MaxChannelNameLength int `env:"MAX_CHANNEL_NAME_LENGTH,default=64"`
	MaxDescriptionLength int `env:"MAX_DESCRIPTION_LENGTH,default=512"`
}
