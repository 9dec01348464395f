package main

import (
	"fmt"
	"time"
)

type Config struct {
	Host                string        `env:"HOST,default=localhost" validate:"required"`
	Port                int           `env:"PORT,default=8080" validate:"min=1,max=65535"`
	LogLevel            string        `env:"LOG_LEVEL,default=INFO" validate:"required"`
	BadgerFilepath      string        `env:"BADGER_FILEPATH,required=true" validate:"required"`
	CommandBufferSize   int           `env:"COMMAND_BUFFER_SIZE,default=1024" validate:"min=1"`
	OutputBusCapacity   int           `env:"OUTPUT_BUS_CAPACITY,default=65536" validate:"min=1"`
	MessagePageSize     int           `env:"MESSAGE_PAGE_SIZE,default=50" validate:"min=1"`
	RoomsPageSize       int           `env:"ROOMS_PAGE_SIZE,default=10" validate:"min=1"`
	RestartInterval     time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	QueueMetricInterval time.Duration `env:"QUEUE_METRIC_INTERVAL,default=30s" validate:"gt=0"`
	ShutdownTimeout     time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s" validate:"gt=0"`
	UserNameValidation  bool          `env:"USER_NAME_VALIDATION,default=false"`
	WSMaxMessageSize    int64         `env:"WS_MAX_MESSAGE_SIZE,default=4096" validate:"min=1"`
	WSPingInterval      time.Duration `env:"WS_PING_INTERVAL,default=30s" validate:"gt=0"`
	CensoredWordsDir    string        `env:"CENSORED_WORDS_DIR"`
	CharReplacement     string        `env:"CHARACTER_REPLACEMENT,default=*"`
	DebugInspect        bool          `env:"DEBUG_INSPECT,default=false"`
}

func characterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("CHARACTER_REPLACEMENT must be a single character, got %q", str)
	}
	return r[0], nil
}
