package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/studyroom/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	secret = configVar[string]{
		envKey:       "SERVER_SECRET",
		flagKey:      "secret",
		defaultValue: "",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 80,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	membersLimit = configVar[int]{
		envKey:       "SERVER_MEMBERS_LIMIT",
		flagKey:      "members-limit",
		defaultValue: 9,
	}
	chatHistoryLimit = configVar[int]{
		envKey:       "SERVER_CHAT_HISTORY_LIMIT",
		flagKey:      "chat-history-limit",
		defaultValue: 100,
	}
	roomEmptyTTL = configVar[int]{
		envKey:       "SERVER_ROOM_EMPTY_TTL",
		flagKey:      "room-empty-ttl",
		defaultValue: 60,
	}
	focusMin = configVar[int]{
		envKey:       "SERVER_FOCUS_MIN",
		flagKey:      "focus-min",
		defaultValue: 25,
	}
	shortBreakMin = configVar[int]{
		envKey:       "SERVER_SHORT_BREAK_MIN",
		flagKey:      "short-break-min",
		defaultValue: 5,
	}
	longBreakMin = configVar[int]{
		envKey:       "SERVER_LONG_BREAK_MIN",
		flagKey:      "long-break-min",
		defaultValue: 15,
	}
	cyclesBeforeLongBreak = configVar[int]{
		envKey:       "SERVER_CYCLES_BEFORE_LONG_BREAK",
		flagKey:      "cycles-before-long-break",
		defaultValue: 4,
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(secret.flagKey, secret.defaultValue, "Server secret")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(membersLimit.flagKey, membersLimit.defaultValue, "Maximum number of members in a room")
	pflag.Int(chatHistoryLimit.flagKey, chatHistoryLimit.defaultValue, "Number of chat messages replayed on join")
	pflag.Int(roomEmptyTTL.flagKey, roomEmptyTTL.defaultValue, "Seconds an empty room survives before deletion")
	pflag.Int(focusMin.flagKey, focusMin.defaultValue, "Focus phase duration in minutes")
	pflag.Int(shortBreakMin.flagKey, shortBreakMin.defaultValue, "Short break duration in minutes")
	pflag.Int(longBreakMin.flagKey, longBreakMin.defaultValue, "Long break duration in minutes")
	pflag.Int(cyclesBeforeLongBreak.flagKey, cyclesBeforeLongBreak.defaultValue, "Focus cycles before a long break")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(secret.flagKey, secret.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(membersLimit.flagKey, membersLimit.envKey)
	viper.BindEnv(chatHistoryLimit.flagKey, chatHistoryLimit.envKey)
	viper.BindEnv(roomEmptyTTL.flagKey, roomEmptyTTL.envKey)
	viper.BindEnv(focusMin.flagKey, focusMin.envKey)
	viper.BindEnv(shortBreakMin.flagKey, shortBreakMin.envKey)
	viper.BindEnv(longBreakMin.flagKey, longBreakMin.envKey)
	viper.BindEnv(cyclesBeforeLongBreak.flagKey, cyclesBeforeLongBreak.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)

	viper.SetDefault(secret.flagKey, secret.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(membersLimit.flagKey, membersLimit.defaultValue)
	viper.SetDefault(chatHistoryLimit.flagKey, chatHistoryLimit.defaultValue)
	viper.SetDefault(roomEmptyTTL.flagKey, roomEmptyTTL.defaultValue)
	viper.SetDefault(focusMin.flagKey, focusMin.defaultValue)
	viper.SetDefault(shortBreakMin.flagKey, shortBreakMin.defaultValue)
	viper.SetDefault(longBreakMin.flagKey, longBreakMin.defaultValue)
	viper.SetDefault(cyclesBeforeLongBreak.flagKey, cyclesBeforeLongBreak.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)

	config := &app.AppConfig{
		Secret:                viper.GetString(secret.flagKey),
		Host:                  viper.GetString(host.flagKey),
		Port:                  viper.GetInt(port.flagKey),
		LogLevel:              viper.GetString(logLevel.flagKey),
		MembersLimit:          viper.GetInt(membersLimit.flagKey),
		ChatHistoryLimit:      viper.GetInt(chatHistoryLimit.flagKey),
		RoomEmptyTTLSec:       viper.GetInt(roomEmptyTTL.flagKey),
		FocusMin:              viper.GetInt(focusMin.flagKey),
		ShortBreakMin:         viper.GetInt(shortBreakMin.flagKey),
		LongBreakMin:          viper.GetInt(longBreakMin.flagKey),
		CyclesBeforeLongBreak: viper.GetInt(cyclesBeforeLongBreak.flagKey),
		RedisPort:             viper.GetInt(redisPort.flagKey),
		RedisHost:             viper.GetString(redisHost.flagKey),
		RedisPassword:         viper.GetString(redisPassword.flagKey),
	}

	return config
}

func main() {
	cfg := loadAppConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	cfgJSON, _ := json.Marshal(cfg)
	fmt.Printf("starting with config: %s\n", cfgJSON)

	if err := app.Run(context.Background(), cfg); err != nil {
		log.Fatal(err)
	}
}
