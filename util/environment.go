package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var environmentLogger = log.With().Str("logger_name", "util::environment").Logger()

const (
	PersistMemory = "memory"
	PersistRedis  = "redis"
)

type engineEnvironment struct {
	PersistMethod string
	RedisHost     string
	RedisPort     string
	RedisPW       string
	RedisDB       string
	NatsURL       string
	PostgresHost  string
	PostgresPort  string
	PostgresDB    string
	PostgresUser  string
	PostgresPW    string
	LogLevel      string
}

// Env is a helper object for accessing environment variables.
var Env = &engineEnvironment{
	PersistMethod: "PERSIST_METHOD",
	RedisHost:     "REDIS_HOST",
	RedisPort:     "REDIS_PORT",
	RedisPW:       "REDIS_PW",
	RedisDB:       "REDIS_DB",
	NatsURL:       "NATS_URL",
	PostgresHost:  "POSTGRES_HOST",
	PostgresPort:  "POSTGRES_PORT",
	PostgresDB:    "POSTGRES_DB",
	PostgresUser:  "POSTGRES_USER",
	PostgresPW:    "POSTGRES_PASSWORD",
	LogLevel:      "LOG_LEVEL",
}

func (e *engineEnvironment) GetPersistMethod() string {
	method := strings.ToLower(os.Getenv(e.PersistMethod))
	if method == "" {
		return PersistMemory
	}
	if method != PersistMemory && method != PersistRedis {
		msg := fmt.Sprintf("Invalid %s [%s]", e.PersistMethod, method)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return method
}

func (e *engineEnvironment) GetRedisHost() string {
	host := os.Getenv(e.RedisHost)
	if host == "" {
		msg := fmt.Sprintf("%s is not defined", e.RedisHost)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return host
}

func (e *engineEnvironment) GetRedisPort() int {
	portStr := os.Getenv(e.RedisPort)
	if portStr == "" {
		return 6379
	}
	portNum, err := strconv.Atoi(portStr)
	if err != nil {
		msg := fmt.Sprintf("Invalid Redis port %s", portStr)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return portNum
}

func (e *engineEnvironment) GetRedisPW() string {
	return os.Getenv(e.RedisPW)
}

func (e *engineEnvironment) GetRedisDB() int {
	dbStr := os.Getenv(e.RedisDB)
	if dbStr == "" {
		return 0
	}
	dbNum, err := strconv.Atoi(dbStr)
	if err != nil {
		msg := fmt.Sprintf("Invalid Redis db %s", dbStr)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return dbNum
}

// GetRedisAddr returns host:port of the redis server.
func (e *engineEnvironment) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", e.GetRedisHost(), e.GetRedisPort())
}

// GetNatsURL returns an empty string when NATS is not configured.
func (e *engineEnvironment) GetNatsURL() string {
	return os.Getenv(e.NatsURL)
}

func (e *engineEnvironment) GetPostgresHost() string {
	return os.Getenv(e.PostgresHost)
}

func (e *engineEnvironment) GetPostgresPort() int {
	portStr := os.Getenv(e.PostgresPort)
	if portStr == "" {
		return 5432
	}
	portNum, err := strconv.Atoi(portStr)
	if err != nil {
		msg := fmt.Sprintf("Invalid Postgres port %s", portStr)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return portNum
}

func (e *engineEnvironment) GetPostgresUser() string {
	v := os.Getenv(e.PostgresUser)
	if v == "" {
		msg := fmt.Sprintf("%s is not defined", e.PostgresUser)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return v
}

func (e *engineEnvironment) GetPostgresPW() string {
	return os.Getenv(e.PostgresPW)
}

func (e *engineEnvironment) GetPostgresDB() string {
	v := os.Getenv(e.PostgresDB)
	if v == "" {
		return "ofc"
	}
	return v
}

// GetPostgresConnStr builds a lib/pq connection string. Only call it when
// GetPostgresHost is not empty.
func (e *engineEnvironment) GetPostgresConnStr() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		e.GetPostgresHost(), e.GetPostgresPort(), e.GetPostgresUser(), e.GetPostgresPW(), e.GetPostgresDB())
}

func (e *engineEnvironment) GetZeroLogLogLevel() zerolog.Level {
	v := strings.ToLower(os.Getenv(e.LogLevel))
	if v == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(v)
	if err != nil {
		environmentLogger.Warn().Msgf("Invalid %s [%s]. Using info level.", e.LogLevel, v)
		return zerolog.InfoLevel
	}
	return level
}
