package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnvOrDefaultAsString returns the trimmed env value or def when unset/blank.
func GetEnvOrDefaultAsString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

// GetEnvOrDefaultAsInt returns the env value parsed as int, or def.
func GetEnvOrDefaultAsInt(key string, def int) int {
	v := GetEnvOrDefaultAsString(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// GetEnvOrDefaultAsInt64 returns the env value parsed as int64, or def.
func GetEnvOrDefaultAsInt64(key string, def int64) int64 {
	v := GetEnvOrDefaultAsString(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

// GetEnvOrDefaultAsBool accepts strconv.ParseBool spellings.
func GetEnvOrDefaultAsBool(key string, def bool) bool {
	v := GetEnvOrDefaultAsString(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// GetEnvOrDefaultAsDuration accepts Go duration strings ("90s", "15m").
func GetEnvOrDefaultAsDuration(key string, def time.Duration) time.Duration {
	v := GetEnvOrDefaultAsString(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// GetEnvOrDefaultAsFloat returns the env value parsed as float64, or def.
func GetEnvOrDefaultAsFloat(key string, def float64) float64 {
	v := GetEnvOrDefaultAsString(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
