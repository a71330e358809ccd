package util

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// LoadEnv loads .env.<env> first, then .env as the shared base. Missing files
// are not an error; real environment variables always win.
func LoadEnv(env string) error {
	var firstErr error
	for _, name := range []string{fmt.Sprintf(".env.%s", env), ".env"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GetEnv returns the variable or "".
func GetEnv(key string) string {
	return os.Getenv(key)
}

// GetEnvDefault returns the variable or def when unset.
func GetEnvDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// GetIntEnv returns the variable as int64, 0 when unset or unparsable.
func GetIntEnv(key string) int64 {
	return cast.ToInt64(os.Getenv(key))
}

// GetFloatEnv returns the variable as float64, 0 when unset or unparsable.
func GetFloatEnv(key string) float64 {
	return cast.ToFloat64(os.Getenv(key))
}

// GetBoolEnv returns the variable as bool, false when unset or unparsable.
func GetBoolEnv(key string) bool {
	return cast.ToBool(os.Getenv(key))
}
