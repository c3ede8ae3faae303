// Package env reads process settings, optionally seeded from a .env file.
package env

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Load reads the given .env files (or ./.env when none are named) into the
// process environment. Variables that are already set win. A missing file
// is not an error.
func Load(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug("no env file, using process environment", "file", f)
				continue
			}
			return err
		}
	}
	return nil
}

// String returns the value of key, or def when key is unset.
func String(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
