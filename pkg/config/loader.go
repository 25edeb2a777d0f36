package config

import (
	"os"

	"github.com/joho/godotenv"
)

// DotEnvFile is read from the working directory when present.
const DotEnvFile = ".env"

// LoadDotEnv loads .env from the working directory into the process
// environment. A missing file is not an error.
func LoadDotEnv() error {
	return loadDotEnv(DotEnvFile)
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}
