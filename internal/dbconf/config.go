package dbconf

import (
	"os"
	"path/filepath"
)

// Environment variables consulted by ODC.
const (
	EnvDBURL      = "DATACUBE_DB_URL"
	EnvConfigPath = "DATACUBE_CONFIG_PATH"
)

// DefaultConfigFile is the file WriteDefaultConfig creates.
const DefaultConfigFile = "datacube.conf"

const defaultConfig = `[default]
db_database: datacube

# A blank host will use a local socket. Specify a hostname (such as localhost) to use TCP.
db_hostname:
`

// ConfigPaths returns the well-known ODC configuration file locations, in
// lookup order.
func ConfigPaths(home string) []string {
	paths := []string{"/etc/datacube.conf"}
	if home != "" {
		paths = append(paths, filepath.Join(home, ".datacube.conf"))
	}
	return append(paths, DefaultConfigFile)
}

// ConfigPresent reports whether ODC will find a database configuration:
// DATACUBE_DB_URL is set, DATACUBE_CONFIG_PATH names an existing file, or a
// config file exists at one of ConfigPaths.
func ConfigPresent(lookupEnv func(string) (string, bool), exists func(string) bool, home string) bool {
	if _, ok := lookupEnv(EnvDBURL); ok {
		return true
	}
	if p, ok := lookupEnv(EnvConfigPath); ok && exists(p) {
		return true
	}
	for _, p := range ConfigPaths(home) {
		if exists(p) {
			return true
		}
	}
	return false
}

// DetectConfig runs ConfigPresent against the process environment and
// filesystem.
func DetectConfig() bool {
	home, _ := os.UserHomeDir()
	return ConfigPresent(os.LookupEnv, fileExists, home)
}

// WriteDefaultConfig writes a local-socket datacube.conf into dir and
// returns its path.
func WriteDefaultConfig(dir string) (string, error) {
	path := filepath.Join(dir, DefaultConfigFile)
	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
