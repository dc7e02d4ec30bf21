package app

import (
	"github.com/botmarket/server/internal/infra/config"
)

// LoadConfig loads application configuration from path, or from the
// default locations when path is empty.
func LoadConfig(path string) (*config.Config, error) {
	return config.LoadFile(path)
}
