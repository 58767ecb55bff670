package config

import (
	"fmt"
	"path/filepath"

	"github.com/aurisvision/monad-trading-bot-sub003/pkg/confkit"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/exchange"
)

// MustLoadExchange loads etc/exchange.yaml from the project root and panics on
// error. It isolates the exchange config so tests that only need providers do
// not have to assemble a full application config.
func MustLoadExchange() *exchange.Config {
	root := confkit.MustProjectRoot()
	path := filepath.Join(root, "etc", "exchange.yaml")
	cfg, err := exchange.LoadConfig(path)
	if err != nil {
		panic(fmt.Errorf("load exchange config %s: %w", path, err))
	}
	return cfg
}
