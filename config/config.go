package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// maxFeeBps caps the secondary-market fee at 100%.
const maxFeeBps = 10_000

type Config struct {
	RPCAddress      string           `toml:"RPCAddress"`
	DataDir         string           `toml:"DataDir"`
	NetworkName     string           `toml:"NetworkName"`
	AdminAddress    string           `toml:"AdminAddress"`
	TreasuryAddress string           `toml:"TreasuryAddress"`
	FeeBps          uint32           `toml:"FeeBps"`
	GenesisAlloc    []GenesisAccount `toml:"GenesisAlloc,omitempty"`
}

// GenesisAccount seeds a payment balance at first start. The balance is a
// decimal string so arbitrarily large values survive the TOML round trip.
type GenesisAccount struct {
	Address string `toml:"Address"`
	Balance string `toml:"Balance"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "deedshare-local"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./deedshare-data"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the fields a node cannot start without.
func (c *Config) Validate() error {
	if _, err := ParseAddress(c.AdminAddress); err != nil {
		return fmt.Errorf("config: AdminAddress: %w", err)
	}
	if _, err := ParseAddress(c.TreasuryAddress); err != nil {
		return fmt.Errorf("config: TreasuryAddress: %w", err)
	}
	if c.FeeBps > maxFeeBps {
		return fmt.Errorf("config: FeeBps %d exceeds %d", c.FeeBps, maxFeeBps)
	}
	for i, alloc := range c.GenesisAlloc {
		if _, err := ParseAddress(alloc.Address); err != nil {
			return fmt.Errorf("config: GenesisAlloc[%d]: %w", i, err)
		}
		if _, err := ParseBalance(alloc.Balance); err != nil {
			return fmt.Errorf("config: GenesisAlloc[%d]: %w", i, err)
		}
	}
	return nil
}

// Admin returns the parsed administrator address.
func (c *Config) Admin() ([20]byte, error) {
	return ParseAddress(c.AdminAddress)
}

// Treasury returns the parsed treasury address.
func (c *Config) Treasury() ([20]byte, error) {
	return ParseAddress(c.TreasuryAddress)
}

// ParseAddress decodes a 20-byte hex address with optional 0x prefix.
func ParseAddress(raw string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if trimmed == "" {
		return addr, fmt.Errorf("address required")
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("invalid address %q: %w", raw, err)
	}
	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("invalid address %q: want %d bytes, got %d", raw, len(addr), len(decoded))
	}
	copy(addr[:], decoded)
	return addr, nil
}

// ParseBalance decodes a non-negative decimal balance string.
func ParseBalance(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("balance required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid balance %q", raw)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("negative balance %q", raw)
	}
	return value, nil
}

// createDefault creates and saves a default configuration file. The default
// admin and treasury addresses are placeholders the operator must replace.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:      ":8080",
		DataDir:         "./deedshare-data",
		NetworkName:     "deedshare-local",
		AdminAddress:    "0x" + strings.Repeat("00", 19) + "01",
		TreasuryAddress: "0x" + strings.Repeat("00", 19) + "02",
		FeeBps:          100,
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
