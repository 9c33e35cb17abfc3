package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CreditPack is a named grant preset used by the post-payment credit grant
// path and the configure CLI.
type CreditPack struct {
	Name        string  `yaml:"name"`
	Credits     int     `yaml:"credits"`
	ExpiryHours int     `yaml:"expiry_hours"`
	PriceUSD    float64 `yaml:"price_usd"`
}

type creditPacksFile struct {
	Packs []CreditPack `yaml:"packs"`
}

// LoadCreditPacks reads grant presets from a YAML file keyed by pack name.
// A missing file is not an error: grants then require explicit amounts.
func LoadCreditPacks(path string) (map[string]CreditPack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]CreditPack{}, nil
		}
		return nil, fmt.Errorf("read credit packs: %w", err)
	}

	var file creditPacksFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse credit packs: %w", err)
	}

	packs := make(map[string]CreditPack, len(file.Packs))
	for _, p := range file.Packs {
		if p.Name == "" {
			return nil, fmt.Errorf("credit pack with empty name")
		}
		if p.Credits <= 0 || p.ExpiryHours <= 0 {
			return nil, fmt.Errorf("credit pack %q needs positive credits and expiry_hours", p.Name)
		}
		packs[p.Name] = p
	}
	return packs, nil
}
