package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/kitchenledger/backend/internal/domain"
)

// LoadMatchConfig reads a versioned match configuration file. Sections the
// file leaves out keep their built-in values. An empty path yields the defaults.
func LoadMatchConfig(path string) (*domain.MatchConfig, error) {
	if path == "" {
		return domain.DefaultMatchConfig(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading match config %s: %w", path, err)
	}

	spec := domain.DefaultMatchConfigSpec()
	if v.IsSet("version") {
		spec.Version = v.GetString("version")
	}
	if v.IsSet("weights") {
		spec.Weights = domain.Weights{}
		if err := v.UnmarshalKey("weights", &spec.Weights); err != nil {
			return nil, fmt.Errorf("unable to decode weights: %w", err)
		}
	}
	if v.IsSet("thresholds") {
		spec.Thresholds = domain.Thresholds{}
		if err := v.UnmarshalKey("thresholds", &spec.Thresholds); err != nil {
			return nil, fmt.Errorf("unable to decode thresholds: %w", err)
		}
	}
	if v.IsSet("stopwords") {
		spec.Stopwords = v.GetStringSlice("stopwords")
	}
	if v.IsSet("brand_tokens") {
		spec.BrandTokens = v.GetStringSlice("brand_tokens")
	}
	if v.IsSet("unit_aliases") {
		spec.UnitAliases = v.GetStringMapString("unit_aliases")
	}
	if v.IsSet("size_to_grams") {
		grams := make(map[string]float64)
		if err := v.UnmarshalKey("size_to_grams", &grams); err != nil {
			return nil, fmt.Errorf("unable to decode size_to_grams: %w", err)
		}
		spec.SizeToGrams = grams
	}

	cfg, err := domain.NewMatchConfig(spec)
	if err != nil {
		return nil, fmt.Errorf("match config %s: %w", path, err)
	}
	return cfg, nil
}
