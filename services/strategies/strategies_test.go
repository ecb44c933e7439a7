package strategies

import (
	"errors"
	"testing"
)

func TestValidateDefaults(t *testing.T) {
	cfg, err := Validate("MovingAverageCrossover", nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ShortWindow != 20 || cfg.LongWindow != 50 || cfg.SignalThreshold != 0.01 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.WarmupWindow() != 50 {
		t.Fatalf("warmup should be long_window, got %d", cfg.WarmupWindow())
	}
}

func TestValidateRejectsBadWindows(t *testing.T) {
	cases := []struct {
		name   string
		params Params
	}{
		{"MovingAverageCrossover", Params{"short_window": 1}},
		{"MovingAverageCrossover", Params{"short_window": 50, "long_window": 20}},
		{"MovingAverageCrossover", Params{"short_window": 20, "long_window": 20}},
		{"BollingerBands", Params{"window": 1}},
		{"BollingerBands", Params{"num_std": -1}},
		{"MomentumStrategy", Params{"threshold": 0}},
		{"MeanReversion", Params{"window": 4}},
		{"MeanReversion", Params{"z_threshold": 0}},
	}
	for _, tc := range cases {
		_, err := Validate(tc.name, tc.params)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s %v: expected ValidationError, got %v", tc.name, tc.params, err)
		}
	}
}

func TestValidateUnknownStrategy(t *testing.T) {
	_, err := Validate("Arbitrage", nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCatalogCoversAllStrategies(t *testing.T) {
	catalog := Catalog()
	if len(catalog) != 4 {
		t.Fatalf("expected 4 strategies, got %d", len(catalog))
	}
	for _, s := range catalog {
		params := make(Params, len(s.Parameters))
		for name, p := range s.Parameters {
			params[name] = p.Default
		}
		if _, err := Validate(string(s.ID), params); err != nil {
			t.Fatalf("catalog defaults for %s should validate: %v", s.ID, err)
		}
	}
}
