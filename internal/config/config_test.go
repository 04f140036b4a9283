package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	c := Load()
	c.APIKey = "key"
	c.OpenAIAPIKey = "key"
	return c
}

func TestValidate_Defaults(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidate_MissingKeys(t *testing.T) {
	c := validConfig()
	c.APIKey = ""
	if err := c.Validate(); err == nil {
		t.Error("expected error for missing service API key")
	}

	c = validConfig()
	c.OpenAIAPIKey = ""
	if err := c.Validate(); err == nil {
		t.Error("expected error for missing OpenAI API key")
	}
}

func TestValidate_NegativeWeight(t *testing.T) {
	c := validConfig()
	c.KeywordWeight = -0.1
	if err := c.Validate(); err == nil {
		t.Error("expected error for negative weight")
	}
}

func TestValidate_WeightSumOverOne(t *testing.T) {
	c := validConfig()
	c.VectorWeight = 0.8
	c.KeywordWeight = 0.3
	c.TFIDFWeight = 0.15
	err := c.Validate()
	if err == nil {
		t.Fatal("expected error for weights summing past 1")
	}
	if !strings.Contains(err.Error(), "sum") {
		t.Errorf("error %q should mention the sum", err)
	}
}

func TestValidate_DefaultWeightSumExact(t *testing.T) {
	// The documented 0.60/0.25/0.15 defaults sit right at the bound and
	// must pass despite float rounding.
	c := validConfig()
	c.VectorWeight = 0.60
	c.KeywordWeight = 0.25
	c.TFIDFWeight = 0.15
	if err := c.Validate(); err != nil {
		t.Fatalf("boundary weights should validate: %v", err)
	}
}
