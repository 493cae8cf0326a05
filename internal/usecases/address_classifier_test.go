package usecases_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"rune-settle.backend/internal/domain/entities"
	"rune-settle.backend/internal/usecases"
)

func TestClassify_Mainnet(t *testing.T) {
	classifier := usecases.NewAddressClassifier()

	tests := []struct {
		name       string
		address    string
		scriptType entities.ScriptType
		isSegwit   bool
		isTaproot  bool
	}{
		{
			name:       "p2pkh legacy",
			address:    "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
			scriptType: entities.ScriptTypeP2PKH,
		},
		{
			name:       "p2sh",
			address:    "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy",
			scriptType: entities.ScriptTypeP2SH,
		},
		{
			name:       "p2wpkh segwit v0",
			address:    "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
			scriptType: entities.ScriptTypeP2WPKH,
			isSegwit:   true,
		},
		{
			name:       "p2tr taproot",
			address:    "bc1p0xlxvlhemja6c4dqv22uapctqupfhlxm9h8z3k2e72q4k9hcz7vqzk5jj0",
			scriptType: entities.ScriptTypeP2TR,
			isSegwit:   true,
			isTaproot:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifier.Classify(tt.address, "")
			assert.True(t, result.Valid, result.Error)
			assert.Equal(t, entities.NetworkMainnet, result.Network)
			assert.Equal(t, tt.scriptType, result.ScriptType)
			assert.Equal(t, tt.isSegwit, result.IsSegwit)
			assert.Equal(t, tt.isTaproot, result.IsTaproot)
		})
	}
}

func TestClassify_Recommendations(t *testing.T) {
	classifier := usecases.NewAddressClassifier()

	taproot := classifier.Classify("bc1p0xlxvlhemja6c4dqv22uapctqupfhlxm9h8z3k2e72q4k9hcz7vqzk5jj0", "")
	assert.Equal(t, usecases.RecommendTaproot, taproot.Recommendation)

	segwit := classifier.Classify("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", "")
	assert.Equal(t, usecases.RecommendSegwit, segwit.Recommendation)

	legacy := classifier.Classify("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", "")
	assert.Equal(t, usecases.RecommendLegacy, legacy.Recommendation)
}

func TestClassify_Testnet(t *testing.T) {
	classifier := usecases.NewAddressClassifier()

	result := classifier.Classify("tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx", "")
	assert.True(t, result.Valid, result.Error)
	assert.Equal(t, entities.NetworkTestnet, result.Network)
	assert.Equal(t, entities.ScriptTypeP2WPKH, result.ScriptType)

	legacy := classifier.Classify("mipcBbFg9gMiCh81Kj8tqqdgoZub1ZJRfn", "")
	assert.True(t, legacy.Valid, legacy.Error)
	assert.Equal(t, entities.NetworkTestnet, legacy.Network)
	assert.Equal(t, entities.ScriptTypeP2PKH, legacy.ScriptType)
}

func TestClassify_Regtest(t *testing.T) {
	classifier := usecases.NewAddressClassifier()

	result := classifier.Classify("bcrt1qw508d6qejxtdg4y5r3zarvary0c5xw7kygt080", "")
	assert.True(t, result.Valid, result.Error)
	assert.Equal(t, entities.NetworkRegtest, result.Network)
	assert.Equal(t, entities.ScriptTypeP2WPKH, result.ScriptType)
}

func TestClassify_RequireNetwork(t *testing.T) {
	classifier := usecases.NewAddressClassifier()

	// Testnet address rejected when mainnet is required.
	result := classifier.Classify("tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx", entities.NetworkMainnet)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Error, "testnet")
	assert.Contains(t, result.Error, "mainnet")

	// Same address accepted when testnet is required.
	result = classifier.Classify("tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx", entities.NetworkTestnet)
	assert.True(t, result.Valid)
}

func TestClassify_Invalid(t *testing.T) {
	classifier := usecases.NewAddressClassifier()

	tests := []struct {
		name    string
		address string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"garbage", "not-an-address"},
		{"base58 checksum mutation", "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNb"},
		{"bech32 checksum mutation", "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t5"},
		{"truncated bech32", "bc1qw508d6qejxtdg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifier.Classify(tt.address, "")
			assert.False(t, result.Valid)
			assert.NotEmpty(t, result.Error)
		})
	}
}

func TestClassify_NeverPanics(t *testing.T) {
	classifier := usecases.NewAddressClassifier()
	inputs := []string{"", "bc1", "1", "3", "tb1", "bc1p", "\x00\x01\x02", "BC1QW508D6QEJXTDG4Y5R3ZARVARY0C5XW7KV8F3T4"}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			classifier.Classify(in, "")
		})
	}
}
