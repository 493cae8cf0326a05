package usecases

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"rune-settle.backend/internal/domain/entities"
)

// Recommendation strings surfaced to callers per script type.
const (
	RecommendTaproot = "optimal for rune transfer"
	RecommendSegwit  = "supported; taproot preferred"
	RecommendLegacy  = "warning: may not reliably support rune transfer"
)

// classifierNetworks is the decode attempt order. Testnet precedes regtest so
// base58 addresses sharing version bytes between the two report testnet.
var classifierNetworks = []struct {
	network entities.Network
	params  *chaincfg.Params
}{
	{entities.NetworkMainnet, &chaincfg.MainNetParams},
	{entities.NetworkTestnet, &chaincfg.TestNet3Params},
	{entities.NetworkRegtest, &chaincfg.RegressionNetParams},
}

// AddressClassifier validates Bitcoin address strings and determines their
// network and script type. Pure; safe for concurrent callers.
type AddressClassifier struct{}

// NewAddressClassifier creates a new address classifier
func NewAddressClassifier() *AddressClassifier {
	return &AddressClassifier{}
}

// Classify decodes raw as a Base58Check or Bech32/Bech32m address. A non-empty
// requireNetwork rejects addresses whose decoded network differs. All failures
// are reported on the returned value, never via panic or error return.
func (c *AddressClassifier) Classify(raw string, requireNetwork entities.Network) entities.BitcoinAddress {
	result := entities.BitcoinAddress{Raw: raw, ScriptType: entities.ScriptTypeUnknown}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		result.Error = "address is empty"
		return result
	}

	var decoded btcutil.Address
	var network entities.Network
	var firstErr error
	for _, candidate := range classifierNetworks {
		addr, err := btcutil.DecodeAddress(trimmed, candidate.params)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !addr.IsForNet(candidate.params) {
			continue
		}
		decoded = addr
		network = candidate.network
		break
	}

	if decoded == nil {
		result.Error = describeDecodeError(firstErr)
		return result
	}

	result.Network = network
	switch decoded.(type) {
	case *btcutil.AddressPubKeyHash:
		result.ScriptType = entities.ScriptTypeP2PKH
		result.Recommendation = RecommendLegacy
	case *btcutil.AddressScriptHash:
		result.ScriptType = entities.ScriptTypeP2SH
		result.Recommendation = RecommendLegacy
	case *btcutil.AddressWitnessPubKeyHash:
		result.ScriptType = entities.ScriptTypeP2WPKH
		result.IsSegwit = true
		result.Recommendation = RecommendSegwit
	case *btcutil.AddressWitnessScriptHash:
		// Valid segwit v0, but not a script type runes are sent to directly.
		result.ScriptType = entities.ScriptTypeUnknown
		result.IsSegwit = true
		result.Recommendation = RecommendSegwit
	case *btcutil.AddressTaproot:
		result.ScriptType = entities.ScriptTypeP2TR
		result.IsSegwit = true
		result.IsTaproot = true
		result.Recommendation = RecommendTaproot
	default:
		result.Error = "unsupported address type"
		return result
	}

	if requireNetwork != "" && network != requireNetwork {
		result.Error = fmt.Sprintf("address is for %s, %s required", network, requireNetwork)
		return result
	}

	result.Valid = true
	return result
}

func describeDecodeError(err error) string {
	if err == nil {
		return "unknown address format"
	}
	if err == btcutil.ErrChecksumMismatch {
		return "checksum mismatch"
	}
	return fmt.Sprintf("invalid address: %v", err)
}
