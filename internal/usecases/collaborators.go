package usecases

import (
	"context"

	"rune-settle.backend/internal/domain/entities"
)

// UnsignedTxDescriptor describes the transaction an external signing service
// should build and sign. One output per settlement; batched windows produce a
// single descriptor with multiple outputs.
type UnsignedTxDescriptor struct {
	Outputs         []TxOutput `json:"outputs"`
	FeeRateSatPerVb float64    `json:"feeRateSatPerVb"`
	RuneKey         string     `json:"runeKey"`
}

// TxOutput is a single rune transfer output of an unsigned transaction.
type TxOutput struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

// Signer is the external signing service contract. Errors are terminal; the
// orchestrator never retries a failed signature.
type Signer interface {
	Sign(ctx context.Context, tx *UnsignedTxDescriptor) ([]byte, error)
}

// Broadcaster is the external broadcast service contract. Implementations
// classify failures via domainerrors.BroadcastError so transient node errors
// can be retried while economic rejections fail immediately.
type Broadcaster interface {
	Broadcast(ctx context.Context, signedTx []byte) (string, error)
}

// ChainQuery is the external chain-query service contract. A transaction
// absent from both mempool and chain yields domainerrors.ErrTxNotFound.
type ChainQuery interface {
	GetConfirmations(ctx context.Context, txid string) (int32, error)
}

// PriceOracle supplies the BTC/USD rate used for fee presentation.
type PriceOracle interface {
	BtcUsdRate(ctx context.Context) (float64, error)
}

// FeeTierOracle supplies current network fee tiers with a freshness timestamp.
type FeeTierOracle interface {
	CurrentTiers(ctx context.Context) (entities.FeeTiers, error)
}
