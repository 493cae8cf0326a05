package entities

import (
	"time"

	"github.com/google/uuid"
)

// Network represents the Bitcoin network an address belongs to
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
	NetworkRegtest Network = "regtest"
)

// ScriptType represents the script type encoded by a Bitcoin address
type ScriptType string

const (
	ScriptTypeP2PKH   ScriptType = "p2pkh"
	ScriptTypeP2SH    ScriptType = "p2sh"
	ScriptTypeP2WPKH  ScriptType = "p2wpkh"
	ScriptTypeP2TR    ScriptType = "p2tr"
	ScriptTypeUnknown ScriptType = "unknown"
)

// BitcoinAddress is the result of classifying a raw address string.
// It is a derived value computed per validation call and never persisted.
type BitcoinAddress struct {
	Raw            string     `json:"raw"`
	Valid          bool       `json:"valid"`
	Network        Network    `json:"network,omitempty"`
	ScriptType     ScriptType `json:"scriptType"`
	IsTaproot      bool       `json:"isTaproot"`
	IsSegwit       bool       `json:"isSegwit"`
	Recommendation string     `json:"recommendation,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// ClassifyAddressInput represents input for the address classification endpoint
type ClassifyAddressInput struct {
	Address        string `json:"address" binding:"required"`
	RequireNetwork string `json:"requireNetwork,omitempty"`
}

// SavedAddress represents a per-owner destination address bookmark.
// Convenience cache only; not part of settlement correctness.
type SavedAddress struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	OwnerID    uuid.UUID  `json:"ownerId"`
	Address    string     `json:"address"`
	Label      string     `json:"label"`
	Type       ScriptType `json:"type"`
	Network    Network    `json:"network"`
	IsPrimary  bool       `json:"isPrimary" gorm:"default:false"`
	UseCount   int        `json:"useCount"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	DeletedAt  *time.Time `json:"-"`
}

// SaveAddressInput represents input for bookmarking an address
type SaveAddressInput struct {
	Address   string `json:"address" binding:"required"`
	Label     string `json:"label" binding:"required,min=1,max=100"`
	IsPrimary bool   `json:"isPrimary"`
}
