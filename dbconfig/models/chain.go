package models

import (
	"time"

	"github.com/ClipFinance/route-lib/common/types"
)

// Chain is a row of the chains table.
type Chain struct {
	ID                int64
	Chain             types.Chain
	Name              string
	Type              types.ChainType
	Network           types.Network
	ChainID           uint64
	TxType            uint64
	WaitNBlocks       uint64
	NativeSymbol      string
	RequestsPerSecond float64
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
