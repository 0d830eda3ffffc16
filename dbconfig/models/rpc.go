package models

import (
	"time"

	"github.com/ClipFinance/route-lib/common/types"
)

// RPC is a row of the rpcs table. Lower priority values are preferred.
type RPC struct {
	ID        int64
	Chain     types.Chain
	URL       string
	Provider  string
	Priority  int
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
