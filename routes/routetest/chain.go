// Package routetest provides in-memory chains, bridges and signers for route tests.
package routetest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	"github.com/pkg/errors"
)

// Chain is an in-memory types.ChainContext. All fields may be set directly
// before use; the setters are safe while the chain is polled.
type Chain struct {
	mu sync.RWMutex

	ID      types.Chain
	Net     types.Network
	Tokens  map[types.TokenID]types.TokenMeta
	Bridge  *TokenBridge
	Relayer *Relayer

	statuses     map[string]types.TxStatus
	statusErrs   []error
	attestations map[string]*types.Attestation
	queries      int
}

// NewChain creates a chain knowing its native token with 18 decimals.
func NewChain(id types.Chain) *Chain {
	c := &Chain{
		ID:           id,
		Net:          types.Mainnet,
		Tokens:       map[types.TokenID]types.TokenMeta{},
		statuses:     map[string]types.TxStatus{},
		attestations: map[string]*types.Attestation{},
	}
	c.AddToken(types.NativeToken(id), 18, "NATIVE")
	return c
}

// AddToken registers token metadata.
func (c *Chain) AddToken(token types.TokenID, decimals uint8, symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Tokens[token] = types.TokenMeta{Token: token, Decimals: decimals, Symbol: symbol}
}

// SetStatus sets the status reported for a transaction hash.
func (c *Chain) SetStatus(hash string, status types.TxStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[hash] = status
}

// FailStatusQueries makes the next status queries return errs, one per query.
func (c *Chain) FailStatusQueries(errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusErrs = append(c.statusErrs, errs...)
}

// SetAttestation makes FetchAttestation return att for the transaction hash.
func (c *Chain) SetAttestation(hash string, att *types.Attestation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attestations[hash] = att
}

// StatusQueries returns the number of TransactionStatus calls.
func (c *Chain) StatusQueries() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.queries
}

func (c *Chain) Chain() types.Chain { return c.ID }

func (c *Chain) Network() types.Network { return c.Net }

func (c *Chain) TokenMetadata(ctx context.Context, token types.TokenID) (*types.TokenMeta, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	meta, ok := c.Tokens[token]
	if !ok {
		return nil, errors.Wrapf(commonerrors.ErrTokenNotRegistered, "token %s", token)
	}
	return &meta, nil
}

func (c *Chain) TransactionStatus(ctx context.Context, hash string) (types.TxStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries++
	if len(c.statusErrs) > 0 {
		err := c.statusErrs[0]
		c.statusErrs = c.statusErrs[1:]
		return types.TxStatusNotFound, err
	}
	return c.statuses[hash], nil
}

func (c *Chain) FetchAttestation(ctx context.Context, tx types.TransactionID) (*types.Attestation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	att, ok := c.attestations[tx.Hash]
	if !ok {
		return nil, commonerrors.ErrAttestationNotFound
	}
	return att, nil
}

func (c *Chain) TokenBridge(ctx context.Context) (types.TokenBridge, error) {
	if c.Bridge == nil {
		return nil, commonerrors.ErrNotImplemented
	}
	return c.Bridge, nil
}

func (c *Chain) AutomaticTokenBridge(ctx context.Context) (types.AutomaticTokenBridge, error) {
	if c.Relayer == nil {
		return nil, commonerrors.ErrNotImplemented
	}
	return c.Relayer, nil
}

func (c *Chain) SupportsTokenBridge() bool { return c.Bridge != nil }

func (c *Chain) SupportsAutomaticTokenBridge() bool { return c.Relayer != nil }

// Provider is an in-memory types.ChainProvider.
type Provider map[types.Chain]types.ChainContext

// NewProvider registers chains by id.
func NewProvider(chains ...*Chain) Provider {
	p := Provider{}
	for _, c := range chains {
		p[c.ID] = c
	}
	return p
}

func (p Provider) GetChain(chain types.Chain) (types.ChainContext, error) {
	c, ok := p[chain]
	if !ok {
		return nil, errors.Wrapf(commonerrors.ErrChainNotFound, "chain %s", chain)
	}
	return c, nil
}

// TokenBridge is an in-memory types.TokenBridge. Originals maps wrapped tokens
// of this chain to their original assets; Foreign maps original assets to
// their representation on this chain. BuildErr fails Transfer and Redeem.
type TokenBridge struct {
	mu sync.Mutex

	Chain     types.Chain
	Tokens    []types.TokenID
	Wrapped   types.TokenID
	Originals map[types.TokenID]types.TokenID
	Foreign   map[types.TokenID]types.TokenID
	Err       error
	BuildErr  error

	redeemed  map[types.AttestationID]bool
	transfers int
}

// NewTokenBridge creates a bridge on chain whose wrapped native token is wrapped.
func NewTokenBridge(chain types.Chain, wrapped types.TokenID, tokens ...types.TokenID) *TokenBridge {
	return &TokenBridge{
		Chain:     chain,
		Tokens:    append([]types.TokenID{wrapped}, tokens...),
		Wrapped:   wrapped,
		Originals: map[types.TokenID]types.TokenID{},
		Foreign:   map[types.TokenID]types.TokenID{},
		redeemed:  map[types.AttestationID]bool{},
	}
}

// MarkRedeemed makes IsTransferCompleted report true for the attestation.
func (b *TokenBridge) MarkRedeemed(id types.AttestationID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.redeemed[id] = true
}

// Transfers returns the number of Transfer calls.
func (b *TokenBridge) Transfers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transfers
}

func (b *TokenBridge) SupportedTokens(ctx context.Context) ([]types.TokenID, error) {
	if b.Err != nil {
		return nil, b.Err
	}
	return append([]types.TokenID(nil), b.Tokens...), nil
}

func (b *TokenBridge) OriginalAsset(ctx context.Context, token types.TokenID) (types.TokenID, error) {
	if b.Err != nil {
		return types.TokenID{}, b.Err
	}
	if original, ok := b.Originals[token]; ok {
		return original, nil
	}
	return token, nil
}

func (b *TokenBridge) ForeignAsset(ctx context.Context, original types.TokenID) (types.TokenID, error) {
	if b.Err != nil {
		return types.TokenID{}, b.Err
	}
	if original.Chain == b.Chain {
		return original, nil
	}
	foreign, ok := b.Foreign[original]
	if !ok {
		return types.TokenID{}, errors.Wrapf(commonerrors.ErrTokenNotRegistered, "%s on %s", original, b.Chain)
	}
	return foreign, nil
}

func (b *TokenBridge) WrappedNative(ctx context.Context) (types.TokenID, error) {
	if b.Err != nil {
		return types.TokenID{}, b.Err
	}
	return b.Wrapped, nil
}

// Transfer returns an approve transaction for non-native tokens followed by the transfer.
func (b *TokenBridge) Transfer(ctx context.Context, sender, recipient types.ChainAddress, token types.TokenID, amount *big.Int) ([]types.UnsignedTransaction, error) {
	b.mu.Lock()
	b.transfers++
	b.mu.Unlock()

	if b.BuildErr != nil {
		return nil, b.BuildErr
	}

	var txs []types.UnsignedTransaction
	if !token.IsNative() {
		txs = append(txs, b.tx(fmt.Sprintf("approve %s %s", amount, token)))
	}
	return append(txs, b.tx(fmt.Sprintf("transfer %s %s to %s", amount, token, recipient))), nil
}

func (b *TokenBridge) Redeem(ctx context.Context, sender types.ChainAddress, attestation *types.Attestation) ([]types.UnsignedTransaction, error) {
	if b.BuildErr != nil {
		return nil, b.BuildErr
	}
	return []types.UnsignedTransaction{b.tx(fmt.Sprintf("redeem %s", attestation.ID))}, nil
}

func (b *TokenBridge) IsTransferCompleted(ctx context.Context, attestation *types.Attestation) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.redeemed[attestation.ID], nil
}

func (b *TokenBridge) tx(description string) types.UnsignedTransaction {
	return types.UnsignedTransaction{
		Payload:     description,
		Network:     types.Mainnet,
		Chain:       b.Chain,
		Description: description,
	}
}

// Relayer is an in-memory types.AutomaticTokenBridge. BuildErr fails Transfer.
type Relayer struct {
	mu sync.Mutex

	Chain      types.Chain
	Tokens     []types.TokenID
	Fee        *big.Int
	FeeErr     error
	BuildErr   error
	MaxDropoff *big.Int

	redeems   map[types.AttestationID]string
	nativeGas *big.Int
}

// NewRelayer creates a relayer on chain charging fee base units per transfer.
func NewRelayer(chain types.Chain, fee int64, tokens ...types.TokenID) *Relayer {
	return &Relayer{
		Chain:      chain,
		Tokens:     tokens,
		Fee:        big.NewInt(fee),
		MaxDropoff: big.NewInt(0),
		redeems:    map[types.AttestationID]string{},
	}
}

// SetRedeemed records the relayer's redeem transaction for an attestation.
func (r *Relayer) SetRedeemed(id types.AttestationID, hash string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redeems[id] = hash
}

// LastNativeGas returns the native gas amount of the last Transfer call.
func (r *Relayer) LastNativeGas() *big.Int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nativeGas
}

func (r *Relayer) SupportedTokens(ctx context.Context) ([]types.TokenID, error) {
	return append([]types.TokenID(nil), r.Tokens...), nil
}

func (r *Relayer) RelayerFee(ctx context.Context, destination types.Chain, token types.TokenID) (*big.Int, error) {
	if r.FeeErr != nil {
		return nil, r.FeeErr
	}
	return new(big.Int).Set(r.Fee), nil
}

func (r *Relayer) MaxNativeGasDropoff(ctx context.Context, destination types.Chain, token types.TokenID) (*big.Int, error) {
	return new(big.Int).Set(r.MaxDropoff), nil
}

func (r *Relayer) Transfer(ctx context.Context, sender, recipient types.ChainAddress, token types.TokenID, amount, nativeGas *big.Int) ([]types.UnsignedTransaction, error) {
	r.mu.Lock()
	r.nativeGas = new(big.Int).Set(nativeGas)
	r.mu.Unlock()

	if r.BuildErr != nil {
		return nil, r.BuildErr
	}

	description := fmt.Sprintf("relayed transfer %s %s to %s", amount, token, recipient)
	return []types.UnsignedTransaction{{
		Payload:     description,
		Network:     types.Mainnet,
		Chain:       r.Chain,
		Description: description,
	}}, nil
}

func (r *Relayer) RedeemTransaction(ctx context.Context, attestation *types.Attestation) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.redeems[attestation.ID], nil
}
