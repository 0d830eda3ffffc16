package solana

import (
	"context"

	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	bin "github.com/gagliardetto/binary"
	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
)

const (
	nativeDecimals      = 9
	defaultNativeSymbol = "SOL"
)

// TokenMetadata returns decimals and symbol of a mint. Decimals are read from
// the mint account; symbols only come from the configuration.
func (s *solana) TokenMetadata(ctx context.Context, tokenID types.TokenID) (*types.TokenMeta, error) {
	if tokenID.Chain != s.config.Chain {
		return nil, errors.Wrapf(commonerrors.ErrWrongChain, "%s queried on %s", tokenID, s.config.Chain)
	}

	s.metaMutex.RLock()
	cached, ok := s.meta[tokenID]
	s.metaMutex.RUnlock()
	if ok {
		copied := *cached
		return &copied, nil
	}

	meta, err := s.fetchTokenMetadata(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	s.metaMutex.Lock()
	s.meta[tokenID] = meta
	s.metaMutex.Unlock()

	copied := *meta
	return &copied, nil
}

func (s *solana) fetchTokenMetadata(ctx context.Context, tokenID types.TokenID) (*types.TokenMeta, error) {
	if tokenID.IsNative() {
		symbol := s.config.NativeSymbol
		if symbol == "" {
			symbol = defaultNativeSymbol
		}
		return &types.TokenMeta{Token: tokenID, Decimals: nativeDecimals, Symbol: symbol}, nil
	}

	mintKey, err := sol.PublicKeyFromBase58(tokenID.Address)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse mint")
	}

	mint, err := s.getMint(ctx, mintKey)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch mint %s", tokenID.Address)
	}

	return &types.TokenMeta{
		Token:    tokenID,
		Decimals: mint.Decimals,
		Symbol:   s.config.TokenSymbols[tokenID.Address],
	}, nil
}

// getMint fetches and decodes an SPL mint account.
func (s *solana) getMint(ctx context.Context, mintKey sol.PublicKey) (*token.Mint, error) {
	client, err := s.backend(ctx)
	if err != nil {
		return nil, err
	}

	account, err := client.GetAccountInfo(ctx, mintKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}
	if account == nil || account.Value == nil || account.Value.Data == nil {
		return nil, errors.New("mint account not found")
	}
	if !account.Value.Owner.Equals(sol.TokenProgramID) {
		return nil, errors.Errorf("account is owned by %s, not the token program", account.Value.Owner)
	}

	var mint token.Mint
	if err := mint.UnmarshalWithDecoder(bin.NewBinDecoder(account.Value.Data.GetBinary())); err != nil {
		return nil, errors.Wrap(err, "failed to decode mint")
	}
	if !mint.IsInitialized {
		return nil, errors.New("mint is not initialized")
	}

	return &mint, nil
}

// TransactionStatus reports the status of a transaction signature. Only the
// finalized commitment level counts as final.
func (s *solana) TransactionStatus(ctx context.Context, hash string) (types.TxStatus, error) {
	sig, err := sol.SignatureFromBase58(hash)
	if err != nil {
		return types.TxStatusNotFound, errors.Wrap(err, "failed to parse signature")
	}

	client, err := s.backend(ctx)
	if err != nil {
		return types.TxStatusNotFound, err
	}

	statuses, err := client.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return types.TxStatusNotFound, errors.Wrap(err, "failed to get signature status")
	}
	if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
		return types.TxStatusNotFound, nil
	}

	status := statuses.Value[0]
	switch {
	case status.Err != nil:
		return types.TxStatusFailed, nil
	case status.ConfirmationStatus == rpc.ConfirmationStatusFinalized:
		return types.TxStatusFinalized, nil
	default:
		return types.TxStatusPending, nil
	}
}
