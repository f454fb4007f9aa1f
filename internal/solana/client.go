// Package solana reads holder, supply, metadata and wallet data from a Solana
// JSON-RPC node.
package solana

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/liamashdown/bigfishalert/internal/config"
	"github.com/liamashdown/bigfishalert/internal/metrics"
	"github.com/liamashdown/bigfishalert/internal/scoring"
)

// SPL token account layout offsets
const (
	tokenAccountLen    = 165
	tokenAmountOffset  = 64
	tokenAccountMinLen = tokenAmountOffset + 8
)

// ErrInvalidAddress is returned for strings that are not base58 public keys
var ErrInvalidAddress = errors.New("invalid Solana address")

// RPC is the subset of the JSON-RPC client the provider uses
type RPC interface {
	GetTokenLargestAccounts(ctx context.Context, mint sol.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenLargestAccountsResult, error)
	GetTokenSupply(ctx context.Context, mint sol.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenSupplyResult, error)
	GetAccountInfo(ctx context.Context, account sol.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetTokenAccountsByOwner(ctx context.Context, owner sol.PublicKey, conf *rpc.GetTokenAccountsConfig, opts *rpc.GetTokenAccountsOpts) (*rpc.GetTokenAccountsResult, error)
}

// Client is the on-chain data provider
type Client struct {
	rpc RPC
	log *logrus.Logger
}

// Supply is a mint's total supply
type Supply struct {
	UIAmount float64 `json:"uiAmount"`
	Decimals uint8   `json:"decimals"`
}

// Metadata is the token's on-chain name and symbol. Both are empty when the
// mint has no Metaplex metadata account.
type Metadata struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// WalletToken is a non-zero SPL token balance held by a wallet
type WalletToken struct {
	Mint     string  `json:"mint"`
	Amount   uint64  `json:"amount"`
	Decimals uint8   `json:"decimals"`
	UIAmount float64 `json:"uiAmount"`
}

// NewClient creates a provider backed by a rate limited JSON-RPC client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	burst := int(cfg.SolanaRPS)
	if burst < 1 {
		burst = 1
	}
	rpcClient := rpc.NewWithCustomRPCClient(rpc.NewWithLimiter(
		cfg.SolanaRPCURL,
		rate.Limit(cfg.SolanaRPS),
		burst,
	))
	return NewWithRPC(rpcClient, log)
}

// NewWithRPC wraps an existing RPC client
func NewWithRPC(r RPC, log *logrus.Logger) *Client {
	return &Client{rpc: r, log: log}
}

// ValidateAddress checks that s is a base58 encoded 32 byte public key
func ValidateAddress(s string) error {
	if _, err := sol.PublicKeyFromBase58(s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, s)
	}
	return nil
}

// TokenSupply returns the mint's total supply
func (c *Client) TokenSupply(ctx context.Context, mint string) (*Supply, error) {
	pk, err := parseKey(mint)
	if err != nil {
		return nil, err
	}

	var out *rpc.GetTokenSupplyResult
	err = c.observe("getTokenSupply", func() error {
		out, err = c.rpc.GetTokenSupply(ctx, pk, rpc.CommitmentConfirmed)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get token supply: %w", err)
	}
	if out == nil || out.Value == nil {
		return nil, fmt.Errorf("get token supply: empty result")
	}

	ui, err := uiAmount(out.Value.Amount, out.Value.Decimals)
	if err != nil {
		return nil, err
	}
	return &Supply{UIAmount: ui, Decimals: out.Value.Decimals}, nil
}

// TopHolders returns the largest token accounts of the mint, biggest first.
// The RPC node caps this at 20 accounts.
func (c *Client) TopHolders(ctx context.Context, mint string, limit int) ([]scoring.HolderBalance, error) {
	pk, err := parseKey(mint)
	if err != nil {
		return nil, err
	}

	var out *rpc.GetTokenLargestAccountsResult
	err = c.observe("getTokenLargestAccounts", func() error {
		out, err = c.rpc.GetTokenLargestAccounts(ctx, pk, rpc.CommitmentConfirmed)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get largest accounts: %w", err)
	}
	if out == nil {
		return nil, nil
	}

	balances := make([]scoring.HolderBalance, 0, len(out.Value))
	for _, acct := range out.Value {
		if acct == nil {
			continue
		}
		raw, err := strconv.ParseUint(acct.Amount, 10, 64)
		if err != nil {
			c.log.WithFields(logrus.Fields{
				"mint":    mint,
				"account": acct.Address.String(),
				"amount":  acct.Amount,
			}).Warn("Skipping holder with unparseable amount")
			continue
		}
		ui, err := uiAmount(acct.Amount, acct.Decimals)
		if err != nil {
			c.log.WithFields(logrus.Fields{
				"mint":    mint,
				"account": acct.Address.String(),
			}).WithError(err).Debug("Skipping holder with unconvertible amount")
			continue
		}
		balances = append(balances, scoring.HolderBalance{
			Address:  acct.Address.String(),
			Balance:  raw,
			UIAmount: ui,
		})
	}

	sort.SliceStable(balances, func(i, j int) bool {
		return balances[i].UIAmount > balances[j].UIAmount
	})
	if limit > 0 && len(balances) > limit {
		balances = balances[:limit]
	}
	return balances, nil
}

// TokenMetadata reads the Metaplex metadata account of the mint
func (c *Client) TokenMetadata(ctx context.Context, mint string) (*Metadata, error) {
	pk, err := parseKey(mint)
	if err != nil {
		return nil, err
	}

	addr, _, err := sol.FindTokenMetadataAddress(pk)
	if err != nil {
		return nil, fmt.Errorf("derive metadata address: %w", err)
	}

	var out *rpc.GetAccountInfoResult
	err = c.observe("getAccountInfo", func() error {
		out, err = c.rpc.GetAccountInfo(ctx, addr)
		return err
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return &Metadata{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get metadata account: %w", err)
	}
	if out == nil || out.Value == nil || out.Value.Data == nil {
		return &Metadata{}, nil
	}

	name, symbol, err := ParseMetadata(out.Value.Data.GetBinary())
	if err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return &Metadata{Name: name, Symbol: symbol}, nil
}

// WalletTokens lists the wallet's non-zero SPL token balances, largest raw
// amount first
func (c *Client) WalletTokens(ctx context.Context, owner string) ([]WalletToken, error) {
	pk, err := parseKey(owner)
	if err != nil {
		return nil, err
	}

	var out *rpc.GetTokenAccountsResult
	err = c.observe("getTokenAccountsByOwner", func() error {
		out, err = c.rpc.GetTokenAccountsByOwner(ctx, pk,
			&rpc.GetTokenAccountsConfig{ProgramId: sol.TokenProgramID.ToPointer()},
			&rpc.GetTokenAccountsOpts{Encoding: sol.EncodingBase64},
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get token accounts: %w", err)
	}
	if out == nil {
		return nil, nil
	}

	// one wallet can hold several accounts for the same mint
	amounts := make(map[string]uint64)
	var order []string
	for _, ta := range out.Value {
		if ta == nil || ta.Account.Data == nil {
			continue
		}
		mint, amount, err := DecodeTokenAccount(ta.Account.Data.GetBinary())
		if err != nil || amount == 0 {
			continue
		}
		if _, ok := amounts[mint]; !ok {
			order = append(order, mint)
		}
		amounts[mint] += amount
	}

	tokens := make([]WalletToken, 0, len(order))
	for _, mint := range order {
		wt := WalletToken{Mint: mint, Amount: amounts[mint]}
		supply, err := c.TokenSupply(ctx, mint)
		if err != nil {
			c.log.WithFields(logrus.Fields{
				"owner": owner,
				"mint":  mint,
			}).WithError(err).Warn("Could not resolve token decimals")
		} else {
			wt.Decimals = supply.Decimals
		}
		ui, err := uiAmount(strconv.FormatUint(wt.Amount, 10), wt.Decimals)
		if err != nil {
			c.log.WithFields(logrus.Fields{
				"owner": owner,
				"mint":  mint,
			}).WithError(err).Debug("Could not convert token amount")
			continue
		}
		wt.UIAmount = ui
		tokens = append(tokens, wt)
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].UIAmount > tokens[j].UIAmount
	})
	return tokens, nil
}

// DecodeTokenAccount extracts the mint and raw amount from SPL token account data
func DecodeTokenAccount(data []byte) (string, uint64, error) {
	if len(data) < tokenAccountMinLen {
		return "", 0, fmt.Errorf("token account data is %d bytes, want %d", len(data), tokenAccountLen)
	}
	mint := sol.PublicKeyFromBytes(data[:32])
	amount := binary.LittleEndian.Uint64(data[tokenAmountOffset:tokenAccountMinLen])
	return mint.String(), amount, nil
}

func (c *Client) observe(method string, fn func() error) error {
	start := time.Now()
	err := fn()
	// a missing account is an answer, not an upstream failure
	recorded := err
	if errors.Is(err, rpc.ErrNotFound) {
		recorded = nil
	}
	metrics.RecordAPIRequest("solana", method, time.Since(start), recorded)
	return err
}

func parseKey(s string) (sol.PublicKey, error) {
	pk, err := sol.PublicKeyFromBase58(s)
	if err != nil {
		return sol.PublicKey{}, fmt.Errorf("%w: %s", ErrInvalidAddress, s)
	}
	return pk, nil
}

// uiAmount shifts a raw integer amount by the mint's decimals
func uiAmount(raw string, decimals uint8) (float64, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return d.Shift(-int32(decimals)).InexactFloat64(), nil
}
