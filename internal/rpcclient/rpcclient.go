// Package rpcclient dials chain RPC endpoints and defines the provider
// surface the rest of the application reads from.
package rpcclient

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/fd1az/whitelist-sync/internal/apperror"
	"github.com/fd1az/whitelist-sync/internal/httpclient"
	"github.com/fd1az/whitelist-sync/internal/ratelimit"
)

// Provider is the chain read/submit surface. *ethclient.Client satisfies it.
type Provider interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

var _ Provider = (*ethclient.Client)(nil)

// Dial connects to url. HTTP(S) endpoints use the OTEL-instrumented client;
// websocket and IPC endpoints use go-ethereum's own transports.
func Dial(ctx context.Context, url, name string) (*ethclient.Client, error) {
	var (
		client *rpc.Client
		err    error
	)

	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		client, err = rpc.DialOptions(ctx, url,
			rpc.WithHTTPClient(httpclient.New(httpclient.WithProviderName(name))))
	} else {
		client, err = rpc.DialContext(ctx, url)
	}
	if err != nil {
		return nil, apperror.New(apperror.CodeRPCConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("dial %s", name)))
	}

	return ethclient.NewClient(client), nil
}

// Limited wraps a Provider so every call first waits on limiter.
type Limited struct {
	next    Provider
	limiter *ratelimit.Limiter
}

var _ Provider = (*Limited)(nil)

// NewLimited wraps next with limiter.
func NewLimited(next Provider, limiter *ratelimit.Limiter) *Limited {
	return &Limited{next: next, limiter: limiter}
}

// Unwrap returns the wrapped provider.
func (l *Limited) Unwrap() Provider {
	return l.next
}

func (l *Limited) wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}
	return nil
}

func (l *Limited) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.next.HeaderByNumber(ctx, number)
}

func (l *Limited) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.next.CallContract(ctx, msg, blockNumber)
}

func (l *Limited) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	if err := l.wait(ctx); err != nil {
		return 0, err
	}
	return l.next.PendingNonceAt(ctx, account)
}

func (l *Limited) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.next.SuggestGasPrice(ctx)
}

func (l *Limited) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if err := l.wait(ctx); err != nil {
		return 0, err
	}
	return l.next.EstimateGas(ctx, msg)
}

func (l *Limited) ChainID(ctx context.Context) (*big.Int, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.next.ChainID(ctx)
}

func (l *Limited) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := l.wait(ctx); err != nil {
		return err
	}
	return l.next.SendTransaction(ctx, tx)
}

func (l *Limited) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.next.TransactionReceipt(ctx, txHash)
}
