// Package ethereum implements the access controller proxy over go-ethereum.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	walletdomain "github.com/fd1az/whitelist-sync/business/wallet/domain"
	"github.com/fd1az/whitelist-sync/business/whitelist/app"
	"github.com/fd1az/whitelist-sync/internal/apperror"
	"github.com/fd1az/whitelist-sync/internal/circuitbreaker"
	"github.com/fd1az/whitelist-sync/internal/logger"
)

const (
	tracerName = "github.com/fd1az/whitelist-sync/business/whitelist/infra/ethereum"
	meterName  = "github.com/fd1az/whitelist-sync/business/whitelist/infra/ethereum"
)

type controllerMetrics struct {
	calls      metric.Int64Counter
	callErrors metric.Int64Counter
	submitted  metric.Int64Counter
}

// ProviderSource yields the provider calls should go to.
type ProviderSource interface {
	State() walletdomain.ConnectionState
}

// AccessController talks to the access controller contract through the
// connection's current provider.
type AccessController struct {
	address common.Address
	abi     abi.ABI
	source  ProviderSource
	logger  logger.LoggerInterface

	readCB  *circuitbreaker.CircuitBreaker[[]byte]
	writeCB *circuitbreaker.CircuitBreaker[common.Hash]

	tracer  trace.Tracer
	metrics *controllerMetrics
}

var _ app.AccessController = (*AccessController)(nil)

// NewAccessController creates a proxy for the contract at address.
func NewAccessController(address common.Address, source ProviderSource, log logger.LoggerInterface) (*AccessController, error) {
	parsedABI, err := abi.JSON(strings.NewReader(AccessControllerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse access controller ABI: %w", err)
	}

	c := &AccessController{
		address: address,
		abi:     parsedABI,
		source:  source,
		logger:  log,
		readCB:  circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("access-controller-read")),
		writeCB: circuitbreaker.New[common.Hash](circuitbreaker.DefaultConfig("access-controller-write")),
		tracer:  otel.Tracer(tracerName),
	}

	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return c, nil
}

func (c *AccessController) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &controllerMetrics{}

	c.metrics.calls, err = meter.Int64Counter(
		"access_controller_calls_total",
		metric.WithDescription("Access controller read calls"),
	)
	if err != nil {
		return err
	}

	c.metrics.callErrors, err = meter.Int64Counter(
		"access_controller_call_errors_total",
		metric.WithDescription("Failed access controller calls"),
	)
	if err != nil {
		return err
	}

	c.metrics.submitted, err = meter.Int64Counter(
		"access_controller_registrations_total",
		metric.WithDescription("Submitted register() transactions"),
	)
	return err
}

// Address returns the contract address.
func (c *AccessController) Address() common.Address {
	return c.address
}

func (c *AccessController) provider() (walletdomain.Provider, error) {
	p := c.source.State().Provider
	if p == nil {
		return nil, apperror.New(apperror.CodeRPCConnectionFailed, apperror.WithContext("no provider"))
	}
	return p, nil
}

// IsAllowed calls isAllowed(addr).
func (c *AccessController) IsAllowed(ctx context.Context, addr common.Address) (*big.Int, error) {
	return c.callUint(ctx, methodIsAllowed, addr)
}

// FreeSlotsCount calls freeSlotsCount().
func (c *AccessController) FreeSlotsCount(ctx context.Context) (*big.Int, error) {
	return c.callUint(ctx, methodFreeSlotsCount)
}

func (c *AccessController) callUint(ctx context.Context, method string, args ...any) (*big.Int, error) {
	ctx, span := c.tracer.Start(ctx, "access_controller."+method,
		trace.WithAttributes(attribute.String("contract", c.address.Hex())),
	)
	defer span.End()

	c.metrics.calls.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))

	fail := func(err error) (*big.Int, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, method+" failed")
		c.metrics.callErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
		return nil, err
	}

	provider, err := c.provider()
	if err != nil {
		return fail(err)
	}

	callData, err := c.abi.Pack(method, args...)
	if err != nil {
		return fail(fmt.Errorf("failed to encode %s: %w", method, err))
	}

	result, err := c.readCB.Execute(func() ([]byte, error) {
		return provider.CallContract(ctx, ethereum.CallMsg{
			To:   &c.address,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return fail(apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(method)))
	}

	outputs, err := c.abi.Unpack(method, result)
	if err != nil {
		return fail(fmt.Errorf("failed to decode %s: %w", method, err))
	}
	if len(outputs) != 1 {
		return fail(fmt.Errorf("unexpected %s output length: %d", method, len(outputs)))
	}

	value, ok := outputs[0].(*big.Int)
	if !ok {
		return fail(fmt.Errorf("unexpected %s output type %T", method, outputs[0]))
	}

	span.SetStatus(codes.Ok, "")
	return value, nil
}

// Register builds, signs and sends a register() transaction from account.
func (c *AccessController) Register(ctx context.Context, account walletdomain.Account) (common.Hash, error) {
	from := account.Address()
	ctx, span := c.tracer.Start(ctx, "access_controller.register",
		trace.WithAttributes(
			attribute.String("contract", c.address.Hex()),
			attribute.String("from", from.Hex()),
		),
	)
	defer span.End()

	fail := func(err error) (common.Hash, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "register failed")
		c.metrics.callErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("method", methodRegister)))
		return common.Hash{}, err
	}

	provider, err := c.provider()
	if err != nil {
		return fail(err)
	}

	callData, err := c.abi.Pack(methodRegister)
	if err != nil {
		return fail(fmt.Errorf("failed to encode register: %w", err))
	}

	hash, err := c.writeCB.Execute(func() (common.Hash, error) {
		tx, err := c.buildTx(ctx, provider, from, callData)
		if err != nil {
			return common.Hash{}, err
		}

		chainID, err := provider.ChainID(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("chain id: %w", err)
		}

		signed, err := account.SignTx(tx, chainID)
		if err != nil {
			return common.Hash{}, fmt.Errorf("sign: %w", err)
		}

		if err := provider.SendTransaction(ctx, signed); err != nil {
			return common.Hash{}, fmt.Errorf("send: %w", err)
		}
		return signed.Hash(), nil
	})
	if err != nil {
		return fail(err)
	}

	c.metrics.submitted.Add(ctx, 1)
	c.logger.Debug(ctx, "register() sent", "hash", hash.Hex(), "from", from.Hex())
	span.SetStatus(codes.Ok, "")
	return hash, nil
}

func (c *AccessController) buildTx(ctx context.Context, provider walletdomain.Provider, from common.Address, data []byte) (*types.Transaction, error) {
	nonce, err := provider.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	gasPrice, err := provider.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}

	gas, err := provider.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &c.address,
		Data: data,
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeGasEstimationFailed, apperror.WithCause(err), apperror.WithContext(methodRegister))
	}
	gas += gas * gasHeadroomPercent / 100

	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &c.address,
		Value:    big.NewInt(0),
		Data:     data,
	}), nil
}
