package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_UsesCatalogMessage(t *testing.T) {
	err := New(CodeWalletUnavailable, WithContext("keystore empty"))

	assert.Equal(t, CodeWalletUnavailable, err.Code)
	assert.Equal(t, messages[CodeWalletUnavailable], err.Message)
	assert.Contains(t, err.Error(), "keystore empty")
}

func TestWrap_KeepsExistingCode(t *testing.T) {
	inner := New(CodeCircuitOpen)
	wrapped := Wrap(fmt.Errorf("call: %w", inner), CodeContractCallFailed, "isAllowed")

	assert.Equal(t, CodeCircuitOpen, wrapped.Code)
	assert.Equal(t, "isAllowed", wrapped.Context)
}

func TestWrap_NewCode(t *testing.T) {
	cause := errors.New("rpc down")
	wrapped := Wrap(cause, CodeBlockFetchFailed, "")

	assert.Equal(t, CodeBlockFetchFailed, GetCode(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Nil(t, Wrap(nil, CodeBlockFetchFailed, ""))
}

func TestHasCode(t *testing.T) {
	err := New(CodeRegistrationFailed, WithCause(New(CodeCircuitOpen)))

	assert.True(t, HasCode(err, CodeRegistrationFailed))
	assert.True(t, HasCode(err, CodeCircuitOpen))
	assert.False(t, HasCode(err, CodeStorageError))
	assert.Equal(t, CodeUnknownError, GetCode(errors.New("plain")))
}

func TestIs_ComparesCode(t *testing.T) {
	err := New(CodeWalletNotConnected, WithContext("register"))
	assert.True(t, errors.Is(err, New(CodeWalletNotConnected)))
	assert.False(t, errors.Is(err, New(CodeWalletUnavailable)))
}
