package ir

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinelByCode(t *testing.T) {
	err := Errorf(CodeZeroAmount, "stake of 0")
	assert.ErrorIs(t, err, ErrZeroAmount)
	assert.NotErrorIs(t, err, ErrUnauthorized)

	wrapped := fmt.Errorf("stake: %w", err)
	assert.ErrorIs(t, wrapped, ErrZeroAmount)
	assert.Equal(t, CodeZeroAmount, CodeOf(wrapped))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "ZERO_AMOUNT: stake of 0", Errorf(CodeZeroAmount, "stake of 0").Error())
	assert.Equal(t, "NOT_FOUND", ErrNotFound.Error())
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("submitter offline")
	err := Wrap(CodeExecutionFailed, cause, "dispatch proposal 1")
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrExecutionFailed)
}

func TestErrorDetails(t *testing.T) {
	err := Errorf(CodeNotFound, "proposal").WithDetail("id", "7")
	assert.Equal(t, "7", err.Details["id"])
}

func TestCodeOfForeignError(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(errors.New("disk full")))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestBreach(t *testing.T) {
	assert.PanicsWithError(t, "ledger invariant violated: share-sum (3 != 4)", func() {
		Breach("share-sum", "%d != %d", 3, 4)
	})
}
