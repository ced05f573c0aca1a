package program

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	assert.Equal(t, ErrorCode(6000), ErrInvalidInvestorShare)
	assert.Equal(t, ErrorCode(6018), ErrDayNotReady)
	assert.Equal(t, "DayNotReady (6018): 24h distribution window not yet available", ErrDayNotReady.Error())
	assert.Equal(t, "ErrorCode(7000)", ErrorCode(7000).Name())
	assert.Contains(t, ErrorCode(7000).Error(), "unknown error")
}

func TestErrorCode_AllNamed(t *testing.T) {
	for code := ErrInvalidInvestorShare; code <= ErrNotEnoughAccounts; code++ {
		assert.Contains(t, errorNames, code)
		assert.Contains(t, errorMessages, code)
	}
}

func TestErrorCode_Wrapped(t *testing.T) {
	err := fmt.Errorf("%w: page 3", ErrPageOverflow)
	assert.ErrorIs(t, err, ErrPageOverflow)
	assert.NotErrorIs(t, err, ErrDayNotReady)

	var code ErrorCode
	assert.True(t, errors.As(err, &code))
	assert.Equal(t, "PageOverflow", code.Name())
}
