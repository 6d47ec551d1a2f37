package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ArowuTest/crowdfund-backend/internal/repositories"
	"github.com/ArowuTest/crowdfund-backend/internal/txn"
)

func TestSurface(t *testing.T) {
	assert.NoError(t, surface(nil))
	assert.ErrorIs(t, surface(fmt.Errorf("FundProject: %w", txn.ErrRetriesExhausted)), ErrUnavailable)
	assert.ErrorIs(t, surface(fmt.Errorf("%w: no reply", txn.ErrCommitOutcomeUnknown)), ErrUnavailable)
	assert.ErrorIs(t, surface(repositories.ErrNotFound), ErrNotFound)

	other := errors.New("disk full")
	assert.Equal(t, other, surface(other))
}
