package httperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

func TestClassify(t *testing.T) {
	cause := errors.New("boom")

	assert.NoError(t, Classify(500, nil))
	assert.ErrorIs(t, Classify(429, cause), domain.ErrRateLimited)
	assert.ErrorIs(t, Classify(503, cause), domain.ErrProviderUnavailable)
	assert.ErrorIs(t, Classify(503, cause), cause)
	assert.Same(t, cause, Classify(400, cause))
}
