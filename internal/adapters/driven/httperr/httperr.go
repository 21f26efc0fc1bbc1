// Package httperr maps provider HTTP status codes to domain errors so the
// resilient wrappers can tell transient failures from permanent ones.
package httperr

import (
	"fmt"
	"net/http"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

// Classify wraps err with domain.ErrRateLimited for 429 and
// domain.ErrProviderUnavailable for 5xx responses. Other codes are
// returned unchanged.
func Classify(status int, err error) error {
	switch {
	case err == nil:
		return nil
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	default:
		return err
	}
}
