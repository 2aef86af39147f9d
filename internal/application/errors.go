package application

import (
	"errors"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// isFatal reports whether err must stop a watch session. Test failures and
// report errors on a single cycle do not.
func isFatal(err error) bool {
	if err == nil || errors.Is(err, domain.ErrTestsFailed) {
		return false
	}
	var initErr *domain.ProviderInitError
	return domain.IsConfigError(err) || errors.As(err, &initErr)
}
