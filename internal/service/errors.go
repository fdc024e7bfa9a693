package service

import (
	domainerrors "github.com/illustrationsapp/illustrations-server/internal/errors"
)

// isClientError reports whether err was caused by the input rather than the system.
func isClientError(err error) bool {
	var domainErr *domainerrors.Error
	if !domainerrors.As(err, &domainErr) {
		return false
	}
	return domainErr.HTTPStatus() < 500
}
