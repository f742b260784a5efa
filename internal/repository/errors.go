package repository

import (
	"context"
	"errors"
	"net"
	"strings"

	"capriccio/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
)

// classify wraps a database error with its persistence category. Domain
// errors pass through untouched.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	var persistenceErr *model.PersistenceError
	if errors.As(err, &persistenceErr) {
		return err
	}

	return &model.PersistenceError{
		Op:       op,
		Category: categorize(err),
		Err:      err,
	}
}

func categorize(err error) model.PersistenceCategory {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42501":
			return model.PersistencePermission
		case strings.HasPrefix(pgErr.Code, "08"),
			pgErr.Code == "57P01", pgErr.Code == "57P02", pgErr.Code == "57P03":
			return model.PersistenceUnavailable
		case strings.HasPrefix(pgErr.Code, "53"), strings.HasPrefix(pgErr.Code, "54"):
			return model.PersistenceQuota
		default:
			return model.PersistenceUnknown
		}
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return model.PersistenceUnavailable
	}

	if pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return model.PersistenceUnavailable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return model.PersistenceUnavailable
	}

	return model.PersistenceUnknown
}
