package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/harborline/stockroom-backend/api/middleware"
	pkgerrors "github.com/harborline/stockroom-backend/pkg/errors"
	"github.com/harborline/stockroom-backend/internal/orders"
)

// requireAccount resolves the retail account seeded by the auth middleware.
// Cart and order routes are account-scoped, so a token without one is a
// forbidden caller rather than a malformed request.
func requireAccount(r *http.Request) (uuid.UUID, error) {
	raw := middleware.AccountIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "retail account required")
	}
	accountID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid retail account")
	}
	return accountID, nil
}

func requireActor(r *http.Request) (orders.Actor, error) {
	accountID, err := requireAccount(r)
	if err != nil {
		return orders.Actor{}, err
	}
	userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return orders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user")
	}
	return orders.Actor{
		UserID:    userID,
		AccountID: accountID,
		Role:      middleware.RoleFromContext(r.Context()),
	}, nil
}
