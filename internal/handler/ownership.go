package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/gig-wallet/internal/auth"
	"github.com/josh-kwaku/gig-wallet/internal/domain"
)

func principalFrom(r *http.Request) (auth.Principal, *AppError) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return auth.Principal{}, ErrMissingToken
	}
	return p, nil
}

func requestIDFromPath(r *http.Request) (uuid.UUID, *AppError) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, ErrResourceNotFound
	}
	return id, nil
}

func accountIDFromPath(r *http.Request) (string, *AppError) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", ErrResourceNotFound
	}
	return id, nil
}

// canView hides other accounts' requests behind a 404 rather than a 403 so
// request ids cannot be probed.
func canView(p auth.Principal, req *domain.FundingRequest) bool {
	return p.IsAdmin() || req.AccountID == p.AccountID
}
