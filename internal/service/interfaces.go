package service

import (
	"context"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
	"github.com/josh-kwaku/gig-wallet/internal/ports"
)

type storage interface {
	ports.Transactor
	Stores() ports.Stores
}

type eventPublisher interface {
	Publish(ctx context.Context, evt domain.Event) error
}
