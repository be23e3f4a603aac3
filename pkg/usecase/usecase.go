package usecase

import (
	"context"

	"github.com/relaydesk/relaydesk/pkg/domain/interfaces"
	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/fanout"
	"github.com/relaydesk/relaydesk/pkg/service/messenger"
	"github.com/relaydesk/relaydesk/pkg/service/oracle"
)

// UseCases bundles the relay's application logic: routing inbound user
// messages, relaying external live agent events, and managing conversations
// and their durable memories. Services left unset degrade gracefully: without
// an oracle every decision is the fallback, without a messenger nothing is
// forwarded, without a hub nothing is broadcast.
type UseCases struct {
	repo         interfaces.Repository
	oracle       oracle.Service
	messenger    messenger.Service
	hub          *fanout.Hub
	externalDest string
}

type Option func(*UseCases)

// WithOracle sets the decision service used for routing and responses
func WithOracle(svc oracle.Service) Option {
	return func(uc *UseCases) {
		uc.oracle = svc
	}
}

// WithMessenger sets the external messaging platform client
func WithMessenger(svc messenger.Service) Option {
	return func(uc *UseCases) {
		uc.messenger = svc
	}
}

// WithHub sets the realtime fanout hub that receives persisted messages
func WithHub(hub *fanout.Hub) Option {
	return func(uc *UseCases) {
		uc.hub = hub
	}
}

// WithExternalDestination sets the vendor-side address outbound forwards are
// sent to. The sender address is always the conversation's tagged address.
func WithExternalDestination(addr string) Option {
	return func(uc *UseCases) {
		uc.externalDest = addr
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// publish broadcasts a persisted message to realtime subscribers. Broadcast
// is best-effort: a missing hub or a slow subscriber never affects the flow.
func (uc *UseCases) publish(ctx context.Context, msg *model.Message, quickReplies []model.QuickReply) {
	if uc.hub == nil {
		return
	}
	uc.hub.Publish(ctx, fanout.NewMessageEvent(msg, quickReplies))
}
