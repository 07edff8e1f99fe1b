package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/biblioflow/biblioflow-api/internal/dto"
	"github.com/biblioflow/biblioflow-api/internal/observability"
)

const feedBufferSize = 16

// CirculationFeedService fans loan events out to live subscribers, across
// nodes via redis pub/sub and NATS.
type CirculationFeedService interface {
	Record(ctx context.Context, event dto.LoanEvent)
	Subscribe() (<-chan dto.LoanEvent, func())
	Start(ctx context.Context)
}

type circulationFeedService struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	tracer       trace.Tracer
	broker       *feedBroker
	nodeID       string
}

type loanEventEnvelope struct {
	Source string        `json:"source"`
	Event  dto.LoanEvent `json:"event"`
	SentAt time.Time     `json:"sent_at"`
}

type feedBroker struct {
	mu          sync.RWMutex
	subscribers map[chan dto.LoanEvent]struct{}
}

// NewCirculationFeedService constructs a circulation feed. Redis and NATS
// connections may each be nil, the feed then stays local to this node.
func NewCirculationFeedService(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) CirculationFeedService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":feed"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".feed"
	}

	return &circulationFeedService{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "circulation_feed").Logger(),
		tracer:       otel.Tracer("github.com/biblioflow/biblioflow-api/internal/service/feed"),
		broker: &feedBroker{
			subscribers: make(map[chan dto.LoanEvent]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *circulationFeedService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *circulationFeedService) Record(ctx context.Context, event dto.LoanEvent) {
	attrs := []attribute.KeyValue{
		attribute.String("feed.event_type", event.Type),
		attribute.String("feed.book_id", event.BookID),
	}
	spanCtx, span := s.tracer.Start(ctx, "feed.record", trace.WithAttributes(attrs...))
	defer span.End()

	s.broker.broadcast(event)
	if err := s.publish(spanCtx, event); err != nil {
		span.RecordError(err)
		s.logger.Warn().Err(err).Msg("failed to publish loan event to broker")
	}
}

func (s *circulationFeedService) Subscribe() (<-chan dto.LoanEvent, func()) {
	channel := make(chan dto.LoanEvent, feedBufferSize)

	s.broker.subscribe(channel)
	observability.FeedSubscribersActive().Inc()

	cleanup := func() {
		s.broker.unsubscribe(channel)
		observability.FeedSubscribersActive().Dec()
	}

	return channel, cleanup
}

func (s *circulationFeedService) publish(ctx context.Context, event dto.LoanEvent) error {
	envelope := loanEventEnvelope{
		Source: s.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *circulationFeedService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("circulation feed redis subscription closed")
			return
		}
		s.handleEnvelope([]byte(msg.Payload))
	}
}

func (s *circulationFeedService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "biblioflow-feed", func(msg *nats.Msg) {
		s.handleEnvelope(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats feed subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain feed nats subscription")
		}
	}()
}

func (s *circulationFeedService) handleEnvelope(payload []byte) {
	var envelope loanEventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid loan event payload")
		return
	}

	if envelope.Source == s.nodeID {
		return
	}

	s.broker.broadcast(envelope.Event)
}

func (b *feedBroker) subscribe(ch chan dto.LoanEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[ch] = struct{}{}
}

func (b *feedBroker) unsubscribe(ch chan dto.LoanEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

func (b *feedBroker) broadcast(event dto.LoanEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
