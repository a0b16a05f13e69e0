package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/observability/metrics"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
	queueConfig "github.com/babylonlabs-io/staking-queue-client/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const StakeEventQueueName = "nft_staking_events_queue"

// QueueManager publishes stake lifecycle events to RabbitMQ
type QueueManager struct {
	cfg *queueConfig.QueueConfig

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewQueueManager(cfg *queueConfig.QueueConfig) (*QueueManager, error) {
	qm := &QueueManager{cfg: cfg}
	if err := qm.connect(); err != nil {
		return nil, err
	}
	return qm, nil
}

func (qm *QueueManager) connect() error {
	url := fmt.Sprintf("amqp://%s:%s@%s", qm.cfg.QueueUser, qm.cfg.QueuePassword, qm.cfg.Url)
	conn, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	args := amqp.Table{}
	if qm.cfg.QueueType != "" {
		args["x-queue-type"] = qm.cfg.QueueType
	}
	if _, err := ch.QueueDeclare(StakeEventQueueName, true, false, false, false, args); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare queue %s: %w", StakeEventQueueName, err)
	}

	qm.conn = conn
	qm.channel = ch
	return nil
}

// PushStakeEvent publishes ev, reconnecting if the broker dropped the connection
func (qm *QueueManager) PushStakeEvent(ctx context.Context, ev *types.StakeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", ev.EventType, err)
	}

	err = retry.Do(func() error {
		return qm.publish(ctx, ev, body)
	},
		retry.Context(ctx),
		retry.Attempts(uint(max(qm.cfg.MsgMaxRetryAttempts, 1))),
		retry.Delay(100*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().Err(err).Uint("attempt", n+1).Msg("failed to publish stake event, retrying")
		}),
	)
	if err != nil {
		metrics.RecordQueueSendError()
		return fmt.Errorf("failed to push %s event: %w", ev.EventType, err)
	}
	return nil
}

func (qm *QueueManager) publish(ctx context.Context, ev *types.StakeEvent, body []byte) error {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	if qm.conn == nil || qm.conn.IsClosed() {
		if err := qm.connect(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, qm.cfg.QueueProcessingTimeout)
	defer cancel()

	return qm.channel.PublishWithContext(ctx, "", StakeEventQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.CallID,
		Type:         ev.EventType.String(),
		Timestamp:    time.Unix(ev.Timestamp, 0),
		Body:         body,
	})
}

// Stop closes the channel and the connection
func (qm *QueueManager) Stop() error {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	log.Info().Msg("Shutting down queue manager")
	if qm.conn == nil || qm.conn.IsClosed() {
		return nil
	}
	if err := qm.channel.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close rabbitmq channel")
	}
	return qm.conn.Close()
}

// NoopConsumer drops every event, used when no queue is configured
type NoopConsumer struct{}

func (NoopConsumer) PushStakeEvent(ctx context.Context, ev *types.StakeEvent) error {
	log.Ctx(ctx).Debug().
		Stringer("event_type", ev.EventType).
		Str("asset_id", ev.AssetID).
		Msg("no queue configured, dropping stake event")
	return nil
}

func (NoopConsumer) Stop() error {
	return nil
}
