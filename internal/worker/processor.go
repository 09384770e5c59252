package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/droproute/droproute/internal/delivery"
)

// Job types carried in the job_type field.
const (
	JobOrderCreated = "order_created"
	JobHealthCheck  = "health_check"
)

// Decision is what to do with a message once it has been processed.
type Decision int

const (
	// Ack removes the message from the subscription.
	Ack Decision = iota
	// Nack asks Pub/Sub to redeliver, or dead-letter once the subscription's
	// delivery attempts are used up.
	Nack
)

func (d Decision) String() string {
	if d == Ack {
		return "ack"
	}
	return "nack"
}

// Message is the envelope published by the ordering system.
type Message struct {
	JobType string `json:"job_type"`
	Order   *Order `json:"order,omitempty"`
}

// Order is a newly placed order to be delivered.
type Order struct {
	Name       string `json:"name"`
	TimeWindow string `json:"time_window"`
	Address    string `json:"address"`
}

// DeliveryCreator adds Pending deliveries.
type DeliveryCreator interface {
	Create(ctx context.Context, input delivery.CreateInput) (*delivery.Delivery, error)
}

// Pinger reports whether the delivery store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Processor turns messages into deliveries. It is independent of Pub/Sub
// so it can be driven directly.
type Processor struct {
	deliveries DeliveryCreator
	store      Pinger
	logger     zerolog.Logger
}

// NewProcessor creates a Processor. store may be nil, in which case health
// checks always pass.
func NewProcessor(deliveries DeliveryCreator, store Pinger, logger zerolog.Logger) *Processor {
	return &Processor{deliveries: deliveries, store: store, logger: logger}
}

// Process handles one message body. Malformed and invalid orders are
// nacked so they end up on the dead-letter topic; unknown job types are
// acked and dropped.
func (p *Processor) Process(ctx context.Context, messageID string, data []byte) Decision {
	start := time.Now()
	logger := p.logger.With().Str("message_id", messageID).Logger()

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		return Nack
	}
	logger = logger.With().Str("job_type", msg.JobType).Logger()

	var err error
	switch msg.JobType {
	case JobOrderCreated:
		err = p.createDelivery(ctx, logger, msg.Order)
	case JobHealthCheck:
		if p.store != nil {
			err = p.store.Ping(ctx)
		}
	default:
		logger.Warn().Msg("unknown job type")
		return Ack
	}

	if err != nil {
		logger.Error().Err(err).Msg("job failed")
		return Nack
	}

	logger.Info().Dur("duration", time.Since(start)).Msg("job completed successfully")
	return Ack
}

var errMissingOrder = errors.New("order_created message has no order")

func (p *Processor) createDelivery(ctx context.Context, logger zerolog.Logger, order *Order) error {
	if order == nil {
		return errMissingOrder
	}

	d, err := p.deliveries.Create(ctx, delivery.CreateInput{
		Name:       order.Name,
		TimeWindow: order.TimeWindow,
		Address:    order.Address,
	})
	if err != nil {
		var validationErr *delivery.ValidationError
		if errors.As(err, &validationErr) {
			for _, fe := range validationErr.Errors {
				logger.Warn().Str("field", fe.Field).Str("reason", fe.Message).Msg("invalid order")
			}
		}
		return err
	}

	logger.Info().Str("delivery_id", d.ID).Msg("delivery created from order")
	return nil
}
