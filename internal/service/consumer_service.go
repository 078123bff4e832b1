package service

import (
	"context"
	"encoding/json"
	"log"

	"ai-mediagen-be/internal/dto"
	"ai-mediagen-be/internal/entity"
	"ai-mediagen-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService folds settled generation events into daily usage rollups.
type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.GenerationSettledMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal settled message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	spent := payload.Cost
	refunded := 0
	if payload.Refunded {
		spent = 0
		refunded = payload.Cost
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	err := uow.UsageStatRepository().Accumulate(
		ctx,
		payload.UserId,
		payload.Provider,
		entity.GenerationKind(payload.Kind),
		payload.OccurredAt,
		spent,
		refunded,
	)
	if err != nil {
		log.Printf("[ERROR] Failed to accumulate usage for %s: %v", payload.ReferenceId, err)
		msg.Nack() // Nack for retriable errors
		return
	}

	msg.Ack()
}
