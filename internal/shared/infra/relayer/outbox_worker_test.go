package relayer

import (
	"context"
	"errors"
	"testing"

	paymentDomain "github.com/davicafu/scandrink/internal/payment/domain"
	sharedDomain "github.com/davicafu/scandrink/internal/shared/domain"
	sharedDomainEvents "github.com/davicafu/scandrink/internal/shared/domain/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/davicafu/scandrink/tests/mocks"
)

func pendingEvent(eventType string) sharedDomain.OutboxEvent {
	return sharedDomain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "payment",
		AggregateID:   "ORDER-1",
		EventType:     eventType,
		Payload:       map[string]interface{}{"order_id": "ORDER-1", "item_name": "Teh", "price": 150, "status": "success"},
	}
}

func TestOutboxWorker_ProcessBatch_Success(t *testing.T) {
	// ARRANGE
	repo := new(mocks.MockOutboxRepository)
	publisher := new(mocks.MockPublisher)

	testEvent := pendingEvent(paymentDomain.PaymentSettled)
	registry := paymentDomain.NewEventRegistry()

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{testEvent}, nil).Once()
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(evt sharedDomainEvents.IntegrationEvent) bool {
		return evt.Type == paymentDomain.PaymentSettled && evt.PartitionKey() == "ORDER-1"
	})).Return(nil).Once()
	repo.On("MarkOutboxProcessed", mock.Anything, testEvent.ID).Return(nil).Once()

	worker := NewOutboxWorker(repo, publisher, registry, 0, 10, zap.NewNop())

	// ACT
	worker.ProcessBatch(context.Background())

	// ASSERT
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestOutboxWorker_ProcessBatch_PublisherFails(t *testing.T) {
	// ARRANGE
	repo := new(mocks.MockOutboxRepository)
	publisher := new(mocks.MockPublisher)

	testEvent := pendingEvent(paymentDomain.PaymentFailed)
	registry := paymentDomain.NewEventRegistry()

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{testEvent}, nil).Once()
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("kafka down")).Once()

	worker := NewOutboxWorker(repo, publisher, registry, 0, 10, zap.NewNop())

	// ACT
	worker.ProcessBatch(context.Background())

	// ASSERT: el evento NO se marca como procesado, se reintentará.
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
	repo.AssertNotCalled(t, "MarkOutboxProcessed", mock.Anything, mock.Anything)
}

func TestOutboxWorker_ProcessBatch_UnknownEventType(t *testing.T) {
	// ARRANGE
	repo := new(mocks.MockOutboxRepository)
	publisher := new(mocks.MockPublisher)

	testEvent := pendingEvent("payment.desconocido")
	registry := paymentDomain.NewEventRegistry()

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{testEvent}, nil).Once()

	worker := NewOutboxWorker(repo, publisher, registry, 0, 10, zap.NewNop())

	// ACT
	worker.ProcessBatch(context.Background())

	// ASSERT: un tipo fuera de registro ni se publica ni se marca.
	repo.AssertExpectations(t)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkOutboxProcessed", mock.Anything, mock.Anything)
}

func TestOutboxWorker_ProcessBatch_FetchFails(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	publisher := new(mocks.MockPublisher)

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{}, errors.New("db down")).Once()

	worker := NewOutboxWorker(repo, publisher, paymentDomain.NewEventRegistry(), 0, 10, zap.NewNop())
	worker.ProcessBatch(context.Background())

	repo.AssertExpectations(t)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}
