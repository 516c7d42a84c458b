package mongodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/davicafu/scandrink/internal/payment/domain"
	sharedDomain "github.com/davicafu/scandrink/internal/shared/domain"
)

// TransactionRepoMongoDB implementa TransactionRepository para MongoDB.
type TransactionRepoMongoDB struct {
	client     *mongo.Client
	txColl     *mongo.Collection
	outboxColl *mongo.Collection
}

// Verificaciones estáticas
var (
	_ domain.TransactionRepository  = (*TransactionRepoMongoDB)(nil)
	_ sharedDomain.OutboxRepository = (*TransactionRepoMongoDB)(nil)
)

// NewTransactionRepoMongoDB es el constructor del repositorio.
func NewTransactionRepoMongoDB(ctx context.Context, client *mongo.Client, dbName string) (*TransactionRepoMongoDB, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}

	db := client.Database(dbName)
	return &TransactionRepoMongoDB{
		client:     client,
		txColl:     db.Collection("transactions"),
		outboxColl: db.Collection("outbox"),
	}, nil
}

// --- Structs de BSON para el mapeo ---
// Se definen localmente para no "contaminar" el dominio con tags de BSON.

type mongoTransaction struct {
	OrderID   string    `bson:"_id"`
	ItemName  string    `bson:"itemName"`
	Price     int64     `bson:"price"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"createdAt"`
}

type mongoOutboxEvent struct {
	ID            uuid.UUID `bson:"_id"`
	AggregateType string    `bson:"aggregateType"`
	AggregateID   string    `bson:"aggregateId"`
	EventType     string    `bson:"eventType"`
	Payload       string    `bson:"payload"` // JSON serializado
	CreatedAt     time.Time `bson:"createdAt"`
	Processed     bool      `bson:"processed"`
}

func toMongoOutbox(evt sharedDomain.OutboxEvent) (mongoOutboxEvent, error) {
	payloadBytes, err := json.Marshal(evt.Payload)
	if err != nil {
		return mongoOutboxEvent{}, fmt.Errorf("failed to marshal outbox payload: %w", err)
	}
	return mongoOutboxEvent{
		ID:            evt.ID,
		AggregateType: evt.AggregateType,
		AggregateID:   evt.AggregateID,
		EventType:     evt.EventType,
		Payload:       string(payloadBytes),
		CreatedAt:     evt.CreatedAt,
		Processed:     evt.Processed,
	}, nil
}

// ------------------ Métodos ------------------

// Save inserta la transacción y su evento outbox dentro de una sesión.
func (r *TransactionRepoMongoDB) Save(ctx context.Context, t *domain.Transaction, evt sharedDomain.OutboxEvent) error {
	doc := mongoTransaction{
		OrderID:   t.OrderID,
		ItemName:  t.ItemName,
		Price:     t.Price,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
	}

	outboxDoc, err := toMongoOutbox(evt)
	if err != nil {
		return err
	}

	return r.withSession(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.txColl.InsertOne(sc, doc); err != nil {
			return err
		}
		_, err := r.outboxColl.InsertOne(sc, outboxDoc)
		return err
	})
}

// UpdateStatus actualiza el estado de la transacción y encola el evento.
func (r *TransactionRepoMongoDB) UpdateStatus(ctx context.Context, orderID string, status domain.TransactionStatus, evt sharedDomain.OutboxEvent) error {
	outboxDoc, err := toMongoOutbox(evt)
	if err != nil {
		return err
	}

	return r.withSession(ctx, func(sc mongo.SessionContext) error {
		res, err := r.txColl.UpdateOne(sc,
			bson.M{"_id": orderID},
			bson.M{"$set": bson.M{"status": string(status)}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return domain.ErrTransactionNotFound
		}

		_, err = r.outboxColl.InsertOne(sc, outboxDoc)
		return err
	})
}

// List devuelve todas las transacciones, las más recientes primero.
func (r *TransactionRepoMongoDB) List(ctx context.Context) ([]*domain.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.txColl.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var txs []*domain.Transaction
	for cursor.Next(ctx) {
		var doc mongoTransaction
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		txs = append(txs, &domain.Transaction{
			OrderID:   doc.OrderID,
			ItemName:  doc.ItemName,
			Price:     doc.Price,
			Status:    domain.TransactionStatus(doc.Status),
			CreatedAt: doc.CreatedAt,
		})
	}

	return txs, cursor.Err()
}

// ------------------ Outbox ------------------

func (r *TransactionRepoMongoDB) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.outboxColl.Find(ctx, bson.M{"processed": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []sharedDomain.OutboxEvent
	for cursor.Next(ctx) {
		var doc mongoOutboxEvent
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}

		var payload map[string]interface{}
		if err := json.Unmarshal([]byte(doc.Payload), &payload); err != nil {
			return nil, fmt.Errorf("invalid JSON payload in outbox doc %s: %w", doc.ID, err)
		}

		events = append(events, sharedDomain.OutboxEvent{
			ID:            doc.ID,
			AggregateType: doc.AggregateType,
			AggregateID:   doc.AggregateID,
			EventType:     doc.EventType,
			Payload:       payload,
			CreatedAt:     doc.CreatedAt,
			Processed:     doc.Processed,
		})
	}

	return events, cursor.Err()
}

func (r *TransactionRepoMongoDB) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.outboxColl.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"processed": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event %s as processed: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no outbox event found with id %s", id)
	}
	return nil
}

// withSession agrupa escrituras relacionadas en una sesión causalmente
// consistente. Sin replica set no hay transacción multi-documento real;
// el peor caso deja un evento outbox sin su fila, que el worker ignora.
func (r *TransactionRepoMongoDB) withSession(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	return mongo.WithSession(ctx, session, fn)
}
