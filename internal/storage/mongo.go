package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/account-explorer/internal/config"
	apperrors "github.com/account-explorer/internal/errors"
	"github.com/account-explorer/internal/types"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by the upsert backend
const (
	colWallets        = "wallets"
	colNativeBalances = "native_balances"
	colAnalytics      = "analytics_metrics"
	colSnapshots      = "flowscan_snapshots"
	colTokens         = "tokens"
)

// WalletStore persists wallet documents, balances and analytics metrics
// behind the upsert API. It is the server-side persistence collaborator;
// the polling pipeline never talks to it directly.
type WalletStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewWalletStore connects to MongoDB and verifies the connection
func NewWalletStore(cfg *config.BackendConfig) (*WalletStore, error) {
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGODB_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongo at %s: %w", cfg.MongoURI, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	return &WalletStore{client: client, db: client.Database(cfg.MongoDatabase)}, nil
}

// Close disconnects from MongoDB. Must be called at termination time.
func (s *WalletStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// UpsertWallet records the wallet as connected
func (s *WalletStore) UpsertWallet(ctx context.Context, address string) error {
	_, err := s.db.Collection(colWallets).UpdateOne(ctx,
		bson.M{"address": address},
		bson.M{"$set": bson.M{
			"address":      address,
			"connected_at": time.Now().UTC(),
			"is_fake":      false,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return apperrors.NewStorageError("wallet upsert", err)
	}
	return nil
}

// UpsertNativeBalance stores the wallet's latest native balance
func (s *WalletStore) UpsertNativeBalance(ctx context.Context, address string, balance decimal.Decimal) error {
	amount, _ := balance.Float64()
	_, err := s.db.Collection(colNativeBalances).UpdateOne(ctx,
		bson.M{"wallet_address": address},
		bson.M{"$set": bson.M{
			"wallet_address": address,
			"balance":        amount,
			"updated_at":     time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return apperrors.NewStorageError("balance upsert", err)
	}
	return nil
}

// CountTokens counts token documents owned by the wallet. Used as the
// server-side tokenCount fallback when the caller did not supply one.
func (s *WalletStore) CountTokens(ctx context.Context, address string) (int64, error) {
	count, err := s.db.Collection(colTokens).CountDocuments(ctx, bson.M{"owner_address": address})
	if err != nil {
		return 0, apperrors.NewStorageError("token count", err)
	}
	return count, nil
}

// InsertMetric stores one computed wallet summary metric
func (s *WalletStore) InsertMetric(ctx context.Context, address string, metric decimal.Decimal, tokenCount int64) error {
	value, _ := metric.Float64()
	_, err := s.db.Collection(colAnalytics).InsertOne(ctx, bson.M{
		"metric_name":   fmt.Sprintf("wallet_summary_%s", address),
		"metric_value":  value,
		"metric_data":   bson.M{"tokenCount": tokenCount},
		"calculated_at": time.Now().UTC(),
	})
	if err != nil {
		return apperrors.NewStorageError("metric insert", err)
	}
	return nil
}

// InsertRawSnapshot stores a raw details capture alongside the metrics
func (s *WalletStore) InsertRawSnapshot(ctx context.Context, address string, details types.AccountDetails) error {
	_, err := s.db.Collection(colSnapshots).InsertOne(ctx, bson.M{
		"wallet":     address,
		"details":    details,
		"fetched_at": time.Now().UTC(),
	})
	if err != nil {
		return apperrors.NewStorageError("raw snapshot insert", err)
	}
	return nil
}
