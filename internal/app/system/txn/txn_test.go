package txn

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/volunteerhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsNotSupported(t *testing.T) {
	tests := map[string]struct {
		err  error
		want bool
	}{
		"nil":                   {nil, false},
		"unrelated":             {errors.New("connection reset"), false},
		"standalone code 20":    {mongo.CommandError{Code: 20}, true},
		"code 51":               {mongo.CommandError{Code: 51}, true},
		"code 263":              {mongo.CommandError{Code: 263}, true},
		"duplicate key code":    {mongo.CommandError{Code: 11000, Message: "E11000"}, false},
		"wrapped command error": {fmt.Errorf("create org: %w", mongo.CommandError{Code: 20}), true},
		"replica set message":   {errors.New("Transaction numbers are only allowed on a Replica Set member"), true},
		"session message":       {errors.New("sessions are NOT SUPPORTED by this deployment"), true},
		"transaction alone":     {errors.New("transaction aborted"), false},
		"illegal operation":     {errors.New("Illegal Operation"), true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRun_ExecutesFn(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coll := db.Collection("txn_probe")
	err := Run(ctx, db, zap.NewNop(), func(ctx context.Context) error {
		_, err := coll.InsertOne(ctx, bson.M{"n": 1})
		return err
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 document, got %d", n)
	}
}

func TestRun_PropagatesError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	boom := errors.New("boom")
	err := Run(ctx, db, zap.NewNop(), func(ctx context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}
