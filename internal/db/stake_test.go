//go:build integration

package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMongoLedger(t *testing.T) {
	require.NoError(t, testDB.Ping(context.Background()))

	testLedger(t, testDB)
}
