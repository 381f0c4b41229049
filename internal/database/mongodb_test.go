package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnectMongo_InvalidURI(t *testing.T) {
	_, err := ConnectMongo(context.Background(), "not-a-mongo-uri", time.Second)
	require.ErrorContains(t, err, "mongo connect")
}

func TestConnectMongo_Unreachable(t *testing.T) {
	_, err := ConnectMongo(context.Background(), "mongodb://127.0.0.1:1/?connect=direct", 300*time.Millisecond)
	require.ErrorContains(t, err, "mongo ping")
}
