package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveRunIDGeneratesWhenEmpty(t *testing.T) {
	require.Equal(t, "explicit-run", resolveRunID("explicit-run"))

	generated := resolveRunID("")
	require.NotEmpty(t, generated)
	require.NotEqual(t, generated, resolveRunID(""))
}

func TestBuildResultStoreDisabledByDefault(t *testing.T) {
	store, err := buildResultStore(context.Background(), publishFlags{})
	require.NoError(t, err)
	require.Nil(t, store)
}

func TestBuildResultStoreRejectsUnknownKind(t *testing.T) {
	_, err := buildResultStore(context.Background(), publishFlags{resultStoreKind: "gcs"})
	require.Error(t, err)
}

func TestBuildResultStoreRequiresBucket(t *testing.T) {
	_, err := buildResultStore(context.Background(), publishFlags{resultStoreKind: "s3"})
	require.Error(t, err)
}

func TestBuildLedgerDisabledByDefault(t *testing.T) {
	led, err := buildLedger(context.Background(), publishFlags{})
	require.NoError(t, err)
	require.Nil(t, led)
}

func TestBuildLedgerRejectsUnknownKind(t *testing.T) {
	_, err := buildLedger(context.Background(), publishFlags{ledgerKind: "postgres"})
	require.Error(t, err)
}
