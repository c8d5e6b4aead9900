package cli

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"

	"github.com/vishalbelsare/gosdt-guesses/ledger"
	"github.com/vishalbelsare/gosdt-guesses/resultstore"
)

// publishFlags is the --result-store/--ledger flag group: after a Fit call
// returns, fit's RunE uses it to optionally publish the Result's model JSON
// to object storage and record a status row in a ledger table.
type publishFlags struct {
	runID string

	resultStoreKind   string
	resultStoreBucket string
	resultStorePrefix string
	resultStoreRate   float64
	resultStoreBurst  int

	minioEndpoint  string
	minioAccessKey string
	minioSecretKey string
	minioUseSSL    bool

	ledgerKind  string
	ledgerTable string
	ledgerRate  float64
	ledgerBurst int
}

func registerPublishFlags(cmd *cobra.Command, f *publishFlags) {
	flags := cmd.Flags()
	flags.StringVar(&f.runID, "run-id", "", "run identifier used to key the result store and ledger (default: a generated uuid)")

	flags.StringVar(&f.resultStoreKind, "result-store", "", "publish the model JSON here after fitting: \"s3\" or \"minio\" (default: disabled)")
	flags.StringVar(&f.resultStoreBucket, "result-store-bucket", "", "bucket name for --result-store")
	flags.StringVar(&f.resultStorePrefix, "result-store-prefix", "gosdt-results/", "key prefix for --result-store")
	flags.Float64Var(&f.resultStoreRate, "result-store-rate", 0, "sustained requests/sec against the result store (0 = unlimited)")
	flags.IntVar(&f.resultStoreBurst, "result-store-burst", 1, "burst size for --result-store-rate")

	flags.StringVar(&f.minioEndpoint, "minio-endpoint", "localhost:9000", "MinIO endpoint, host:port (--result-store=minio only)")
	flags.StringVar(&f.minioAccessKey, "minio-access-key", "", "MinIO access key (--result-store=minio only)")
	flags.StringVar(&f.minioSecretKey, "minio-secret-key", "", "MinIO secret key (--result-store=minio only)")
	flags.BoolVar(&f.minioUseSSL, "minio-use-ssl", false, "use TLS against the MinIO endpoint (--result-store=minio only)")

	flags.StringVar(&f.ledgerKind, "ledger", "", "record a per-run status row here after fitting: \"dynamodb\" (default: disabled)")
	flags.StringVar(&f.ledgerTable, "ledger-table", "gosdt-runs", "table name for --ledger")
	flags.Float64Var(&f.ledgerRate, "ledger-rate", 0, "sustained requests/sec against the ledger (0 = unlimited)")
	flags.IntVar(&f.ledgerBurst, "ledger-burst", 1, "burst size for --ledger-rate")
}

// resolveRunID returns runID unchanged if non-empty, otherwise a freshly
// generated one, so a caller that never asked for publication doesn't pay
// for a uuid it will never use.
func resolveRunID(runID string) string {
	if runID != "" {
		return runID
	}
	return uuid.NewString()
}

// buildResultStore constructs the Store named by f.resultStoreKind, or nil
// if publication wasn't requested.
func buildResultStore(ctx context.Context, f publishFlags) (resultstore.Store, error) {
	var store resultstore.Store
	switch f.resultStoreKind {
	case "":
		return nil, nil
	case "s3":
		if f.resultStoreBucket == "" {
			return nil, fmt.Errorf("--result-store-bucket is required for --result-store=s3")
		}
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		store = resultstore.NewS3Store(s3.NewFromConfig(awsCfg), f.resultStoreBucket, f.resultStorePrefix)
	case "minio":
		if f.resultStoreBucket == "" {
			return nil, fmt.Errorf("--result-store-bucket is required for --result-store=minio")
		}
		client, err := minio.New(f.minioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(f.minioAccessKey, f.minioSecretKey, ""),
			Secure: f.minioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("build minio client: %w", err)
		}
		store = resultstore.NewMinIOStore(client, f.resultStoreBucket, f.resultStorePrefix)
	default:
		return nil, fmt.Errorf("unknown --result-store kind %q (want s3 or minio)", f.resultStoreKind)
	}

	if f.resultStoreRate > 0 {
		store = resultstore.NewRateLimited(store, f.resultStoreRate, f.resultStoreBurst)
	}
	return store, nil
}

// buildLedger constructs the Ledger named by f.ledgerKind, or nil if
// recording wasn't requested.
func buildLedger(ctx context.Context, f publishFlags) (ledger.Ledger, error) {
	var l ledger.Ledger
	switch f.ledgerKind {
	case "":
		return nil, nil
	case "dynamodb":
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		l = ledger.NewDynamoDBLedger(dynamodb.NewFromConfig(awsCfg), f.ledgerTable)
	default:
		return nil, fmt.Errorf("unknown --ledger kind %q (want dynamodb)", f.ledgerKind)
	}

	if f.ledgerRate > 0 {
		l = ledger.NewRateLimited(l, f.ledgerRate, f.ledgerBurst)
	}
	return l, nil
}
