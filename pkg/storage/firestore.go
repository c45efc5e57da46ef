package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/chargecost/chargecost/pkg/log"
	"github.com/chargecost/chargecost/pkg/types"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const runsCollection = "runs"

// FirestoreProvider implements the Database interface using Google Cloud
// Firestore. Runs are stored one document per run in the "runs" collection.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// Project ID verification could be here, but we allow empty if inferred.
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// SaveRun stores the run as a JSON blob keyed by run ID. Started is kept as
// a real field so queries can order runs without decoding payloads.
func (f *FirestoreProvider) SaveRun(ctx context.Context, run types.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run ID cannot be empty")
	}

	jsonBytes, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	_, err = f.client.Collection(runsCollection).Doc(run.ID).Set(ctx, map[string]interface{}{
		"json":    string(jsonBytes),
		"started": run.Started,
	})
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (f *FirestoreProvider) GetRun(ctx context.Context, id string) (types.Run, error) {
	if id == "" {
		return types.Run{}, fmt.Errorf("run ID cannot be empty")
	}

	doc, err := f.client.Collection(runsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Run{}, ErrRunNotFound
		}
		return types.Run{}, fmt.Errorf("failed to fetch run doc: %w", err)
	}
	return decodeRunDoc(ctx, doc)
}

// GetLatestRun retrieves the most recently started run.
func (f *FirestoreProvider) GetLatestRun(ctx context.Context) (types.Run, error) {
	iter := f.client.Collection(runsCollection).
		OrderBy("started", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return types.Run{}, ErrRunNotFound
	}
	if err != nil {
		return types.Run{}, fmt.Errorf("error querying latest run: %w", err)
	}
	return decodeRunDoc(ctx, doc)
}

// ListRuns retrieves up to limit runs, most recently started first.
func (f *FirestoreProvider) ListRuns(ctx context.Context, limit int) ([]types.Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	iter := f.client.Collection(runsCollection).
		OrderBy("started", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var runs []types.Run
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating runs: %w", err)
		}

		run, err := decodeRunDoc(ctx, doc)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func decodeRunDoc(ctx context.Context, doc *firestore.DocumentSnapshot) (types.Run, error) {
	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "run doc missing json", slog.String("runID", doc.Ref.ID), slog.Any("err", err))
		return types.Run{}, fmt.Errorf("run document %s missing 'json' field: %w", doc.Ref.ID, err)
	}

	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "run doc json not string", slog.String("runID", doc.Ref.ID))
		return types.Run{}, fmt.Errorf("run document %s 'json' field is not a string", doc.Ref.ID)
	}

	var run types.Run
	if err := json.Unmarshal([]byte(jsonStr), &run); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal run json", slog.String("runID", doc.Ref.ID), slog.Any("err", err))
		return types.Run{}, fmt.Errorf("failed to unmarshal run json: %w", err)
	}
	return run, nil
}
