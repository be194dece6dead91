package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
)

// DefaultCollection is the Firestore collection holding run records
const DefaultCollection = "pipeline_runs"

// Store persists pipeline runs in Firestore, one document per run keyed by
// run ID
type Store struct {
	client     *firestore.Client
	collection string
}

// NewStore connects to Firestore in the given project
func NewStore(ctx context.Context, projectID, collection string) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("project", projectID))
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{
		client:     client,
		collection: collection,
	}, nil
}

// Close releases the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Put(ctx context.Context, run *model.PipelineRun) error {
	_, err := s.client.Collection(s.collection).Doc(run.ID).Set(ctx, run)
	if err != nil {
		return goerr.Wrap(err, "failed to store run record", goerr.V("id", run.ID))
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*model.PipelineRun, error) {
	doc, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch run record", goerr.V("id", id))
	}

	var run model.PipelineRun
	if err := doc.DataTo(&run); err != nil {
		return nil, goerr.Wrap(err, "failed to decode run record", goerr.V("id", id))
	}
	return &run, nil
}

// List returns runs ordered by start time, newest first
func (s *Store) List(ctx context.Context, limit int) ([]*model.PipelineRun, error) {
	q := s.client.Collection(s.collection).OrderBy("StartedAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var runs []*model.PipelineRun
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate run records")
		}
		var run model.PipelineRun
		if err := doc.DataTo(&run); err != nil {
			return nil, goerr.Wrap(err, "failed to decode run record", goerr.V("id", doc.Ref.ID))
		}
		runs = append(runs, &run)
	}
	return runs, nil
}

var _ interfaces.RunStore = (*Store)(nil)
