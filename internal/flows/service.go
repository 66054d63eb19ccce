// Package flows validates flow documents and coordinates their storage,
// caching and lifecycle events
package flows

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/selectdimensions/react-flow-testbed/internal/store"
	"github.com/selectdimensions/react-flow-testbed/internal/util"
	"github.com/selectdimensions/react-flow-testbed/pkg/api"
	"github.com/selectdimensions/react-flow-testbed/pkg/flow"
	"github.com/selectdimensions/react-flow-testbed/pkg/log"
)

type (
	// Publisher receives flow lifecycle events
	Publisher interface {
		Publish(api.EventType, api.FlowID)
	}

	// Service is the single entry point for flow operations. Records it
	// returns are shared with its cache and must be treated as read-only
	Service struct {
		store  store.Store
		events Publisher
		cache  *util.LRUCache[api.FlowID, *store.Record]
	}

	noopPublisher struct{}
)

var ErrEncodeFlow = errors.New("failed to encode flow")

// NewService creates a flow service over st. pub may be nil, in which case
// events are discarded. cacheSize bounds the snapshot cache; zero disables
// it
func NewService(st store.Store, pub Publisher, cacheSize int) *Service {
	if pub == nil {
		pub = noopPublisher{}
	}
	return &Service{
		store:  st,
		events: pub,
		cache:  util.NewLRUCache[api.FlowID, *store.Record](cacheSize),
	}
}

// ValidateFlow parses and validates JSON flow text without storing it
func (s *Service) ValidateFlow(data []byte) (*flow.Document, error) {
	return flow.Parse(data)
}

// CreateFlow validates JSON flow text and stores it as a new snapshot.
// The submitted text is kept as is, minus insignificant whitespace, so
// numbers and key order survive. Nothing is stored when validation fails;
// the *flow.ValidationError is returned as is
func (s *Service) CreateFlow(
	ctx context.Context, data []byte,
) (*store.Record, error) {
	doc, err := flow.Parse(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeFlow, err)
	}
	return s.save(ctx, doc, buf.Bytes())
}

// StoreFlow validates an already decoded flow document and stores it as a
// new snapshot
func (s *Service) StoreFlow(
	ctx context.Context, raw any,
) (*store.Record, error) {
	doc, err := flow.Validate(raw)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeFlow, err)
	}
	return s.save(ctx, doc, data)
}

// GetFlow returns the snapshot stored under id, or the most recently
// created one when id is api.LatestFlowID
func (s *Service) GetFlow(
	ctx context.Context, id api.FlowID,
) (*store.Record, error) {
	if id.IsLatest() {
		return s.store.GetLatest(ctx)
	}
	return s.cache.Get(id, func() (*store.Record, error) {
		return s.store.Get(ctx, id)
	})
}

// ListFlows summarizes every stored snapshot, newest first
func (s *Service) ListFlows(ctx context.Context) ([]*api.FlowDigest, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]*api.FlowDigest, len(recs))
	for i, rec := range recs {
		res[i] = Digest(rec)
	}
	return res, nil
}

// DeleteFlow removes the snapshot stored under id
func (s *Service) DeleteFlow(ctx context.Context, id api.FlowID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Remove(id)
	s.events.Publish(api.EventTypeFlowDeleted, id)

	slog.Info("Flow deleted",
		log.FlowID(id))
	return nil
}

// Backend names the storage engine behind the service
func (s *Service) Backend() string {
	return s.store.Backend()
}

func (s *Service) save(
	ctx context.Context, doc *flow.Document, data []byte,
) (*store.Record, error) {
	rec, err := s.store.Create(ctx, data)
	if err != nil {
		return nil, err
	}
	s.events.Publish(api.EventTypeFlowCreated, rec.ID)

	slog.Info("Flow saved",
		log.FlowID(rec.ID),
		slog.Int("nodes", len(doc.Nodes())),
		slog.Int("edges", len(doc.Edges())))
	return rec, nil
}

// Digest summarizes a stored snapshot. Counts are read from the stored text
func Digest(rec *store.Record) *api.FlowDigest {
	nodes, edges := flow.Counts(rec.Data)
	return &api.FlowDigest{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		NodeCount: nodes,
		EdgeCount: edges,
	}
}

func (noopPublisher) Publish(api.EventType, api.FlowID) {}
