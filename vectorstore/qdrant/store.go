// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package qdrant implements the vector store over the Qdrant gRPC API.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/vectorstore"
)

const (
	// DefaultAddress is the Qdrant gRPC endpoint.
	DefaultAddress = "localhost:6334"

	// DefaultCollection is the collection name used when none is configured.
	DefaultCollection = "documents"

	// upsertBatchSize bounds the number of points per upsert request.
	upsertBatchSize = 100
)

// Ensure Store satisfies the interface.
var _ vectorstore.Store = (*Store)(nil)

// Store persists embedded chunks in a Qdrant collection.
type Store struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	collection  string
	logger      *slog.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithCollection sets the collection name.
// Default is "documents".
func WithCollection(name string) Option {
	return func(s *Store) error {
		if name == "" {
			return fmt.Errorf("collection name must not be empty")
		}
		s.collection = name
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewStore connects to the Qdrant instance at address ("host:port").
func NewStore(address string, opts ...Option) (*Store, error) {
	if address == "" {
		address = DefaultAddress
	}

	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s: %w", address, err)
	}

	s := &Store{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
		collection:  DefaultCollection,
		logger:      slog.Default().With("component", "qdrant"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return s, nil
}

// EnsureCollection creates the collection with cosine distance if it does
// not exist, and verifies the dimension when it does.
func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension %d", dimension)
	}

	list, err := s.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	for _, col := range list.GetCollections() {
		if col.GetName() != s.collection {
			continue
		}
		return s.checkDimension(ctx, dimension)
	}

	s.logger.Info("creating collection",
		"collection", s.collection, "dimension", dimension)

	_, err = s.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     uint64(dimension),
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}
	return nil
}

// checkDimension compares the live collection's vector size against the
// embedder's dimension. A mismatch means the collection was populated with
// a different model and must not be written to.
func (s *Store) checkDimension(ctx context.Context, dimension int) error {
	info, err := s.collections.Get(ctx, &qdrantclient.GetCollectionInfoRequest{
		CollectionName: s.collection,
	})
	if err != nil {
		return fmt.Errorf("get collection %s: %w", s.collection, err)
	}

	size := info.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	if size != 0 && size != uint64(dimension) {
		return fmt.Errorf("%w: collection %s has dimension %d, embedder produces %d",
			vectorstore.ErrDimensionMismatch, s.collection, size, dimension)
	}
	return nil
}

// Upsert writes points in batches of at most 100.
func (s *Store) Upsert(ctx context.Context, points []vectorstore.Point) error {
	for start := 0; start < len(points); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(points))

		batch := make([]*qdrantclient.PointStruct, 0, end-start)
		for _, p := range points[start:end] {
			if len(p.Vector) == 0 {
				return fmt.Errorf("%w: point %s", vectorstore.ErrEmptyVector, p.ID)
			}
			batch = append(batch, toPointStruct(p))
		}

		_, err := s.points.Upsert(ctx, &qdrantclient.UpsertPoints{
			CollectionName: s.collection,
			Points:         batch,
		})
		if err != nil {
			return fmt.Errorf("upsert %d points: %w", len(batch), err)
		}
		s.logger.Debug("upserted batch", "points", len(batch))
	}
	return nil
}

// Search runs a cosine similarity query filtered to the given department.
func (s *Store) Search(ctx context.Context, vector []float32, department string, limit int) ([]vectorstore.Hit, error) {
	if len(vector) == 0 {
		return nil, vectorstore.ErrEmptyVector
	}

	resp, err := s.points.Search(ctx, &qdrantclient.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		Filter:         departmentFilter(department),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("search collection %s: %w", s.collection, err)
	}

	hits := make([]vectorstore.Hit, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		hits = append(hits, vectorstore.Hit{
			ID:      point.GetId().GetUuid(),
			Score:   point.GetScore(),
			Payload: fromPayload(point.GetPayload()),
		})
	}
	return hits, nil
}

// DeleteBySource removes every point whose payload source matches.
func (s *Store) DeleteBySource(ctx context.Context, source string) error {
	_, err := s.points.Delete(ctx, &qdrantclient.DeletePoints{
		CollectionName: s.collection,
		Points: &qdrantclient.PointsSelector{
			PointsSelectorOneOf: &qdrantclient.PointsSelector_Filter{
				Filter: keywordFilter("source", source),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete points for source %s: %w", source, err)
	}
	return nil
}

// Close closes the gRPC connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func departmentFilter(department string) *qdrantclient.Filter {
	return keywordFilter("department", core.NormalizeDepartment(department))
}

func keywordFilter(key, value string) *qdrantclient.Filter {
	return &qdrantclient.Filter{
		Must: []*qdrantclient.Condition{
			{
				ConditionOneOf: &qdrantclient.Condition_Field{
					Field: &qdrantclient.FieldCondition{
						Key: key,
						Match: &qdrantclient.Match{
							MatchValue: &qdrantclient.Match_Keyword{Keyword: value},
						},
					},
				},
			},
		},
	}
}

func toPointStruct(p vectorstore.Point) *qdrantclient.PointStruct {
	return &qdrantclient.PointStruct{
		Id: &qdrantclient.PointId{
			PointIdOptions: &qdrantclient.PointId_Uuid{Uuid: p.ID},
		},
		Vectors: &qdrantclient.Vectors{
			VectorsOptions: &qdrantclient.Vectors_Vector{
				Vector: &qdrantclient.Vector{Data: p.Vector},
			},
		},
		Payload: map[string]*qdrantclient.Value{
			"text":       {Kind: &qdrantclient.Value_StringValue{StringValue: p.Payload.Text}},
			"source":     {Kind: &qdrantclient.Value_StringValue{StringValue: p.Payload.Source}},
			"page":       {Kind: &qdrantclient.Value_IntegerValue{IntegerValue: int64(p.Payload.Page)}},
			"department": {Kind: &qdrantclient.Value_StringValue{StringValue: p.Payload.Department}},
		},
	}
}

func fromPayload(payload map[string]*qdrantclient.Value) vectorstore.Payload {
	return vectorstore.Payload{
		Text:       payload["text"].GetStringValue(),
		Source:     payload["source"].GetStringValue(),
		Page:       int(payload["page"].GetIntegerValue()),
		Department: payload["department"].GetStringValue(),
	}
}
