// Package feeds adapts raw upstream JSON into TokenSignals. Each adapter
// owns a disjoint metric subtree: trending carries market data, social
// carries mention metrics, ranking carries rank movement. Payloads are
// schema-validated before a single field is read.
package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	"solhelm/internal/signal"
)

// RawSource fetches one raw JSON payload from an upstream feed.
type RawSource interface {
	Fetch(ctx context.Context) (string, error)
}

// SignalFeed is one adapted upstream feed.
type SignalFeed interface {
	Name() string
	Fetch(ctx context.Context) ([]signal.TokenSignal, error)
	LastSuccess() time.Time
}

func compileSchema(name, raw string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("feeds: bad %s schema resource: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("feeds: compiling %s schema: %v", name, err))
	}
	return schema
}

// baseFeed holds the shared fetch-validate-parse pipeline.
type baseFeed struct {
	name   string
	source RawSource
	schema *jsonschema.Schema
	parse  func(parsed gjson.Result) []signal.TokenSignal

	mu          sync.Mutex
	lastSuccess time.Time
}

func (f *baseFeed) Name() string { return f.name }

func (f *baseFeed) LastSuccess() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSuccess
}

func (f *baseFeed) Fetch(ctx context.Context) ([]signal.TokenSignal, error) {
	raw, err := f.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s feed: fetch: %w", f.name, err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%s feed: empty payload", f.name)
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%s feed: invalid json", f.name)
	}
	var doc interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%s feed: decode: %w", f.name, err)
	}
	if err := f.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%s feed: schema: %w", f.name, err)
	}
	out := f.parse(gjson.Parse(raw))
	f.mu.Lock()
	f.lastSuccess = time.Now()
	f.mu.Unlock()
	return out, nil
}
