package mapreduce

import (
	"errors"

	"github.com/duskraft/mrstate-go/internal/core/domain"
)

// ValueSource is the read-only view of a kvstore.Store the engine
// requires. kvstore.Store satisfies this interface.
type ValueSource interface {
	GetValues(key string) ([]int32, error)
}

// Engine runs map-reduce aggregations against a ValueSource. Engine
// holds no mutable state of its own and never mutates the source.
type Engine struct {
	source ValueSource
}

// New returns an Engine reading from source.
func New(source ValueSource) *Engine {
	return &Engine{source: source}
}

// PerformMapReduce validates mapOp and reduceOp against the fixed
// catalogs, then for each key in keys (duplicates processed
// independently, last write wins in the result):
//
//   - if the key is absent from the source, it is omitted from the result
//   - otherwise mapOp is applied to each value in order, then folded
//     with reduceOp starting from reduceOp's identity
//
// An empty keys list yields an empty result map.
func (e *Engine) PerformMapReduce(mapOp, reduceOp string, keys []string) (domain.MapReduceResult, error) {
	mfn, ok := mapCatalog[mapOp]
	if !ok {
		return nil, domain.ErrUnknownMapOp.WithDetails(mapOp)
	}
	rfn, ok := reduceCatalog[reduceOp]
	if !ok {
		return nil, domain.ErrUnknownReduceOp.WithDetails(reduceOp)
	}

	result := make(domain.MapReduceResult, len(keys))
	for _, key := range keys {
		values, err := e.source.GetValues(key)
		if err != nil {
			if errors.Is(err, domain.ErrKeyNotFound) {
				continue
			}
			return nil, err
		}

		acc := rfn.identity
		for _, v := range values {
			acc = rfn.fold(acc, mfn(v))
		}
		result[key] = acc
	}
	return result, nil
}
