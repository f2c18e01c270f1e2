package db

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/redis/rueidis"
)

var _ Store = (*rueidisStore)(nil)

// rueidisStore implements Store via rueidis for Valkey and Redis 8+.
type rueidisStore struct {
	client rueidis.Client
}

func newRueidisStore(info ConnInfo) (*rueidisStore, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{info.Addr},
		Username:     info.Username,
		Password:     info.Password,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", info.Driver, err)
	}
	return &rueidisStore{client: client}, nil
}

func (s *rueidisStore) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *rueidisStore) b() rueidis.Builder {
	return s.client.B()
}

// Ping checks connectivity.
func (s *rueidisStore) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return &Error{Op: OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *rueidisStore) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or the timeout expires.
func (s *rueidisStore) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// HSet sets hash fields.
func (s *rueidisStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	cmd := s.b().Hset().Key(key).FieldValue()
	for k, v := range fields {
		cmd = cmd.FieldValue(k, v)
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &Error{Op: OpHSet, Err: err}
	}
	return nil
}

// HSetMulti stores multiple hashes in a single DoMulti round-trip.
func (s *rueidisStore) HSetMulti(ctx context.Context, items []HashSetItem) error {
	if len(items) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(items))
	for i, item := range items {
		cmd := s.b().Hset().Key(item.Key).FieldValue()
		for k, v := range item.Fields {
			cmd = cmd.FieldValue(k, v)
		}
		cmds[i] = cmd.Build()
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &Error{Op: OpHSet, Err: fmt.Errorf("key %s: %w", items[i].Key, err)}
		}
	}
	return nil
}

// HGetAll returns all fields of a hash. A missing key yields an empty map.
func (s *rueidisStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.do(ctx, s.b().Hgetall().Key(key).Build()).AsStrMap()
	if err != nil {
		return nil, &Error{Op: OpHGetAll, Err: err}
	}
	return m, nil
}

// HGetAllMulti fetches all fields for multiple hashes in one round-trip.
func (s *rueidisStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Hgetall().Key(key).Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	out := make([]map[string]string, len(results))
	for i, res := range results {
		m, err := res.AsStrMap()
		if err != nil {
			return nil, &Error{Op: OpHGetAll, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		out[i] = m
	}
	return out, nil
}

// Del removes a key.
func (s *rueidisStore) Del(ctx context.Context, key string) error {
	if err := s.do(ctx, s.b().Del().Key(key).Build()).Error(); err != nil {
		return &Error{Op: OpDel, Err: err}
	}
	return nil
}

// Get retrieves a value by key.
func (s *rueidisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.do(ctx, s.b().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrKeyNotFound
		}
		return nil, &Error{Op: OpGet, Err: err}
	}
	return data, nil
}

// Set stores a value at the given key.
func (s *rueidisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.do(ctx, s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Build()).Error(); err != nil {
		return &Error{Op: OpSet, Err: err}
	}
	return nil
}

// SetWithTTL stores a value with an expiration.
func (s *rueidisStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(ttl).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &Error{Op: OpSet, Err: err}
	}
	return nil
}

// CreateIndex creates the chunk FT index: a TEXT body field for BM25, a TAG
// document field, a NUMERIC ordinal, and an HNSW vector field.
func (s *rueidisStore) CreateIndex(ctx context.Context, def *IndexDefinition) error {
	if def.Name == "" || def.Prefix == "" {
		return fmt.Errorf("index name and prefix are required")
	}
	if def.Dimensions <= 0 {
		return fmt.Errorf("index dimensions must be positive, got %d", def.Dimensions)
	}
	metric := def.Metric
	if metric == "" {
		metric = "COSINE"
	}

	args := []string{
		def.Name, "ON", "HASH", "PREFIX", "1", def.Prefix, "SCHEMA",
		FieldBody, "TEXT",
		FieldDocument, "TAG",
		FieldSeq, "NUMERIC", "SORTABLE",
		FieldVector, "VECTOR", "HNSW", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(def.Dimensions),
		"DISTANCE_METRIC", metric,
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isFTErr(err, "index already exists") {
			return ErrIndexExists
		}
		return &Error{Op: OpCreateIndex, Err: err}
	}
	return nil
}

// IndexExists probes index existence via FT.INFO; "unknown index name"
// means absent.
func (s *rueidisStore) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isFTErr(err, "unknown index name") {
			return false, nil
		}
		return false, &Error{Op: OpIndexInfo, Err: err}
	}
	return true, nil
}

// SearchKNN runs a KNN vector similarity search via FT.SEARCH.
func (s *rueidisStore) SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error) {
	if q.Index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	queryStr := fmt.Sprintf("*=>[KNN %d @%s $BLOB AS %s]", q.K, FieldVector, FieldDistance)

	args := []string{q.Index, queryStr}
	if len(q.ReturnFields) > 0 {
		returns := append([]string{FieldDistance}, q.ReturnFields...)
		args = append(args, "RETURN", strconv.Itoa(len(returns)))
		args = append(args, returns...)
	}
	args = append(args,
		"SORTBY", FieldDistance,
		"PARAMS", "2", "BLOB", vectorToBlob(q.Vector),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &Error{Op: OpSearch, Err: err}
	}

	return parseSearchReply(raw, false)
}

// SearchBM25 runs a BM25 keyword search via FT.SEARCH.
func (s *rueidisStore) SearchBM25(ctx context.Context, q *TextQuery) (*SearchResult, error) {
	if q.Index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if q.TopK <= 0 {
		return nil, fmt.Errorf("topK must be positive")
	}

	escaped := escapeQuery(q.Query)
	if escaped == "" {
		// Query was FT syntax characters only; nothing searchable remains.
		return &SearchResult{}, nil
	}
	queryStr := fmt.Sprintf("@%s:(%s)", FieldBody, escaped)

	args := []string{q.Index, queryStr}
	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}
	args = append(args,
		"WITHSCORES",
		"LIMIT", "0", strconv.Itoa(q.TopK),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &Error{Op: OpSearch, Err: err}
	}

	return parseSearchReply(raw, true)
}

// parseSearchReply decodes a RESP2 FT.SEARCH reply:
// [total, key, (score,)? [field, value, ...], key, ...].
func parseSearchReply(raw []rueidis.RedisMessage, withScores bool) (*SearchResult, error) {
	if len(raw) == 0 {
		return &SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse search total: %w", err)
	}
	res := &SearchResult{Total: int(total)}

	i := 1
	for i < len(raw) {
		key, err := raw[i].ToString()
		if err != nil {
			return nil, fmt.Errorf("parse search key: %w", err)
		}
		i++

		entry := SearchEntry{Key: key}

		if withScores && i < len(raw) {
			scoreStr, err := raw[i].ToString()
			if err != nil {
				return nil, fmt.Errorf("parse search score: %w", err)
			}
			entry.Score, err = strconv.ParseFloat(scoreStr, 64)
			if err != nil {
				return nil, fmt.Errorf("parse search score %q: %w", scoreStr, err)
			}
			i++
		}

		if i < len(raw) {
			fieldArr, err := raw[i].ToArray()
			if err != nil {
				return nil, fmt.Errorf("parse search fields for %s: %w", key, err)
			}
			i++

			entry.Fields = make(map[string]string, len(fieldArr)/2)
			for j := 0; j+1 < len(fieldArr); j += 2 {
				f, err := fieldArr[j].ToString()
				if err != nil {
					continue
				}
				v, err := fieldArr[j+1].ToString()
				if err != nil {
					continue
				}
				entry.Fields[f] = v
			}
		}

		res.Entries = append(res.Entries, entry)
	}

	return res, nil
}

// vectorToBlob encodes a float32 vector as the little-endian byte blob
// FT.SEARCH expects.
func vectorToBlob(vec []float32) string {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return rueidis.BinaryString(buf)
}

// escapeQuery strips FT query syntax from user text so it is matched as
// plain terms.
func escapeQuery(q string) string {
	var b strings.Builder
	for _, r := range q {
		switch r {
		case '@', '{', '}', '(', ')', '[', ']', '"', '\'', '~', '*', '|', '%', '-', ':', ';', '!', '$', '=', '>', '<', ',':
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func isFTErr(err error, substr string) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), substr)
}
