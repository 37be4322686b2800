// Package storage reads and writes watch status documents in OpenSearch.
package storage

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/config"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/sorting"
	"github.com/telhawk-systems/telhawk-watch/common/database"
)

// ErrInvalidTenant is returned for tenant names that cannot be part of an
// index name.
var ErrInvalidTenant = errors.New("invalid tenant")

// A hyphen inside a tenant name is never followed by a digit, so a rollover
// suffix ("-000001") cannot be mistaken for the rest of a longer tenant name.
var (
	tenantPattern     = regexp.MustCompile(`^[a-z0-9][a-z0-9_]*(-[a-z_][a-z0-9_]*)*$`)
	generationPattern = regexp.MustCompile(`^-[0-9]+$`)
)

const maxTenantLen = 63

// ValidateTenant checks that tenant is usable in an index name.
func ValidateTenant(tenant string) error {
	if len(tenant) > maxTenantLen || !tenantPattern.MatchString(tenant) {
		return fmt.Errorf("%w %q", ErrInvalidTenant, tenant)
	}
	return nil
}

// OpenSearchStore provides access to watch status documents.
type OpenSearchStore struct {
	client     *opensearch.Client
	prefix     string
	maxResults int
	timeouts   database.Timeouts
	logger     *slog.Logger
}

// NewOpenSearchStore creates a store for the configured cluster. It does not
// contact the cluster; call Ping for that.
func NewOpenSearchStore(cfg config.StorageConfig, timeouts database.Timeouts, logger *slog.Logger) (*OpenSearchStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: cfg.Insecure} //nolint:gosec // self-signed dev clusters

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10000
	}
	return &OpenSearchStore{
		client:     client,
		prefix:     cfg.IndexPrefix,
		maxResults: maxResults,
		timeouts:   timeouts,
		logger:     logger.With(slog.String("component", "status_store")),
	}, nil
}

// Ping checks that the cluster answers.
func (s *OpenSearchStore) Ping(ctx context.Context) error {
	res, err := s.client.Info(s.client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to ping opensearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("opensearch returned error: %s", res.Status())
	}
	return nil
}

// IndexName is the index status documents of tenant are written to.
func (s *OpenSearchStore) IndexName(tenant string) string {
	return s.prefix + "-watch-status-" + tenant
}

// IndexPatterns lists the write index of tenant and the wildcard for its
// rollover generations.
func (s *OpenSearchStore) IndexPatterns(tenant string) []string {
	name := s.IndexName(tenant)
	return []string{name, name + "-0*"}
}

// ownsIndex reports whether index is the tenant's write index or one of its
// rollover generations.
func (s *OpenSearchStore) ownsIndex(tenant, index string) bool {
	name := s.IndexName(tenant)
	if index == name {
		return true
	}
	rest, ok := strings.CutPrefix(index, name)
	return ok && generationPattern.MatchString(rest)
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string          `json:"_id"`
			Index  string          `json:"_index"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// FetchSources returns one partial summary set per concrete index matching
// the tenant's indices, newest generation (highest index name) first. The sort
// keys are passed along as a hint so rows usually arrive ordered already.
// Hits from indices the tenant does not own and documents that fail to decode
// are logged and skipped.
func (s *OpenSearchStore) FetchSources(ctx context.Context, tenant string, sorts []sorting.SortByField) ([][]models.WatchSummary, error) {
	if err := ValidateTenant(tenant); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"size":  s.maxResults,
	}
	if hint := sorting.ToOpenSearch(sorts); hint != nil {
		body["sort"] = hint
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search body: %w", err)
	}

	ctx, cancel := s.timeouts.QueryContext(ctx)
	defer cancel()

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.IndexPatterns(tenant)...),
		s.client.Search.WithBody(bytes.NewReader(bodyBytes)),
		s.client.Search.WithIgnoreUnavailable(true),
		s.client.Search.WithAllowNoIndices(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search watch status: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("opensearch error: %s - %s", res.Status(), string(raw))
	}

	var result searchResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	byIndex := make(map[string][]models.WatchSummary)
	for _, hit := range result.Hits.Hits {
		if !s.ownsIndex(tenant, hit.Index) {
			s.logger.WarnContext(ctx, "skipping status document from foreign index",
				slog.String("tenant", tenant), slog.String("index", hit.Index), slog.String("id", hit.ID))
			continue
		}
		var doc statusDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			s.logger.WarnContext(ctx, "skipping malformed status document",
				slog.String("index", hit.Index), slog.String("id", hit.ID), slog.String("error", err.Error()))
			continue
		}
		byIndex[hit.Index] = append(byIndex[hit.Index], doc.toSummary(hit.ID))
	}

	indices := make([]string, 0, len(byIndex))
	for index := range byIndex {
		indices = append(indices, index)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(indices)))

	sets := make([][]models.WatchSummary, len(indices))
	for i, index := range indices {
		sets[i] = byIndex[index]
	}
	return sets, nil
}

// Index bulk-writes summaries as status documents of tenant, keyed by watch
// id, and refreshes the index so they are searchable on return.
func (s *OpenSearchStore) Index(ctx context.Context, tenant string, summaries []models.WatchSummary) error {
	if err := ValidateTenant(tenant); err != nil {
		return err
	}
	if len(summaries) == 0 {
		return nil
	}

	var buf bytes.Buffer
	index := s.IndexName(tenant)
	for _, w := range summaries {
		meta := map[string]interface{}{"index": map[string]interface{}{"_index": index, "_id": w.WatchID}}
		if err := writeNDJSON(&buf, meta); err != nil {
			return err
		}
		if err := writeNDJSON(&buf, fromSummary(w)); err != nil {
			return err
		}
	}

	ctx, cancel := s.timeouts.BulkContext(ctx)
	defer cancel()

	res, err := s.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		s.client.Bulk.WithContext(ctx),
		s.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk index status documents: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return fmt.Errorf("opensearch bulk error: %s - %s", res.Status(), string(raw))
	}

	var bulk struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID    string `json:"_id"`
			Error *struct {
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulk); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if bulk.Errors {
		var failed []string
		for _, item := range bulk.Items {
			for _, op := range item {
				if op.Error != nil {
					failed = append(failed, op.ID+": "+op.Error.Reason)
				}
			}
		}
		return fmt.Errorf("bulk index rejected %d documents: %s", len(failed), strings.Join(failed, "; "))
	}
	s.logger.InfoContext(ctx, "indexed status documents",
		slog.String("index", index), slog.Int("count", len(summaries)))
	return nil
}

func writeNDJSON(buf *bytes.Buffer, v interface{}) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal bulk line: %w", err)
	}
	buf.Write(line)
	buf.WriteByte('\n')
	return nil
}
