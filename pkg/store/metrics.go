package store

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	concurrentOperations = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "store_concurrent_operations",
			Help: "Number of concurrent backing store operations",
		},
		[]string{"operation", "store_type"},
	)
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Total number of backing store operations",
		},
		[]string{"operation", "store_type", "success"},
	)
)

// MetricsStore decorates a Store with prometheus instrumentation. Every
// fetch operation is counted and tracked for concurrency under the given
// store type label.
type MetricsStore struct {
	store     Store
	storeType string
}

var _ Store = (*MetricsStore)(nil)

func NewMetricsStore(store Store, storeType string) *MetricsStore {
	return &MetricsStore{store: store, storeType: storeType}
}

func (m *MetricsStore) InnerStore() Store {
	return m.store
}

func (m *MetricsStore) observe(operation string) func(err error) {
	concurrentOperations.WithLabelValues(operation, m.storeType).Inc()
	return func(err error) {
		concurrentOperations.WithLabelValues(operation, m.storeType).Dec()
		success := "true"
		if err != nil {
			success = "false"
		}
		operationsTotal.WithLabelValues(operation, m.storeType, success).Inc()
	}
}

func (m *MetricsStore) GetRootTree(ctx context.Context, rootID RootID) (res *RootTreeResult, err error) {
	done := m.observe("get_root_tree")
	defer func() { done(err) }()
	return m.store.GetRootTree(ctx, rootID)
}

func (m *MetricsStore) GetTree(ctx context.Context, id ObjectID) (res *TreeResult, err error) {
	done := m.observe("get_tree")
	defer func() { done(err) }()
	return m.store.GetTree(ctx, id)
}

func (m *MetricsStore) GetBlob(ctx context.Context, id ObjectID) (blob *Blob, err error) {
	done := m.observe("get_blob")
	defer func() { done(err) }()
	return m.store.GetBlob(ctx, id)
}

func (m *MetricsStore) GetBlobMetadata(ctx context.Context, id ObjectID) (meta *BlobMetadata, err error) {
	done := m.observe("get_blob_metadata")
	defer func() { done(err) }()
	return m.store.GetBlobMetadata(ctx, id)
}

func (m *MetricsStore) GetTreeEntryForObjectID(ctx context.Context, id ObjectID, kind ObjectKind) (entry *TreeEntry, err error) {
	done := m.observe("get_tree_entry")
	defer func() { done(err) }()
	return m.store.GetTreeEntryForObjectID(ctx, id, kind)
}

func (m *MetricsStore) PrefetchBlobs(ctx context.Context, ids []ObjectID) (err error) {
	done := m.observe("prefetch_blobs")
	defer func() { done(err) }()
	return m.store.PrefetchBlobs(ctx, ids)
}

func (m *MetricsStore) CompareObjectsByID(a, b ObjectID) (ObjectComparison, error) {
	return m.store.CompareObjectsByID(a, b)
}

func (m *MetricsStore) ParseRootID(printed string) (RootID, error) {
	return m.store.ParseRootID(printed)
}

func (m *MetricsStore) RenderRootID(rootID RootID) (string, error) {
	return m.store.RenderRootID(rootID)
}

func (m *MetricsStore) ParseObjectID(printed string) (ObjectID, error) {
	return m.store.ParseObjectID(printed)
}

func (m *MetricsStore) RenderObjectID(id ObjectID) (string, error) {
	return m.store.RenderObjectID(id)
}

func (m *MetricsStore) ImportManifestForRoot(ctx context.Context, rootID RootID, manifest Hash20) (err error) {
	done := m.observe("import_manifest")
	defer func() { done(err) }()
	return m.store.ImportManifestForRoot(ctx, rootID, manifest)
}

func (m *MetricsStore) RepoName() (string, bool) {
	return m.store.RepoName()
}

func (m *MetricsStore) StartRecordingFetch() {
	m.store.StartRecordingFetch()
}

func (m *MetricsStore) StopRecordingFetch() []string {
	return m.store.StopRecordingFetch()
}

func (m *MetricsStore) PeriodicManagementTask() {
	m.store.PeriodicManagementTask()
}
