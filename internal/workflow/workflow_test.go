package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asorevs/image-api-updater/internal/domain"
	"github.com/asorevs/image-api-updater/internal/skulibrary"
	apperrors "github.com/asorevs/image-api-updater/pkg/errors"
)

type fakeRelay struct {
	mu sync.Mutex

	products    []domain.Product
	count       int
	listErr     error
	countErr    error
	generateErr error

	// catalog responses by EAN; missing EANs return an empty array
	catalog   map[string]string
	lookupErr map[string]error
	lookups   []string
	inFlight  int32
	maxFlight int32

	uploadResp map[int64]*domain.ImageUploadResponse
	uploads    []domain.ImageUploadRequest
}

func (f *fakeRelay) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return f.products, f.listErr
}

func (f *fakeRelay) CountProducts(ctx context.Context) (int, error) {
	return f.count, f.countErr
}

func (f *fakeRelay) GenerateProducts(ctx context.Context) error {
	if f.generateErr == nil {
		f.count += 5
	}
	return f.generateErr
}

func (f *fakeRelay) LookupCatalog(ctx context.Context, ean string) (*skulibrary.Lookup, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		m := atomic.LoadInt32(&f.maxFlight)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxFlight, m, n) {
			break
		}
	}

	f.mu.Lock()
	f.lookups = append(f.lookups, ean)
	f.mu.Unlock()

	if err := f.lookupErr[ean]; err != nil {
		return nil, err
	}
	raw, ok := f.catalog[ean]
	if !ok {
		raw = `[]`
	}
	return skulibrary.ParseLookup(ean, []byte(raw))
}

func (f *fakeRelay) UploadImages(ctx context.Context, req domain.ImageUploadRequest) (*domain.ImageUploadResponse, error) {
	f.mu.Lock()
	f.uploads = append(f.uploads, req)
	f.mu.Unlock()
	if resp, ok := f.uploadResp[req.ID]; ok {
		return resp, nil
	}
	return &domain.ImageUploadResponse{Success: true}, nil
}

func catalogRecord(ean string) string {
	return fmt.Sprintf(`[{"FrontImage2D":"https://cdn/%[1]s/front.jpg","BackImage":"https://cdn/%[1]s/back.jpg","Size":"60 tablets"}]`, ean)
}

func newRelay() *fakeRelay {
	return &fakeRelay{
		products: []domain.Product{
			{ID: 1, Title: "Vitamin D", Variants: []domain.Variant{{ID: 11, Title: "Default Title", SKU: "META_111"}}},
			{ID: 2, Title: "Zinc", Variants: []domain.Variant{
				{ID: 21, Title: "60 tablets", SKU: "META_221"},
				{ID: 22, Title: "120 tablets", SKU: "222"},
			}},
		},
		count: 2,
		catalog: map[string]string{
			"111": catalogRecord("111"),
			"221": catalogRecord("221"),
			"222": catalogRecord("222"),
		},
	}
}

func retrieved(t *testing.T, relay *fakeRelay) *Workflow {
	t.Helper()
	w := New(relay, nil)
	notice, err := w.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Notice{Content: MsgRetrieved}, notice)
	return w
}

func TestRetrieve_FlattensVariants(t *testing.T) {
	w := retrieved(t, newRelay())

	assert.Equal(t, StateRetrieved, w.State())
	assert.Equal(t, 2, w.Count())
	opts := w.Options()
	require.Len(t, opts, 3)
	assert.Equal(t, "111 - Vitamin D ", opts[0].Label)
	assert.Equal(t, "221 - Zinc 60 tablets", opts[1].Label)
	assert.Equal(t, "222", opts[2].Content.EAN)
}

func TestRetrieve_FailureLeavesStateUnchanged(t *testing.T) {
	relay := newRelay()
	w := retrieved(t, relay)
	before := w.Options()

	relay.listErr = errors.New("relay down")
	notice, err := w.Retrieve(context.Background())
	require.Error(t, err)
	assert.Equal(t, Notice{Content: MsgRetrieveFailed, Error: true}, notice)
	assert.Equal(t, before, w.Options())
	assert.Equal(t, StateRetrieved, w.State())

	relay.listErr = nil
	relay.countErr = errors.New("count failed")
	fresh := New(relay, nil)
	notice, err = fresh.Retrieve(context.Background())
	require.Error(t, err)
	assert.True(t, notice.Error)
	assert.Equal(t, StateIdle, fresh.State())
	assert.Empty(t, fresh.Options())
}

func TestSelection_SelectAllClearIdempotent(t *testing.T) {
	w := retrieved(t, newRelay())

	w.SelectAll()
	w.SelectAll()
	assert.Len(t, w.Selected(), 3)

	w.Clear()
	assert.Empty(t, w.Selected())
	w.Clear()
	assert.Empty(t, w.Selected())
}

func TestToggle(t *testing.T) {
	w := retrieved(t, newRelay())
	key := w.Options()[1].Key

	on, err := w.Toggle(key)
	require.NoError(t, err)
	assert.True(t, on)
	on, err = w.Toggle(key)
	require.NoError(t, err)
	assert.False(t, on)
	assert.Empty(t, w.Selected())

	_, err = w.Toggle("missing")
	var nf *apperrors.ErrNotFound
	assert.True(t, errors.As(err, &nf))
}

func TestRetrieve_KeepsSelectionAcrossRefresh(t *testing.T) {
	relay := newRelay()
	w := retrieved(t, relay)
	key := w.Options()[2].Key
	_, err := w.Toggle(key)
	require.NoError(t, err)

	// Reordered listing: keys are content-derived
	relay.products[0], relay.products[1] = relay.products[1], relay.products[0]
	_, err = w.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{key}, w.Selected())
}

func TestResolve_SequentialInSelectionOrder(t *testing.T) {
	relay := newRelay()
	w := retrieved(t, relay)
	opts := w.Options()
	for _, i := range []int{2, 0, 1} {
		_, err := w.Toggle(opts[i].Key)
		require.NoError(t, err)
	}

	var progress []float64
	resolved, err := w.Resolve(context.Background(), func(p float64) { progress = append(progress, p) })
	require.NoError(t, err)

	assert.Equal(t, []string{"222", "111", "221"}, relay.lookups)
	assert.Equal(t, int32(1), atomic.LoadInt32(&relay.maxFlight))
	require.Len(t, resolved, 3)
	assert.Equal(t, "Zinc 120 tablets", resolved[0].Label)
	assert.Equal(t, int64(2), resolved[0].ProductID)
	assert.Equal(t, "https://cdn/222/front.jpg", resolved[0].Images.FrontImageURL)
	assert.Equal(t, "60 tablets", resolved[0].Images.SizeLabel)
	assert.Equal(t, StateReadyToUpload, w.State())

	require.NotEmpty(t, progress)
	assert.Equal(t, float64(ResolveProgressStart), progress[0])
	assert.Equal(t, float64(100), progress[len(progress)-1])
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1])
	}
}

func TestResolve_SkipsEmptyCatalogResults(t *testing.T) {
	relay := newRelay()
	delete(relay.catalog, "111")
	w := retrieved(t, relay)
	w.SelectAll()

	resolved, err := w.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, resolved, 2)
	skipped := w.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, "111", skipped[0].EAN)
	assert.Equal(t, float64(100), w.LookupProgress())
}

func TestResolve_TransportErrorKeepsPartialResults(t *testing.T) {
	relay := newRelay()
	relay.lookupErr = map[string]error{"221": &apperrors.ErrUpstream{Service: "relay", StatusCode: 502}}
	w := retrieved(t, relay)
	w.SelectAll()

	resolved, err := w.Resolve(context.Background(), nil)
	require.Error(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "111", resolved[0].EAN)
	assert.Equal(t, []string{"111", "221"}, relay.lookups)
	assert.Equal(t, StateReadyToUpload, w.State())
	assert.Less(t, w.LookupProgress(), float64(100))
}

func TestResolve_NothingSelected(t *testing.T) {
	w := retrieved(t, newRelay())
	_, err := w.Resolve(context.Background(), nil)
	var ve *apperrors.ErrValidation
	assert.True(t, errors.As(err, &ve))
}

func TestUpload_RecordsEachOutcome(t *testing.T) {
	relay := newRelay()
	msg := "image download failed"
	relay.uploadResp = map[int64]*domain.ImageUploadResponse{
		1: {Success: false, Error: &msg, Results: []domain.ImageUploadResult{{Image: "front", Error: msg}, {Image: "back", Success: true}}},
	}
	w := retrieved(t, relay)
	w.SelectAll()
	_, err := w.Resolve(context.Background(), nil)
	require.NoError(t, err)

	var progress []float64
	outcomes, err := w.Upload(context.Background(), func(p float64) { progress = append(progress, p) })
	require.NoError(t, err)

	require.Len(t, outcomes, 3)
	assert.False(t, outcomes[0].Success)
	assert.Equal(t, msg, outcomes[0].Error)
	assert.True(t, outcomes[1].Success)
	assert.True(t, outcomes[2].Success)
	require.Len(t, relay.uploads, 3)
	assert.Equal(t, "https://cdn/221/back.jpg", relay.uploads[1].Images.BackImageURL)

	assert.Equal(t, float64(UploadProgressStart), progress[0])
	assert.Equal(t, float64(100), progress[len(progress)-1])
	assert.Equal(t, StateReadyToUpload, w.State())
}

func TestUpload_NothingResolved(t *testing.T) {
	w := retrieved(t, newRelay())
	_, err := w.Upload(context.Background(), nil)
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	relay := newRelay()
	w := New(relay, nil)

	notice, err := w.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Notice{Content: MsgGenerated}, notice)
	assert.Equal(t, 7, w.Count())

	relay.generateErr = errors.New("boom")
	notice, err = w.Generate(context.Background())
	require.Error(t, err)
	assert.Equal(t, Notice{Content: MsgGenerateFailed, Error: true}, notice)
}

func TestQueue_OneAtATime(t *testing.T) {
	q := NewQueue()
	var inFlight, maxFlight int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Do(context.Background(), func(ctx context.Context) error {
				n := atomic.AddInt32(&inFlight, 1)
				if n > atomic.LoadInt32(&maxFlight) {
					atomic.StoreInt32(&maxFlight, n)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxFlight)
}

func TestQueue_CancelledContext(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := q.Do(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestProgress(t *testing.T) {
	var p Progress
	p.Reset(5)
	assert.Equal(t, float64(5), p.Value())
	assert.Equal(t, float64(50), p.Step(1, 2))
	assert.Equal(t, float64(50), p.Step(1, 0))
	assert.Equal(t, float64(100), p.Step(3, 2))
	p.Reset(5)
	assert.Equal(t, float64(2), p.Step(1, 50), "starting value does not mask the first item")
	p.Reset(1)
	assert.Equal(t, float64(1), p.Value())
	assert.Equal(t, float64(100), p.Complete())
}

func TestProgress_LargeBatchTracksEachItem(t *testing.T) {
	relay := &fakeRelay{catalog: map[string]string{}}
	for i := 0; i < 50; i++ {
		ean := fmt.Sprintf("%04d", i)
		relay.products = append(relay.products, domain.Product{
			ID:       int64(i + 1),
			Title:    "Product " + ean,
			Variants: []domain.Variant{{ID: int64(1000 + i), Title: "Default Title", SKU: "META_" + ean}},
		})
		relay.catalog[ean] = catalogRecord(ean)
	}
	relay.count = len(relay.products)
	w := retrieved(t, relay)
	w.SelectAll()

	var lookup []float64
	_, err := w.Resolve(context.Background(), func(p float64) { lookup = append(lookup, p) })
	require.NoError(t, err)
	require.Len(t, lookup, 52)
	assert.Equal(t, float64(ResolveProgressStart), lookup[0])
	for i := 1; i <= 50; i++ {
		assert.InDelta(t, 100*float64(i)/50, lookup[i], 1e-9)
	}

	var upload []float64
	_, err = w.Upload(context.Background(), func(p float64) { upload = append(upload, p) })
	require.NoError(t, err)
	require.Len(t, upload, 52)
	assert.Equal(t, float64(UploadProgressStart), upload[0])
	assert.Equal(t, []float64{2, 4, 6}, upload[1:4])
	for i := 1; i <= 50; i++ {
		assert.InDelta(t, 100*float64(i)/50, upload[i], 1e-9)
	}
	assert.Equal(t, float64(100), upload[51])
}
