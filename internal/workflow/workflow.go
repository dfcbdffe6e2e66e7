package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/asorevs/image-api-updater/internal/domain"
	"github.com/asorevs/image-api-updater/internal/skulibrary"
	apperrors "github.com/asorevs/image-api-updater/pkg/errors"
)

type State string

const (
	StateIdle          State = "Idle"
	StateRetrieved     State = "Retrieved"
	StateResolving     State = "Resolving"
	StateReadyToUpload State = "ReadyToUpload"
	StateUploading     State = "Uploading"
)

// Progress starting values, shown before the first item completes
const (
	ResolveProgressStart = 1
	UploadProgressStart  = 5
)

// Notice messages shown to the operator
const (
	MsgRetrieved      = "Products retrieved!"
	MsgRetrieveFailed = "There was an error retrieving products"
	MsgGenerated      = "5 products created!"
	MsgGenerateFailed = "There was an error creating products"
)

// Relay is the relay server API the workflow drives
type Relay interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CountProducts(ctx context.Context) (int, error)
	GenerateProducts(ctx context.Context) error
	LookupCatalog(ctx context.Context, ean string) (*skulibrary.Lookup, error)
	// UploadImages returns the decoded response even when the relay reports a failed save
	UploadImages(ctx context.Context, req domain.ImageUploadRequest) (*domain.ImageUploadResponse, error)
}

// Notice is a short, transient message for the operator
type Notice struct {
	Content string
	Error   bool
}

// SkippedLookup is a selected option the catalog had no record for
type SkippedLookup struct {
	Key   string
	EAN   string
	Label string
}

// UploadOutcome is the relay's answer for one resolved product
type UploadOutcome struct {
	Key       string
	ProductID int64
	EAN       string
	Success   bool
	Error     string
	Results   []domain.ImageUploadResult
}

// ProgressFunc receives progress percentages as a batch advances
type ProgressFunc func(percent float64)

// Workflow is the retrieve, select, resolve and upload session for one operator.
// A Workflow is not safe for concurrent use; progress values may be read
// from other goroutines.
type Workflow struct {
	relay  Relay
	queue  *Queue
	logger *zap.Logger

	state     State
	options   []domain.StoreProductOption
	byKey     map[string]int
	count     int
	selection *Selection
	resolved  []domain.ResolvedProductImages
	skipped   []SkippedLookup
	outcomes  []UploadOutcome

	lookupProgress Progress
	uploadProgress Progress
}

func New(relay Relay, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{
		relay:     relay,
		queue:     NewQueue(),
		logger:    logger,
		state:     StateIdle,
		byKey:     make(map[string]int),
		selection: NewSelection(),
	}
}

// Retrieve loads the store's products and count. On failure nothing changes.
func (w *Workflow) Retrieve(ctx context.Context) (Notice, error) {
	products, err := w.relay.ListProducts(ctx)
	if err != nil {
		w.logger.Error("Failed to retrieve products", zap.Error(err))
		return Notice{Content: MsgRetrieveFailed, Error: true}, err
	}
	count, err := w.relay.CountProducts(ctx)
	if err != nil {
		w.logger.Error("Failed to retrieve product count", zap.Error(err))
		return Notice{Content: MsgRetrieveFailed, Error: true}, err
	}

	w.options = domain.FlattenProducts(products)
	w.byKey = make(map[string]int, len(w.options))
	for i, o := range w.options {
		w.byKey[o.Key] = i
	}
	w.count = count

	// Keys are derived from product and variant ids, so selections survive a refresh
	kept := make([]string, 0, w.selection.Len())
	for _, k := range w.selection.Keys() {
		if _, ok := w.byKey[k]; ok {
			kept = append(kept, k)
		}
	}
	w.selection.SelectAll(kept)

	if w.state == StateIdle {
		w.state = StateRetrieved
	}
	w.logger.Info("Products retrieved", zap.Int("options", len(w.options)), zap.Int("count", count))
	return Notice{Content: MsgRetrieved}, nil
}

// Generate asks the relay to create the sample products and refreshes the count
func (w *Workflow) Generate(ctx context.Context) (Notice, error) {
	if err := w.relay.GenerateProducts(ctx); err != nil {
		w.logger.Error("Failed to generate products", zap.Error(err))
		return Notice{Content: MsgGenerateFailed, Error: true}, err
	}
	if count, err := w.relay.CountProducts(ctx); err == nil {
		w.count = count
	} else {
		w.logger.Warn("Failed to refresh product count", zap.Error(err))
	}
	return Notice{Content: MsgGenerated}, nil
}

// SelectAll selects every option in list order
func (w *Workflow) SelectAll() {
	keys := make([]string, len(w.options))
	for i, o := range w.options {
		keys[i] = o.Key
	}
	w.selection.SelectAll(keys)
}

// Clear empties the selection
func (w *Workflow) Clear() {
	w.selection.Clear()
}

// Toggle flips the selection of one option and reports whether it is now selected
func (w *Workflow) Toggle(key string) (bool, error) {
	if _, ok := w.byKey[key]; !ok {
		return false, &apperrors.ErrNotFound{Resource: "product option", ID: key}
	}
	return w.selection.Toggle(key), nil
}

// Resolve looks up every selected option in the catalog, one at a time and
// in selection order. Options with no catalog record are skipped. A failed
// lookup stops the batch; items resolved before it are kept.
func (w *Workflow) Resolve(ctx context.Context, onProgress ProgressFunc) ([]domain.ResolvedProductImages, error) {
	keys := w.selection.Keys()
	if len(keys) == 0 {
		return nil, &apperrors.ErrValidation{Message: "no products selected"}
	}

	w.state = StateResolving
	w.resolved = nil
	w.skipped = nil
	w.outcomes = nil
	w.lookupProgress.Reset(ResolveProgressStart)
	report(onProgress, w.lookupProgress.Value())

	for i, key := range keys {
		opt := w.options[w.byKey[key]]

		var lookup *skulibrary.Lookup
		err := w.queue.Do(ctx, func(ctx context.Context) error {
			var err error
			lookup, err = w.relay.LookupCatalog(ctx, opt.Content.EAN)
			return err
		})
		if err != nil {
			w.state = w.settledState()
			w.logger.Error("Catalog lookup failed, stopping batch",
				zap.Error(err),
				zap.String("ean", opt.Content.EAN),
				zap.Int("resolved", len(w.resolved)),
			)
			return w.Resolved(), fmt.Errorf("lookup ean %s: %w", opt.Content.EAN, err)
		}

		record, err := lookup.First()
		if err != nil {
			w.logger.Warn("No catalog record, skipping", zap.String("ean", opt.Content.EAN))
			w.skipped = append(w.skipped, SkippedLookup{Key: key, EAN: opt.Content.EAN, Label: opt.Label})
		} else {
			w.resolved = append(w.resolved, domain.ResolvedProductImages{
				Key:       key,
				ProductID: opt.Content.ProductID,
				EAN:       opt.Content.EAN,
				Label:     opt.Content.ProductTitle,
				Images:    record.Images(),
			})
		}
		report(onProgress, w.lookupProgress.Step(i+1, len(keys)))
	}

	report(onProgress, w.lookupProgress.Complete())
	w.state = w.settledState()
	return w.Resolved(), nil
}

// Upload posts the images of every resolved product, one at a time. A
// failed save is recorded and the batch continues; nothing is rolled back.
// Cancelling ctx stops the batch and keeps the outcomes so far.
func (w *Workflow) Upload(ctx context.Context, onProgress ProgressFunc) ([]UploadOutcome, error) {
	if len(w.resolved) == 0 {
		return nil, &apperrors.ErrValidation{Message: "no resolved products to upload"}
	}

	w.state = StateUploading
	w.outcomes = nil
	w.uploadProgress.Reset(UploadProgressStart)
	report(onProgress, w.uploadProgress.Value())

	for i, item := range w.resolved {
		var resp *domain.ImageUploadResponse
		err := w.queue.Do(ctx, func(ctx context.Context) error {
			var err error
			resp, err = w.relay.UploadImages(ctx, domain.ImageUploadRequest{ID: item.ProductID, Images: item.Images})
			return err
		})

		outcome := UploadOutcome{Key: item.Key, ProductID: item.ProductID, EAN: item.EAN}
		switch {
		case err != nil && ctx.Err() != nil:
			w.state = StateReadyToUpload
			return w.Outcomes(), ctx.Err()
		case err != nil:
			outcome.Error = err.Error()
		default:
			outcome.Success = resp.Success
			outcome.Results = resp.Results
			if resp.Error != nil {
				outcome.Error = *resp.Error
			}
		}
		if !outcome.Success {
			w.logger.Warn("Image upload failed", zap.Int64("product_id", item.ProductID), zap.String("ean", item.EAN), zap.String("error", outcome.Error))
		}
		w.outcomes = append(w.outcomes, outcome)
		report(onProgress, w.uploadProgress.Step(i+1, len(w.resolved)))
	}

	report(onProgress, w.uploadProgress.Complete())
	w.state = StateReadyToUpload
	return w.Outcomes(), nil
}

func (w *Workflow) settledState() State {
	if len(w.resolved) > 0 {
		return StateReadyToUpload
	}
	return StateRetrieved
}

func report(fn ProgressFunc, v float64) {
	if fn != nil {
		fn(v)
	}
}

func (w *Workflow) State() State { return w.state }

func (w *Workflow) Count() int { return w.count }

func (w *Workflow) Options() []domain.StoreProductOption {
	out := make([]domain.StoreProductOption, len(w.options))
	copy(out, w.options)
	return out
}

func (w *Workflow) Selected() []string { return w.selection.Keys() }

func (w *Workflow) Resolved() []domain.ResolvedProductImages {
	out := make([]domain.ResolvedProductImages, len(w.resolved))
	copy(out, w.resolved)
	return out
}

func (w *Workflow) Skipped() []SkippedLookup {
	out := make([]SkippedLookup, len(w.skipped))
	copy(out, w.skipped)
	return out
}

func (w *Workflow) Outcomes() []UploadOutcome {
	out := make([]UploadOutcome, len(w.outcomes))
	copy(out, w.outcomes)
	return out
}

func (w *Workflow) LookupProgress() float64 { return w.lookupProgress.Value() }

func (w *Workflow) UploadProgress() float64 { return w.uploadProgress.Value() }
