// Package upload validates candidate files into a pending batch and tracks
// each item through the upload state machine.
package upload

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/kk-code-lab/rbrowse/internal/blob"
	"github.com/kk-code-lab/rbrowse/internal/remote"
	"github.com/rs/zerolog"
)

// Status is the lifecycle position of an item.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
)

// Item is one file in the batch.
type Item struct {
	ID          string
	File        File
	Preview     blob.Handle
	PreviewMIME string
	Status      Status
	Progress    int
	Error       string
}

// Uploader sends a multipart batch. *remote.Client satisfies it.
type Uploader interface {
	Upload(ctx context.Context, dest string, files []remote.UploadFile, progress remote.ProgressFunc) ([]remote.UploadResult, error)
}

// Batch is a snapshot of the items moved to uploading by Begin.
type Batch struct {
	Generation int
	Dest       string
	IDs        []string
	Files      []remote.UploadFile
}

// Summary counts the outcome of a completed batch.
type Summary struct {
	Succeeded int
	Failed    int
}

// Pipeline owns the pending batch and its preview handles.
type Pipeline struct {
	limits Limits
	blobs  *blob.Store
	log    zerolog.Logger

	mu         sync.Mutex
	items      []Item
	generation int
	inflight   []string
}

// New creates an empty pipeline. blobs may be nil to disable previews.
func New(limits Limits, blobs *blob.Store, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		limits: limits,
		blobs:  blobs,
		log:    log.With().Str("component", "upload").Logger(),
	}
}

// Limits returns the configured limits.
func (p *Pipeline) Limits() Limits {
	return p.limits
}

// Add validates each file in order against the batch as it stands, including
// files accepted earlier in the same call. Accepted files are appended as
// pending; every rejected file is reported individually.
func (p *Pipeline) Add(files ...File) []Rejection {
	var rejections []Rejection
	for _, f := range files {
		p.mu.Lock()
		err := p.validateLocked(f)
		p.mu.Unlock()
		if err != nil {
			p.log.Debug().Str("name", f.Name).Err(err).Msg("upload candidate rejected")
			rejections = append(rejections, Rejection{Name: f.Name, Err: err})
			continue
		}

		handle, mime := buildPreview(p.blobs, f)
		item := Item{
			ID:          uuid.NewString(),
			File:        f,
			Preview:     handle,
			PreviewMIME: mime,
			Status:      StatusPending,
		}

		p.mu.Lock()
		p.items = append(p.items, item)
		p.mu.Unlock()
	}
	return rejections
}

func (p *Pipeline) validateLocked(f File) error {
	var total int64
	for _, it := range p.items {
		total += it.File.Size
	}
	if err := p.limits.check(f, len(p.items), total); err != nil {
		return err
	}
	for _, it := range p.items {
		if it.Status == StatusPending && it.File.Name == f.Name && it.File.Size == f.Size {
			return ErrDuplicate
		}
	}
	return nil
}

// Items returns a snapshot of the batch in insertion order.
func (p *Pipeline) Items() []Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Item, len(p.items))
	copy(out, p.items)
	return out
}

// Len returns the number of items in the batch.
func (p *Pipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// Uploading reports whether a batch is in flight.
func (p *Pipeline) Uploading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inflight) > 0
}

// Remove drops a pending or finished item and releases its preview. Items in
// flight cannot be removed.
func (p *Pipeline) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, it := range p.items {
		if it.ID != id {
			continue
		}
		if it.Status == StatusUploading {
			return false
		}
		p.release(it)
		p.items = append(p.items[:i], p.items[i+1:]...)
		return true
	}
	return false
}

// Begin moves every pending item to uploading and returns the batch to send.
// It returns false when nothing is pending or a batch is already in flight.
func (p *Pipeline) Begin(dest string) (Batch, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.inflight) > 0 {
		return Batch{}, false
	}

	p.generation++
	batch := Batch{Generation: p.generation, Dest: dest}
	for i := range p.items {
		it := &p.items[i]
		if it.Status != StatusPending {
			continue
		}
		it.Status = StatusUploading
		it.Progress = 0
		it.Error = ""
		batch.IDs = append(batch.IDs, it.ID)
		batch.Files = append(batch.Files, it.File.toRemote())
	}
	if len(batch.IDs) == 0 {
		return Batch{}, false
	}
	p.inflight = batch.IDs
	return batch, true
}

// SetProgress records progress for the index-th file of batch generation gen.
// Stale generations are ignored.
func (p *Pipeline) SetProgress(gen, index, percent int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation || index < 0 || index >= len(p.inflight) {
		return false
	}
	it := p.find(p.inflight[index])
	if it == nil || it.Status != StatusUploading {
		return false
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	it.Progress = percent
	return true
}

// Complete applies the per-file results of batch generation gen. A batch-level
// err marks every item of the batch as failed. Results for a generation that
// was reset are dropped and ok is false.
func (p *Pipeline) Complete(gen int, results []remote.UploadResult, err error) (Summary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation || len(p.inflight) == 0 {
		return Summary{}, false
	}

	var sum Summary
	for i, id := range p.inflight {
		it := p.find(id)
		if it == nil {
			continue
		}
		it.Progress = 100
		switch {
		case err != nil:
			it.Status = StatusError
			it.Error = batchError(err)
		case i < len(results) && results[i].Success:
			it.Status = StatusSuccess
			it.Error = ""
		case i < len(results):
			it.Status = StatusError
			it.Error = results[i].Error
			if it.Error == "" {
				it.Error = "upload failed"
			}
		default:
			it.Status = StatusError
			it.Error = "no result reported by server"
		}
		if it.Status == StatusSuccess {
			sum.Succeeded++
		} else {
			sum.Failed++
		}
	}
	p.inflight = nil

	p.log.Info().Int("succeeded", sum.Succeeded).Int("failed", sum.Failed).Msg("upload batch finished")
	return sum, true
}

// Abort fails every in-flight item with reason and retires the batch, so a
// result that still arrives for it is ignored. It returns the number of
// items failed.
func (p *Pipeline) Abort(reason string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.inflight) == 0 {
		return 0
	}
	n := 0
	for _, id := range p.inflight {
		if it := p.find(id); it != nil {
			it.Status = StatusError
			it.Error = reason
			n++
		}
	}
	p.inflight = nil
	p.generation++
	p.log.Warn().Int("items", n).Str("reason", reason).Msg("upload batch aborted")
	return n
}

func batchError(err error) string {
	if remote.IsCanceled(err) {
		return "upload canceled"
	}
	if kind := remote.KindOf(err); kind != remote.KindUnknown {
		return kind.UserMessage()
	}
	return err.Error()
}

// Start sends every pending item to dest and blocks until the batch settles.
func (p *Pipeline) Start(ctx context.Context, up Uploader, dest string) (Summary, error) {
	batch, ok := p.Begin(dest)
	if !ok {
		return Summary{}, nil
	}
	results, err := up.Upload(ctx, batch.Dest, batch.Files, func(index, percent int) {
		p.SetProgress(batch.Generation, index, percent)
	})
	sum, _ := p.Complete(batch.Generation, results, err)
	return sum, err
}

// ClearCompleted removes every successful item and returns how many were removed.
func (p *Pipeline) ClearCompleted() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.items[:0]
	removed := 0
	for _, it := range p.items {
		if it.Status == StatusSuccess {
			p.release(it)
			removed++
			continue
		}
		kept = append(kept, it)
	}
	p.items = kept
	return removed
}

// Reset empties the batch and releases every preview. Results of a batch in
// flight are discarded when they arrive; bytes already sent are not undone.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, it := range p.items {
		p.release(it)
	}
	p.items = nil
	p.inflight = nil
	p.generation++
}

// Generation returns the current batch generation.
func (p *Pipeline) Generation() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

func (p *Pipeline) find(id string) *Item {
	for i := range p.items {
		if p.items[i].ID == id {
			return &p.items[i]
		}
	}
	return nil
}

func (p *Pipeline) release(it Item) {
	if p.blobs != nil {
		p.blobs.Revoke(it.Preview)
	}
}
