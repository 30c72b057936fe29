package lintchecks

import (
	"bytes"
	"context"
	"fmt"
	goruntime "runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bmv-2143/lintchecks/internal/checks"
	"github.com/bmv-2143/lintchecks/internal/kotlin"
	"github.com/bmv-2143/lintchecks/internal/resource"
	"github.com/bmv-2143/lintchecks/internal/store"
)

// workItem holds one file through the pipeline. Workers only write to
// their own item; the committer reads items in path order.
type workItem struct {
	sourceFile
	fileID int64
	src    []byte

	kotlin *kotlin.File
	colors *checks.ColorBatch
	err    error // set when the file could not be read or parsed
}

// forEach calls fn for 0..n-1. In parallel mode calls run on a worker pool
// bounded by the CPU count; the first error cancels the rest.
func (e *Engine) forEach(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if !e.parallel {
		for i := range n {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(goruntime.NumCPU(), n)))
	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// prepareFiles reads every discovered file and records it in the store.
// Unreadable files stay in the list with err set.
func (e *Engine) prepareFiles(root string, files []sourceFile, now time.Time) ([]*workItem, error) {
	items := make([]*workItem, 0, len(files))
	for _, f := range files {
		item := &workItem{sourceFile: f}
		items = append(items, item)

		src, err := readFile(root, f.path)
		if err != nil {
			item.err = err
			continue
		}
		item.src = src
		fileID, err := e.store.InsertFile(&store.File{
			Path:         f.path,
			Kind:         f.kind,
			Hash:         store.ContentHash(src),
			LineCount:    bytes.Count(src, []byte{'\n'}) + 1,
			LastAnalyzed: now,
		})
		if err != nil {
			return nil, fmt.Errorf("lintchecks: record %s: %w", f.path, err)
		}
		item.fileID = fileID
	}
	return items, nil
}

// parseFiles parses code and resource files. Resource documents are
// scanned for colors immediately so only the batch is kept. Parse errors
// are recorded on the item; only cancellation aborts.
func (e *Engine) parseFiles(ctx context.Context, items []*workItem) error {
	return e.forEach(ctx, len(items), func(ctx context.Context, i int) error {
		item := items[i]
		if item.err != nil {
			return nil
		}
		switch item.kind {
		case KindKotlin:
			f, err := kotlin.Parse(ctx, item.path, item.src)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				item.err = err
				return nil
			}
			item.kotlin = f
		case KindResource:
			doc, err := resource.Parse(item.path, item.src)
			if err != nil {
				item.err = err
				return nil
			}
			item.colors = checks.ScanDocument(doc)
		}
		return nil
	})
}

// closeItems releases parse trees.
func closeItems(items []*workItem) {
	for _, item := range items {
		if item.kotlin != nil {
			item.kotlin.Close()
			item.kotlin = nil
		}
	}
}
