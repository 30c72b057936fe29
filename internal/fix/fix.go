// Package fix applies the text replacements attached to diagnostics.
package fix

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmv-2143/lintchecks/internal/diag"
)

// Result summarizes an Apply call.
type Result struct {
	Applied int
	Skipped int
	Files   []string
}

// Apply writes every fix in diags to the files under root. Fixes whose
// range no longer holds the expected text, or that overlap a fix already
// applied to the same file, are skipped. Files are rewritten atomically.
func Apply(root string, diags []diag.Diagnostic, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	byPath := make(map[string][]diag.TextReplacement)
	for _, d := range diags {
		if d.Fix == nil {
			continue
		}
		byPath[d.Fix.Range.Path] = append(byPath[d.Fix.Range.Path], *d.Fix)
	}
	paths := make([]string, 0, len(byPath))
	for p := range byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var res Result
	for _, p := range paths {
		full := p
		if !filepath.IsAbs(full) {
			full = filepath.Join(root, p)
		}
		src, err := os.ReadFile(full)
		if err != nil {
			return res, fmt.Errorf("fix: reading %s: %w", p, err)
		}
		out, applied, skipped := Rewrite(src, byPath[p])
		res.Skipped += skipped
		if skipped > 0 {
			logger.Warn("fix: skipped replacements", "path", p, "count", skipped)
		}
		if applied == 0 {
			continue
		}
		if err := writeFileAtomic(full, out); err != nil {
			return res, fmt.Errorf("fix: writing %s: %w", p, err)
		}
		res.Applied += applied
		res.Files = append(res.Files, p)
	}
	return res, nil
}

// Rewrite applies reps to src back to front and returns the new content
// with the number of replacements applied and skipped. src is not modified.
func Rewrite(src []byte, reps []diag.TextReplacement) ([]byte, int, int) {
	sorted := append([]diag.TextReplacement(nil), reps...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Range.StartByte > sorted[j].Range.StartByte
	})

	out := append([]byte(nil), src...)
	applied, skipped := 0, 0
	limit := len(src)
	for _, r := range sorted {
		start, end := r.Range.StartByte, r.Range.EndByte
		switch {
		case start < 0 || end < start || end > len(src):
			skipped++
			continue
		case end > limit:
			skipped++ // overlaps a later replacement
			continue
		case !bytes.Equal(src[start:end], []byte(r.Old)):
			skipped++
			continue
		}
		out = append(out[:start:start], append([]byte(r.New), out[end:]...)...)
		limit = start
		applied++
	}
	return out, applied, skipped
}

func writeFileAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, info.Mode().Perm()); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
