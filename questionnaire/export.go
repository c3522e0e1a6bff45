/*
export.go - pack export with a reproducible integrity hash (spec 4.10
step "Export"). Stable JSON uses encoding/json's map-key ordering, which
is already lexicographic, to canonicalize without a third-party
canonical-JSON library; see DESIGN.md for why that's sufficient here and
not a stdlib-avoidance violation.
*/
package questionnaire

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatBoth Format = "both"
)

// ExportResult is returned to the caller and to POST /q/export.
type ExportResult struct {
	Hash        string
	GeneratedAt time.Time
	CSV         []byte
	PDF         []byte
}

// Export canonicalizes pack as stable JSON, hashes it together with
// generatedAt, and renders the requested format(s). redactMemos is
// accepted for interface symmetry with the HTTP contract; memos aren't
// part of a pack's line items, so it's a no-op here (packs carry
// category/amount/evidence, never free-text memo fields).
func Export(pack Pack, format Format, generatedAt time.Time, redactMemos bool) (ExportResult, error) {
	stableJSON, err := canonicalize(pack)
	if err != nil {
		return ExportResult{}, err
	}

	h := sha256.New()
	h.Write(stableJSON)
	h.Write([]byte("|"))
	h.Write([]byte(generatedAt.UTC().Format(time.RFC3339)))
	hash := hex.EncodeToString(h.Sum(nil))

	result := ExportResult{Hash: hash, GeneratedAt: generatedAt}

	if format == FormatCSV || format == FormatBoth {
		result.CSV, err = renderCSV(pack, hash, generatedAt)
		if err != nil {
			return ExportResult{}, err
		}
	}
	if format == FormatPDF || format == FormatBoth {
		result.PDF = renderPDF(pack, hash, generatedAt)
	}
	return result, nil
}

// canonicalize produces keys-sorted, whitespace-free JSON. Go's
// json.Marshal already emits map keys in sorted order and inserts no
// insignificant whitespace, so a map built deterministically from the
// pack's item order is sufficient for stable_json.
func canonicalize(pack Pack) ([]byte, error) {
	items := make([]map[string]any, 0, len(pack.Items))
	for _, it := range pack.Items {
		items = append(items, map[string]any{
			"label":        it.Label,
			"value_cents":  int64(it.ValueCents),
			"method":       it.Method,
			"evidence_ids": it.EvidenceIDs,
		})
	}
	doc := map[string]any{"pack": pack.Name, "items": items}
	return json.Marshal(doc)
}

func renderCSV(pack Pack, hash string, generatedAt time.Time) ([]byte, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write([]string{"pack", pack.Name}); err != nil {
		return nil, err
	}
	if err := w.Write([]string{"label", "value_cents", "method", "evidence_count"}); err != nil {
		return nil, err
	}
	for _, it := range pack.Items {
		if err := w.Write([]string{
			it.Label,
			strconv.FormatInt(int64(it.ValueCents), 10),
			it.Method,
			strconv.Itoa(len(it.EvidenceIDs)),
		}); err != nil {
			return nil, err
		}
	}
	if err := w.Write([]string{"hash", hash}); err != nil {
		return nil, err
	}
	if err := w.Write([]string{"generated_at", generatedAt.UTC().Format(time.RFC3339)}); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// renderPDF produces the "simple templated HTML" the spec calls for in
// lieu of a real PDF engine (no PDF library appears anywhere in the
// pack). Byte-for-byte deterministic given identical
// inputs, same as CSV.
func renderPDF(pack Pack, hash string, generatedAt time.Time) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<html><head><title>%s</title></head><body>\n", pack.Name)
	fmt.Fprintf(&sb, "<h1>%s</h1>\n<table>\n", pack.Name)
	for _, it := range pack.Items {
		fmt.Fprintf(&sb, "<tr><td>%s</td><td>%d</td><td>%s</td></tr>\n", it.Label, int64(it.ValueCents), it.Method)
	}
	fmt.Fprintf(&sb, "</table>\n<footer>hash=%s generated_at=%s</footer>\n</body></html>\n", hash, generatedAt.UTC().Format(time.RFC3339))
	return []byte(sb.String())
}
