package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/liliang-cn/smartsearch/internal/domain"
)

func formatPrice(currency string, v float64) string {
	return currency + strconv.FormatFloat(v, 'f', -1, 64)
}

func formatProduct(n int, p domain.Product) string {
	line := fmt.Sprintf("  %2d. %s  %s", n, p.Name, formatPrice(p.Currency, p.Price))
	if p.OriginalPrice != nil {
		line += fmt.Sprintf(" (was %s)", formatPrice(p.Currency, *p.OriginalPrice))
	}
	if p.Discount > 0 {
		line += fmt.Sprintf(" -%d%%", p.Discount)
	}
	line += fmt.Sprintf("  %.1f★ (%d)  [%s]", p.Rating, p.Reviews, p.Source)
	if p.URL != "" {
		line += "  " + p.URL
	}
	return line
}

func writeSearchResponse(w io.Writer, resp *domain.SearchResponse) {
	if resp.Status != domain.SearchStatusSuccess {
		fmt.Fprintf(w, "search for %q failed: %s\n", resp.Query, resp.Message)
		return
	}
	fmt.Fprintf(w, "%d result(s) for %q", resp.TotalResults, resp.Query)
	if resp.SearchTime != nil {
		fmt.Fprintf(w, " in %.2fs", *resp.SearchTime)
	}
	fmt.Fprintln(w)
	for i, p := range resp.Products {
		fmt.Fprintln(w, formatProduct(i+1, p))
	}
}

// transcriptView prints only what changed between successive session snapshots
type transcriptView struct {
	w         io.Writer
	sessionID string
	lines     int
	products  map[string]int
	closed    map[string]bool
	connected bool
	lastError string
}

func newTranscriptView(w io.Writer) *transcriptView {
	return &transcriptView{
		w:        w,
		products: make(map[string]int),
		closed:   make(map[string]bool),
	}
}

// Render writes the difference between snap and the previously rendered snapshot
func (v *transcriptView) Render(snap domain.SessionSnapshot) {
	if snap.ID != v.sessionID {
		if v.sessionID != "" {
			fmt.Fprintln(v.w, "-- session cleared --")
		}
		v.sessionID = snap.ID
		v.lines = 0
		v.products = make(map[string]int)
		v.closed = make(map[string]bool)
	}

	if snap.Connected != v.connected {
		v.connected = snap.Connected
		if snap.Connected {
			fmt.Fprintln(v.w, "* connected to backend")
		}
	}
	if snap.Error != v.lastError {
		v.lastError = snap.Error
		if snap.Error != "" {
			fmt.Fprintf(v.w, "! %s\n", snap.Error)
		}
	}

	for _, line := range snap.Transcript[min(v.lines, len(snap.Transcript)):] {
		prefix := "bot>"
		if line.Sender == domain.SenderUser {
			prefix = "you>"
		}
		fmt.Fprintf(v.w, "%s %s\n", prefix, line.Text)
	}
	v.lines = len(snap.Transcript)

	for _, b := range snap.Blocks {
		printed := v.products[b.ID]
		for i := printed; i < len(b.Products); i++ {
			fmt.Fprintln(v.w, formatProduct(i+1, b.Products[i]))
		}
		v.products[b.ID] = len(b.Products)

		if b.State == domain.BlockEmptyComplete && !v.closed[b.ID] {
			v.closed[b.ID] = true
			fmt.Fprintf(v.w, "  no products found for %q\n", b.Query)
		}
	}
}
