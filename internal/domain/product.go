package domain

// UpstreamRecord is a raw product object from the retrieval backend.
// Its shape is not stable; see the normalize package.
type UpstreamRecord map[string]any

// Product is the canonical product shape shown to users.
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Rating        float64  `json:"rating"`
	Reviews       int      `json:"reviews"`
	Image         string   `json:"image"`
	Discount      int      `json:"discount"`
	Source        string   `json:"source"`
	URL           string   `json:"url,omitempty"`
	Description   string   `json:"description,omitempty"`
	Currency      string   `json:"currency,omitempty"`
}
