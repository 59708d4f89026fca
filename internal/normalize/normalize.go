// Package normalize maps raw upstream product records onto domain.Product.
//
// Product is a total function: any record, including an empty or partial one,
// yields a fully populated Product. Malformed fields fall back to the defaults
// below instead of failing.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/liliang-cn/smartsearch/internal/domain"
)

// Defaults applied when an upstream field is missing or unusable
const (
	IDPrefix         = "product-"
	DefaultName      = "Unknown Product"
	DefaultRating    = 4.0
	MaxRating        = 5.0
	DefaultSource    = "walmart"
	PlaceholderImage = "https://images.pexels.com/photos/3394650/pexels-photo-3394650.jpeg?auto=compress&cs=tinysrgb&w=400"
	MaxDiscount      = 100
)

var (
	nonDecimal = regexp.MustCompile(`[^0-9.]`)
	nonDigit   = regexp.MustCompile(`[^0-9]`)
	leadingNum = regexp.MustCompile(`\d*\.?\d+`)
)

// Product converts one upstream record. index is the record's position in its
// batch and is only used to synthesize an id when the record has none.
func Product(raw domain.UpstreamRecord, index int) domain.Product {
	p := domain.Product{
		ID:          firstString(raw, "id"),
		Name:        firstString(raw, "name", "title"),
		Price:       Price(raw["price"]),
		Rating:      Rating(raw["rating"]),
		Reviews:     Reviews(raw["reviews"]),
		Image:       firstString(raw, "image", "img_url"),
		Discount:    Discount(raw["discount"]),
		Source:      firstString(raw, "source"),
		URL:         firstString(raw, "url"),
		Description: firstString(raw, "description"),
		Currency:    firstString(raw, "currency", "currencySymbol"),
	}

	if p.ID == "" {
		p.ID = IDPrefix + strconv.Itoa(index)
	}
	if p.Name == "" {
		p.Name = DefaultName
	}
	if p.Image == "" {
		p.Image = PlaceholderImage
	}
	if p.Source == "" {
		p.Source = DefaultSource
	}

	for _, key := range []string{"original_price", "originalPrice"} {
		if v, ok := raw[key]; ok && v != nil {
			if orig := Price(v); orig > p.Price {
				p.OriginalPrice = &orig
			}
			break
		}
	}

	return p
}

// Price parses a price from a number or a string such as "$1,299.50".
// Anything unparsable is 0.
func Price(v any) float64 {
	switch val := v.(type) {
	case nil, bool:
		return 0
	case string:
		return parseDecimal(val)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0
	}
	return nonNegative(f)
}

// Rating parses a rating in [0,5]; missing or malformed input is DefaultRating.
func Rating(v any) float64 {
	var f float64
	switch val := v.(type) {
	case nil, bool:
		return DefaultRating
	case string:
		m := leadingNum.FindString(val)
		if m == "" {
			return DefaultRating
		}
		parsed, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return DefaultRating
		}
		f = parsed
	default:
		parsed, err := cast.ToFloat64E(v)
		if err != nil {
			return DefaultRating
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return DefaultRating
	}
	return math.Min(math.Max(f, 0), MaxRating)
}

// Reviews parses a review count. Strings have every non-digit removed first,
// so "1,234 reviews" is 1234.
func Reviews(v any) int {
	switch val := v.(type) {
	case nil, bool:
		return 0
	case string:
		digits := nonDigit.ReplaceAllString(val, "")
		if digits == "" {
			return 0
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			return 0
		}
		return n
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0
	}
	return clampInt(nonNegative(f))
}

// Discount parses a percentage such as 15 or "15%" and clamps it to [0,100].
func Discount(v any) int {
	f := Price(v)
	if f > MaxDiscount {
		return MaxDiscount
	}
	return int(f)
}

func parseDecimal(s string) float64 {
	clean := nonDecimal.ReplaceAllString(s, "")
	if clean == "" {
		return 0
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return nonNegative(f)
}

// clampInt converts a non-negative float, saturating at math.MaxInt
func clampInt(f float64) int {
	if f >= math.MaxInt {
		return math.MaxInt
	}
	return int(f)
}

func nonNegative(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// firstString returns the first non-blank value among keys, stringified.
func firstString(raw domain.UpstreamRecord, keys ...string) string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		if _, isBool := v.(bool); isBool {
			continue
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
