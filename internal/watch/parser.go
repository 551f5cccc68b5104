package watch

import "strings"

// Literal availability markers embedded in the rendered product page.
const (
	inStockMarker    = "'inStock':'True'"
	outOfStockMarker = "'inStock':'False'"
)

// ParseStock inspects rendered page text for the availability markers.
// It is a pure function and total: a page exposing neither marker parses
// as StatusUnknown rather than failing. The page template is not
// self-consistent, so when both markers appear the in-stock marker wins.
func ParseStock(pageText string) Status {
	if strings.Contains(pageText, inStockMarker) {
		return StatusInStock
	}
	if strings.Contains(pageText, outOfStockMarker) {
		return StatusOutOfStock
	}
	return StatusUnknown
}
