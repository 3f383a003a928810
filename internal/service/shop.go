package service

import (
	"strings"

	"storefront/internal/models"
)

// CategoryAll disables the category filter
const CategoryAll = "All"

const maxRelatedProducts = 3

// Categories lists the shop's category tabs in display order
func Categories() []string {
	return []string{CategoryAll, "Water Filters", "Solar Coolers", "Solar Panels", "Industrial RO Plants"}
}

// StockImage is a named image admins can pick instead of uploading
type StockImage struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

var stockImages = []StockImage{
	{Name: "RO Filter", URL: "https://images.unsplash.com/photo-1581093458791-9f302e68383e?auto=format&fit=crop&w=400&q=80"},
	{Name: "Water Cooler", URL: "https://images.unsplash.com/photo-1546552356-3fae876a61ca?auto=format&fit=crop&w=400&q=80"},
	{Name: "Solar Panel", URL: "https://images.unsplash.com/photo-1509391366360-2e959784a276?auto=format&fit=crop&w=400&q=80"},
	{Name: "Components", URL: "https://images.unsplash.com/photo-1581092580497-e0d23cbdf1dc?auto=format&fit=crop&w=400&q=80"},
	{Name: "Industrial", URL: "https://images.unsplash.com/photo-1563950708942-db5d9dcca7a7?auto=format&fit=crop&w=400&q=80"},
	{Name: "Softener", URL: "https://images.unsplash.com/photo-1521618755572-156ae0cdd74d?auto=format&fit=crop&w=400&q=80"},
	{Name: "Tech", URL: "https://images.unsplash.com/photo-1581092921461-eab62e97a780?auto=format&fit=crop&w=400&q=80"},
	{Name: "Lab", URL: "https://images.unsplash.com/photo-1532094349884-543bc11b234d?auto=format&fit=crop&w=400&q=80"},
}

// StockImages returns the stock image catalogue
func StockImages() []StockImage {
	out := make([]StockImage, len(stockImages))
	copy(out, stockImages)
	return out
}

// DefaultImageURL is used when a product has no image
func DefaultImageURL() string {
	return stockImages[0].URL
}

// ProductFilter narrows the shop listing
type ProductFilter struct {
	Category       string
	Query          string
	Recommendation *Recommendation
}

// FilterProducts applies the category filter, then either the AI
// recommendation or the text query. A recommendation wins over the query.
func FilterProducts(products []models.Product, filter ProductFilter) []models.Product {
	var recommended map[string]struct{}
	if filter.Recommendation != nil {
		recommended = make(map[string]struct{}, len(filter.Recommendation.ProductIDs))
		for _, id := range filter.Recommendation.ProductIDs {
			recommended[id] = struct{}{}
		}
	}
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	out := []models.Product{}
	for _, p := range products {
		if filter.Category != "" && filter.Category != CategoryAll && p.Category != filter.Category {
			continue
		}
		if recommended != nil {
			if _, ok := recommended[p.ID]; !ok {
				continue
			}
		} else if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// RelatedProducts returns up to three other products from the same category
func RelatedProducts(products []models.Product, product models.Product) []models.Product {
	out := []models.Product{}
	for _, p := range products {
		if p.Category != product.Category || p.ID == product.ID {
			continue
		}
		out = append(out, p)
		if len(out) == maxRelatedProducts {
			break
		}
	}
	return out
}
