package kroger

import "encoding/json"

type Price struct {
	Regular float64 `json:"regular"`
	Promo   float64 `json:"promo"`
}

type Item struct {
	ItemID string `json:"itemId"`
	Size   string `json:"size"`
	Price  *Price `json:"price,omitempty"`
}

// Product is the subset of the product API record this service reads. Raw holds the
// full record as returned so it can be cached without loss.
type Product struct {
	ProductID   string          `json:"productId"`
	UPC         string          `json:"upc"`
	Brand       string          `json:"brand"`
	Description string          `json:"description"`
	Items       []Item          `json:"items"`
	Raw         json.RawMessage `json:"-"`
}

func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*p = Product(out)
	p.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// RegularPrice returns the first item's regular price, or 0 when none is listed.
func (p *Product) RegularPrice() float64 {
	for _, item := range p.Items {
		if item.Price != nil {
			return item.Price.Regular
		}
	}
	return 0
}

type searchResponse struct {
	Data []Product `json:"data"`
}
