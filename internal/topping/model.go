package topping

// Topping is a single add-on inside a group.
type Topping struct {
	ID        int64  `json:"id" db:"id"`
	GroupID   int64  `json:"group_id" db:"group_id"`
	Name      string `json:"name" db:"name"`
	Price     int64  `json:"extra_price" db:"extra_price"`
	Available bool   `json:"available" db:"available"`
}

// Group is a topping group as configured for one product, with the selection
// bounds that apply to that product.
type Group struct {
	ID            int64     `json:"group_id"`
	Name          string    `json:"group_name"`
	MinSelections int       `json:"min_selections"`
	MaxSelections int       `json:"max_selections"`
	Toppings      []Topping `json:"toppings"`
}

// Selected is the frozen copy of a chosen topping stored on an order line.
type Selected struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}
