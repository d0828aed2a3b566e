package enums

// ProductType distinguishes fixed-value products from variable-value
// products where the terminal supplies the amount.
type ProductType string

const (
	ProductFixed    ProductType = "fixed"
	ProductVariable ProductType = "variable"
)
