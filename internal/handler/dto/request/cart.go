package request

type AddLineRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

// Quantity is a pointer so an explicit 0 reaches the cart and is rejected
// there with a validation error rather than by binding.
type UpdateLineRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}
