package request

// ByIDRequest is a common struct for endpoints that require an ID path parameter.
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// Validate performs custom validation for ByIDRequest.
func (r *ByIDRequest) Validate() error {
	return nil
}

// ListParams are the pagination query parameters shared by list endpoints.
type ListParams struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Normalize applies the defaults used across list endpoints.
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
}
