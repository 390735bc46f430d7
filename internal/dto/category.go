package dto

// CreateCategoryRequest contains the fields of a new category; color defaults by type.
type CreateCategoryRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Type  string `json:"type" validate:"required,entry_type"`
	Color string `json:"color" validate:"omitempty,hex_color"`
}

// UpdateCategoryRequest is a partial update; nil fields are left unchanged.
type UpdateCategoryRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
	Type  *string `json:"type" validate:"omitempty,entry_type"`
	Color *string `json:"color" validate:"omitempty,hex_color"`
}

// CategoryListQuery binds GET /api/categories query parameters
type CategoryListQuery struct {
	Type string `query:"type" validate:"omitempty,entry_type"`
}
