package catalog

// CategoryDTO is the wire shape of a category
type CategoryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProductDTO is the wire shape of a product including its categories
type ProductDTO struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Price       float64       `json:"price"`
	ImageURL    string        `json:"image_url,omitempty"`
	Categories  []CategoryDTO `json:"categories"`
}

// UserDTO is the wire shape of a user. The password hash never leaves the
// model layer.
type UserDTO struct {
	ID        string   `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone_number,omitempty"`
	Roles     []string `json:"roles"`
}

// NewCategoryDTO maps a category model to its wire shape
func NewCategoryDTO(c *Category) CategoryDTO {
	return CategoryDTO{
		ID:   c.ID.String(),
		Name: c.Name,
	}
}

// NewProductDTO maps a product model to its wire shape
func NewProductDTO(p *Product) ProductDTO {
	cats := make([]CategoryDTO, 0, len(p.Categories))
	for _, c := range p.Categories {
		if c != nil {
			cats = append(cats, NewCategoryDTO(c))
		}
	}

	return ProductDTO{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Categories:  cats,
	}
}

// NewUserDTO maps a user model to its wire shape
func NewUserDTO(u *User) UserDTO {
	roles := u.Authorities()
	if roles == nil {
		roles = []string{}
	}

	return UserDTO{
		ID:        u.ID.String(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Roles:     roles,
	}
}
