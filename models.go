package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model. Roles are a many to many relation; the join rows
// live in user_roles.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName     string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName      string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Roles         []*Role    `bun:"m2m:user_roles,join:User=Role" json:"roles,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Authorities returns the names of every role assigned to the user
func (u *User) Authorities() []string {
	if u == nil || len(u.Roles) == 0 {
		return nil
	}
	out := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		if r != nil && r.Authority != "" {
			out = append(out, r.Authority)
		}
	}
	return out
}

// HasAuthority reports whether the user carries the given role
func (u *User) HasAuthority(authority string) bool {
	for _, a := range u.Authorities() {
		if a == authority {
			return true
		}
	}
	return false
}

// Role is a named permission group checked against route policy
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Authority     string    `bun:"authority,notnull,unique" json:"authority,omitempty"`
}

// UserToRole is the m2m join row between users and roles
type UserToRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:usr_rol"`
	UserID        uuid.UUID `bun:"user_id,pk,type:uuid" json:"user_id,omitempty"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	RoleID        uuid.UUID `bun:"role_id,pk,type:uuid" json:"role_id,omitempty"`
	Role          *Role     `bun:"rel:belongs-to,join:role_id=id" json:"-"`
}

// Category groups products
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:cat"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Product is a catalog entry. Categories are a many to many relation; join
// rows live in product_categories.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:prd"`
	ID            uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string      `bun:"name,notnull" json:"name,omitempty"`
	Description   string      `bun:"description" json:"description,omitempty"`
	Price         float64     `bun:"price,notnull" json:"price,omitempty"`
	ImageURL      string      `bun:"image_url" json:"image_url,omitempty"`
	Categories    []*Category `bun:"m2m:product_categories,join:Product=Category" json:"categories,omitempty"`
	CreatedAt     *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// ProductToCategory is the m2m join row between products and categories
type ProductToCategory struct {
	bun.BaseModel `bun:"table:product_categories,alias:prd_cat"`
	ProductID     uuid.UUID `bun:"product_id,pk,type:uuid" json:"product_id,omitempty"`
	Product       *Product  `bun:"rel:belongs-to,join:product_id=id" json:"-"`
	CategoryID    uuid.UUID `bun:"category_id,pk,type:uuid" json:"category_id,omitempty"`
	Category      *Category `bun:"rel:belongs-to,join:category_id=id" json:"-"`
}

// JoinModels lists every m2m join model that must be registered with bun
// before relation queries run.
func JoinModels() []any {
	return []any{
		(*UserToRole)(nil),
		(*ProductToCategory)(nil),
	}
}
