package domain

// Role groups permissions under a name. Roles are static reference data
// seeded by migrations. Permissions and the role/permission and user/role
// joins live in the schema; repositories surface them as name strings.
type Role struct {
	ID   int64
	Name string
}

// Seeded role names.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleArtist   = "artist"
	RoleEmployee = "employee"
	RoleCustomer = "customer"
)

// Seeded permission names.
const (
	PermManageUsers          = "manage_users"
	PermViewFinancialEntries = "view_financial_entries"
	PermManageAllBlogPosts   = "manage_all_blog_posts"
	PermManageOwnBlogPosts   = "manage_own_blog_posts"
	PermManageOwnInventory   = "manage_own_inventory"
	PermViewOwnOrders        = "view_own_orders"
	PermViewProducts         = "view_products"
)
