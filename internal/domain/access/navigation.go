package access

// NavItem is one entry of the single-page app menu.
type NavItem struct {
	Text string `json:"text"`
	Path string `json:"path"`
}

var navigation = []struct {
	item       NavItem
	permission string
}{
	{NavItem{"Dashboard", "/"}, ViewDashboard},
	{NavItem{"Batches", "/batches"}, ViewBatches},
	{NavItem{"Daily production", "/production"}, ViewProduction},
	{NavItem{"Sales", "/sales"}, ViewSales},
	{NavItem{"Customers", "/customers"}, ViewCustomers},
	{NavItem{"Supplies", "/supplies"}, ViewSupplies},
	{NavItem{"Reports", "/reports"}, ViewReports},
	{NavItem{"Credits", "/credits"}, ViewCredits},
	{NavItem{"Users", "/users"}, ViewUsers},
	{NavItem{"Roles", "/roles"}, ViewRoles},
	{NavItem{"Egg types", "/egg-types"}, ViewEggTypes},
}

// Navigation returns the menu entries the actor may open.
func Navigation(a Actor) []NavItem {
	items := make([]NavItem, 0, len(navigation))
	for _, n := range navigation {
		if a.Can(n.permission) {
			items = append(items, n.item)
		}
	}
	return items
}
