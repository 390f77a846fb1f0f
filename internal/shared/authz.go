package shared

// Core platform permissions.
const (
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"
)

// Shop permissions.
const (
	PermCustomersView = "customers.view"
	PermCustomersEdit = "customers.edit"

	PermDevicesView = "devices.view"
	PermDevicesEdit = "devices.edit"

	PermTransactionsView = "transactions.view"
	PermTransactionsEdit = "transactions.edit"

	PermReportsView = "reports.view"
)

// AllScopes lists every permission the application knows about.
func AllScopes() []string {
	return []string{
		PermUsersView,
		PermUsersEdit,
		PermRolesView,
		PermRolesEdit,
		PermCustomersView,
		PermCustomersEdit,
		PermDevicesView,
		PermDevicesEdit,
		PermTransactionsView,
		PermTransactionsEdit,
		PermReportsView,
	}
}
