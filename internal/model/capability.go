package model

// Capability represents a permission granted through a user's role
type Capability string

const (
	CapCatalogManage     Capability = "catalog:manage"
	CapItemView          Capability = "item:view"
	CapItemManage        Capability = "item:manage"
	CapTransactionView   Capability = "transaction:view"
	CapTransactionCreate Capability = "transaction:create"
	CapRequestCreate     Capability = "request:create"
	CapRequestView       Capability = "request:view"
	CapRequestProcess    Capability = "request:process"
	CapReportView        Capability = "report:view"
	CapUserManage        Capability = "user:manage"

	// CapViewAllRecords lifts the "own records only" restriction on
	// requests and transactions.
	CapViewAllRecords Capability = "records:view_all"
)

// RoleCapabilities is the fixed role → capability table.
var RoleCapabilities = map[Role][]Capability{
	RoleAdmin: {
		CapCatalogManage,
		CapItemView,
		CapItemManage,
		CapTransactionView,
		CapTransactionCreate,
		CapRequestCreate,
		CapRequestView,
		CapRequestProcess,
		CapReportView,
		CapUserManage,
		CapViewAllRecords,
	},
	RoleStaff: {
		CapItemView,
		CapTransactionView,
		CapRequestCreate,
		CapRequestView,
	},
}

// RoleHas checks if the role grants the capability
func RoleHas(role Role, c Capability) bool {
	for _, granted := range RoleCapabilities[role] {
		if granted == c {
			return true
		}
	}
	return false
}
