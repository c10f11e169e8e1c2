package models

// Action names an operation guarded by the role policy.
type Action string

const (
	ActionViewJobCards     Action = "view_jobcards"
	ActionCreateJobCard    Action = "create_jobcard"
	ActionUpdateJobCard    Action = "update_jobcard"
	ActionDeleteJobCard    Action = "delete_jobcard"
	ActionEditBilling      Action = "edit_billing"
	ActionUpdatePayment    Action = "update_payment"
	ActionViewInvoice      Action = "view_invoice"
	ActionViewInventory    Action = "view_inventory"
	ActionManageInventory  Action = "manage_inventory"
	ActionViewTechnicians  Action = "view_technicians"
	ActionViewNotification Action = "view_notifications"
)

// Permission is a single (role, action) grant.
type Permission struct {
	Role   Role
	Action Action
}

var allRoles = []Role{RoleServiceAdvisor, RoleTechnician, RoleCashier, RoleManager, RoleAdmin}

// policy is the only place role permissions are declared.
var policy = buildPolicy(map[Action][]Role{
	ActionViewJobCards:     allRoles,
	ActionViewInvoice:      allRoles,
	ActionViewInventory:    allRoles,
	ActionViewTechnicians:  allRoles,
	ActionViewNotification: allRoles,
	ActionCreateJobCard:    {RoleAdmin, RoleManager, RoleServiceAdvisor},
	ActionUpdateJobCard:    {RoleAdmin, RoleManager, RoleServiceAdvisor, RoleTechnician},
	ActionDeleteJobCard:    {RoleAdmin, RoleManager},
	ActionEditBilling:      {RoleAdmin, RoleManager, RoleCashier, RoleServiceAdvisor},
	ActionUpdatePayment:    {RoleAdmin, RoleManager, RoleCashier},
	ActionManageInventory:  {RoleAdmin, RoleManager},
})

func buildPolicy(grants map[Action][]Role) map[Permission]bool {
	p := make(map[Permission]bool)
	for action, roles := range grants {
		for _, role := range roles {
			p[Permission{Role: role, Action: action}] = true
		}
	}
	return p
}

// Allowed reports whether role may perform action.
func Allowed(role Role, action Action) bool {
	return policy[Permission{Role: role, Action: action}]
}
