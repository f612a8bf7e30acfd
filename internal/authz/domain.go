package authz

// Module names a functional area of the product. The set is closed and known
// at build time.
type Module string

// Action names a capability inside a module. Each module defines its own
// action vocabulary; grants are plain booleans.
type Action string

// Product modules.
const (
	ModuleDashboard         Module = "dashboard"
	ModuleTasks             Module = "tasks"
	ModuleFraud             Module = "fraud"
	ModuleAIFraud           Module = "aiFraud"
	ModuleAccounting        Module = "accounting"
	ModulePerformance       Module = "performance"
	ModuleTimeline          Module = "timeline"
	ModuleBusinessAssistant Module = "businessAssistant"
	ModuleSettings          Module = "settings"
	ModuleBilling           Module = "billing"
	ModuleTeam              Module = "team"
)

// Owner-exclusive modules. Only the owner default table carries these.
const (
	ModuleImpersonate Module = "impersonate"
	ModuleTenantMgmt  Module = "tenant_management"
	ModuleUserMgmt    Module = "user_management"
	ModuleSystemAdmin Module = "system_administration"
	ModuleDataAccess  Module = "data_access"
)

// Common actions.
const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
	ActionAdmin Action = "admin"
)

// Module-specific actions.
const (
	ActionManageAll        Action = "manage_all"
	ActionManageAllUsers   Action = "manage_all_users"
	ActionViewFinancials   Action = "view_financials"
	ActionViewAllMetrics   Action = "view_all_metrics"
	ActionViewAllData      Action = "view_all_data"
	ActionConfigureAI      Action = "configure_ai"
	ActionUnlimitedQueries Action = "unlimited_queries"
	ActionModifyTenant     Action = "modify_tenant"
	ActionExport           Action = "export"
)

// ActionSet maps actions to grants. Absent keys mean not granted.
type ActionSet map[Action]bool

// PermissionSet maps modules to their action grants. Absent modules mean
// nothing in them is granted.
type PermissionSet map[Module]ActionSet

// Allows reports whether the set grants module.action. Absent module or
// action keys read as false through the map zero values, so the predicate is
// exact-match and default-deny. No hierarchy: admin does not imply read.
func (ps PermissionSet) Allows(module Module, action Action) bool {
	return ps[module][action]
}

// Clone returns a deep copy. Callers receive copies of the default table so
// mutating a lookup result cannot corrupt shared state.
func (ps PermissionSet) Clone() PermissionSet {
	out := make(PermissionSet, len(ps))
	for module, actions := range ps {
		out[module] = actions.clone()
	}
	return out
}

func (as ActionSet) clone() ActionSet {
	out := make(ActionSet, len(as))
	for action, granted := range as {
		out[action] = granted
	}
	return out
}

// moduleActions is the full action vocabulary per module.
var moduleActions = map[Module][]Action{
	ModuleDashboard:         {ActionRead, ActionWrite, ActionAdmin, ActionViewAllMetrics},
	ModuleTasks:             {ActionRead, ActionWrite, ActionAdmin, ActionManageAll},
	ModuleFraud:             {ActionRead, ActionWrite, ActionAdmin, ActionViewFinancials},
	ModuleAIFraud:           {ActionRead, ActionWrite, ActionAdmin, ActionConfigureAI},
	ModuleAccounting:        {ActionRead, ActionWrite, ActionAdmin, ActionViewFinancials, ActionExport},
	ModulePerformance:       {ActionRead, ActionWrite, ActionAdmin, ActionViewAllMetrics},
	ModuleTimeline:          {ActionRead, ActionWrite, ActionAdmin},
	ModuleBusinessAssistant: {ActionRead, ActionWrite, ActionAdmin, ActionUnlimitedQueries},
	ModuleSettings:          {ActionRead, ActionWrite, ActionAdmin, ActionModifyTenant},
	ModuleBilling:           {ActionRead, ActionWrite, ActionAdmin},
	ModuleTeam:              {ActionRead, ActionWrite, ActionAdmin, ActionManageAllUsers},
	ModuleImpersonate:       {ActionRead, ActionWrite, ActionAdmin},
	ModuleTenantMgmt:        {ActionRead, ActionWrite, ActionAdmin},
	ModuleUserMgmt:          {ActionRead, ActionWrite, ActionAdmin},
	ModuleSystemAdmin:       {ActionRead, ActionWrite, ActionAdmin},
	ModuleDataAccess:        {ActionRead, ActionWrite, ActionAdmin, ActionViewAllData},
}

// Modules returns every known module.
func Modules() []Module {
	out := make([]Module, 0, len(moduleActions))
	for module := range moduleActions {
		out = append(out, module)
	}
	return out
}

// ActionsFor returns the action vocabulary of a module.
func ActionsFor(module Module) []Action {
	return moduleActions[module]
}
