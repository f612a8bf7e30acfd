package authz

// Role names. Every user record carries exactly one.
const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleAnalyst = "analyst"
	RoleUser    = "user"
)

// Roles returns the fixed role set, broadest first.
func Roles() []string {
	return []string{RoleOwner, RoleAdmin, RoleManager, RoleAnalyst, RoleUser}
}

// defaultTables holds one immutable permission set per role. Built once at
// init and read concurrently without synchronization; DefaultPermissions
// hands out deep copies so no caller can alias into it.
var defaultTables = map[string]PermissionSet{
	RoleOwner:   ownerTable(),
	RoleAdmin:   adminTable(),
	RoleManager: managerTable(),
	RoleAnalyst: analystTable(),
	RoleUser:    userTable(),
}

// DefaultPermissions returns a copy of the role's default permission set.
// Unknown role names fall back to the user table: least privilege, not an
// error.
func DefaultPermissions(role string) PermissionSet {
	table, ok := defaultTables[role]
	if !ok {
		table = defaultTables[RoleUser]
	}
	return table.Clone()
}

// ownerTable grants every action of every module, owner-exclusive modules
// included.
func ownerTable() PermissionSet {
	table := make(PermissionSet, len(moduleActions))
	for module, actions := range moduleActions {
		set := make(ActionSet, len(actions))
		for _, action := range actions {
			set[action] = true
		}
		table[module] = set
	}
	return table
}

// adminTable grants the operational modules but withholds a short list of
// sensitive actions and omits the owner-exclusive modules entirely. The
// withheld actions are written as explicit false so the table reads as a
// statement, not an omission.
func adminTable() PermissionSet {
	return PermissionSet{
		ModuleDashboard:   {ActionRead: true, ActionWrite: true, ActionAdmin: true, ActionViewAllMetrics: true},
		ModuleTasks:       {ActionRead: true, ActionWrite: true, ActionAdmin: true, ActionManageAll: true},
		ModuleFraud:       {ActionRead: true, ActionWrite: true, ActionAdmin: true, ActionViewFinancials: true},
		ModuleAIFraud:     {ActionRead: true, ActionWrite: true, ActionAdmin: false, ActionConfigureAI: false},
		ModuleAccounting:  {ActionRead: true, ActionWrite: true, ActionAdmin: true, ActionViewFinancials: true, ActionExport: true},
		ModulePerformance: {ActionRead: true, ActionWrite: true, ActionAdmin: true, ActionViewAllMetrics: true},
		ModuleTimeline:    {ActionRead: true, ActionWrite: true, ActionAdmin: false},
		ModuleBusinessAssistant: {
			ActionRead: true, ActionWrite: true,
			ActionAdmin: false, ActionUnlimitedQueries: false,
		},
		ModuleSettings: {ActionRead: true, ActionWrite: true, ActionAdmin: true, ActionModifyTenant: false},
		ModuleBilling:  {ActionRead: true, ActionWrite: false, ActionAdmin: false},
		ModuleTeam:     {ActionRead: true, ActionWrite: true, ActionAdmin: true, ActionManageAllUsers: true},
	}
}

// managerTable is read-heavy with writes limited to day-to-day surfaces. No
// admin, manage_all or view_all_* grants of any kind.
func managerTable() PermissionSet {
	return PermissionSet{
		ModuleDashboard:         {ActionRead: true, ActionWrite: true},
		ModuleTasks:             {ActionRead: true, ActionWrite: true},
		ModuleFraud:             {ActionRead: true, ActionWrite: true, ActionViewFinancials: true},
		ModuleAIFraud:           {ActionRead: true},
		ModuleAccounting:        {ActionRead: true, ActionWrite: true, ActionViewFinancials: true, ActionExport: true},
		ModulePerformance:       {ActionRead: true, ActionWrite: true},
		ModuleTimeline:          {ActionRead: true, ActionWrite: true},
		ModuleBusinessAssistant: {ActionRead: true, ActionWrite: true},
		ModuleSettings:          {ActionRead: true},
		ModuleBilling:           {ActionRead: true},
		ModuleTeam:              {ActionRead: true, ActionWrite: true},
	}
}

// analystTable reads the analytical surfaces and writes nothing but its own
// dashboards and tasks.
func analystTable() PermissionSet {
	return PermissionSet{
		ModuleDashboard:         {ActionRead: true, ActionWrite: true},
		ModuleTasks:             {ActionRead: true, ActionWrite: true},
		ModuleFraud:             {ActionRead: true, ActionViewFinancials: true},
		ModuleAIFraud:           {ActionRead: true},
		ModuleAccounting:        {ActionRead: true, ActionViewFinancials: true},
		ModulePerformance:       {ActionRead: true},
		ModuleTimeline:          {ActionRead: true},
		ModuleBusinessAssistant: {ActionRead: true, ActionWrite: true},
		ModuleSettings:          {ActionRead: true},
		ModuleTeam:              {ActionRead: true},
	}
}

// userTable is the narrowest table and the fallback for unknown role names.
// The financial and analytical modules are written as explicit read denials
// rather than omitted.
func userTable() PermissionSet {
	return PermissionSet{
		ModuleDashboard:         {ActionRead: true},
		ModuleTasks:             {ActionRead: true, ActionWrite: true},
		ModuleFraud:             {ActionRead: false},
		ModuleAIFraud:           {ActionRead: false},
		ModuleAccounting:        {ActionRead: false},
		ModulePerformance:       {ActionRead: false},
		ModuleTimeline:          {ActionRead: false},
		ModuleBusinessAssistant: {ActionRead: true},
		ModuleSettings:          {ActionRead: true},
		ModuleTeam:              {ActionRead: true},
	}
}
