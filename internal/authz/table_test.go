package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOwnerGrantsEveryKnownAction(t *testing.T) {
	owner := DefaultPermissions(RoleOwner)
	for _, module := range Modules() {
		for _, action := range ActionsFor(module) {
			if !owner.Allows(module, action) {
				t.Fatalf("owner should allow %s.%s", module, action)
			}
		}
	}
}

func TestDefaultTablesStayWithinVocabulary(t *testing.T) {
	for _, role := range Roles() {
		table := DefaultPermissions(role)
		for module, actions := range table {
			known := moduleActions[module]
			if known == nil {
				t.Fatalf("role %s references unknown module %s", role, module)
			}
			for action := range actions {
				found := false
				for _, candidate := range known {
					if candidate == action {
						found = true
						break
					}
				}
				if !found {
					t.Fatalf("role %s grants unknown action %s.%s", role, module, action)
				}
			}
		}
	}
}

func TestAdminSensitiveDenials(t *testing.T) {
	admin := DefaultPermissions(RoleAdmin)
	denied := []struct {
		module Module
		action Action
	}{
		{ModuleAIFraud, ActionAdmin},
		{ModuleAIFraud, ActionConfigureAI},
		{ModuleTimeline, ActionAdmin},
		{ModuleBusinessAssistant, ActionAdmin},
		{ModuleBusinessAssistant, ActionUnlimitedQueries},
		{ModuleSettings, ActionModifyTenant},
		{ModuleBilling, ActionWrite},
		{ModuleBilling, ActionAdmin},
	}
	for _, d := range denied {
		if admin.Allows(d.module, d.action) {
			t.Fatalf("admin must not have %s.%s", d.module, d.action)
		}
	}
	ownerOnly := []Module{ModuleImpersonate, ModuleTenantMgmt, ModuleUserMgmt, ModuleSystemAdmin, ModuleDataAccess}
	for _, module := range ownerOnly {
		if _, present := admin[module]; present {
			t.Fatalf("admin table must omit owner-exclusive module %s", module)
		}
	}
}

func TestLowerRolesCarryNoElevatedFlags(t *testing.T) {
	elevated := map[Action]bool{
		ActionAdmin:          true,
		ActionManageAll:      true,
		ActionManageAllUsers: true,
		ActionViewAllMetrics: true,
		ActionViewAllData:    true,
	}
	for _, role := range []string{RoleManager, RoleAnalyst, RoleUser} {
		table := DefaultPermissions(role)
		for module, actions := range table {
			for action := range actions {
				if elevated[action] {
					t.Fatalf("role %s must not carry %s.%s", role, module, action)
				}
			}
		}
	}
}

func TestUserRoleExplicitDenials(t *testing.T) {
	user := DefaultPermissions(RoleUser)
	for _, module := range []Module{ModuleFraud, ModuleAIFraud, ModuleAccounting, ModulePerformance, ModuleTimeline} {
		actions, present := user[module]
		if !present {
			t.Fatalf("user table must carry explicit denial for %s", module)
		}
		if actions[ActionRead] {
			t.Fatalf("user must not read %s", module)
		}
		if user.Allows(module, ActionRead) {
			t.Fatalf("user read on %s must be denied", module)
		}
	}
}

func TestUnknownRoleFallsBackToUserTable(t *testing.T) {
	require.Equal(t, DefaultPermissions(RoleUser), DefaultPermissions("bogus"))
	require.Equal(t, DefaultPermissions(RoleUser), DefaultPermissions(""))
}

func TestDefaultTableCannotBeMutatedThroughLookups(t *testing.T) {
	first := DefaultPermissions(RoleManager)
	first[ModuleBilling][ActionWrite] = true
	first[ModuleImpersonate] = ActionSet{ActionAdmin: true}

	second := DefaultPermissions(RoleManager)
	if second.Allows(ModuleBilling, ActionWrite) {
		t.Fatal("mutating a returned set must not leak into the default table")
	}
	if _, present := second[ModuleImpersonate]; present {
		t.Fatal("module added to a returned set must not leak into the default table")
	}
}

func TestAbsentModuleReadsAreDeniedNotFatal(t *testing.T) {
	for _, role := range Roles() {
		table := DefaultPermissions(role)
		if table.Allows("no_such_module", ActionRead) {
			t.Fatalf("role %s grants action on unknown module", role)
		}
		if table.Allows(ModuleTeam, "no_such_action") {
			t.Fatalf("role %s grants unknown action", role)
		}
	}
}
