package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeIdentityLaws(t *testing.T) {
	def := DefaultPermissions(RoleAdmin)
	require.Equal(t, def, Merge(def, nil))
	require.Equal(t, def, Merge(def, map[string]any{}))
}

func TestMergeOverrideWinsOthersSurvive(t *testing.T) {
	def := DefaultPermissions(RoleAdmin)
	effective := Merge(def, map[string]any{
		"settings": map[string]any{"modify_tenant": true},
	})

	if !effective.Allows(ModuleSettings, ActionModifyTenant) {
		t.Fatal("override grant must win")
	}
	if !effective.Allows(ModuleSettings, ActionAdmin) {
		t.Fatal("default action absent from the override must survive")
	}
	if effective.Allows(ModuleBilling, ActionWrite) {
		t.Fatal("modules absent from the override must stay at the default")
	}

	// Everything outside the touched key is byte-for-byte the default.
	expected := def.Clone()
	expected[ModuleSettings][ActionModifyTenant] = true
	require.Equal(t, expected, effective)
}

func TestMergeIgnoresMalformedModuleValues(t *testing.T) {
	def := DefaultPermissions(RoleManager)
	effective := Merge(def, map[string]any{
		"tasks":      nil,
		"dashboard":  "write",
		"fraud":      []any{"read"},
		"accounting": 7.0,
	})
	require.Equal(t, def, effective)
}

func TestMergeNonBooleanActionValueDenies(t *testing.T) {
	def := DefaultPermissions(RoleManager)
	effective := Merge(def, map[string]any{
		"tasks": map[string]any{"write": "yes"},
	})
	if effective.Allows(ModuleTasks, ActionWrite) {
		t.Fatal("non-boolean override value must not grant")
	}
	if !effective.Allows(ModuleTasks, ActionRead) {
		t.Fatal("untouched action must keep its default")
	}
}

func TestMergeCanRestrictBelowDefault(t *testing.T) {
	def := DefaultPermissions(RoleAdmin)
	effective := Merge(def, map[string]any{
		"accounting": map[string]any{"write": false, "view_financials": false},
	})
	if effective.Allows(ModuleAccounting, ActionWrite) {
		t.Fatal("override must restrict below the role default")
	}
	if !effective.Allows(ModuleAccounting, ActionRead) {
		t.Fatal("read stays granted")
	}
}

func TestMergeOverrideCanIntroduceModule(t *testing.T) {
	def := DefaultPermissions(RoleUser)
	effective := Merge(def, map[string]any{
		"accounting": map[string]any{"read": true},
	})
	if !effective.Allows(ModuleAccounting, ActionRead) {
		t.Fatal("override may grant a module the default denies")
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	def := DefaultPermissions(RoleAnalyst)
	snapshot := def.Clone()
	overrides := map[string]any{
		"billing": map[string]any{"read": true},
	}
	_ = Merge(def, overrides)
	require.Equal(t, snapshot, def)
	require.Equal(t, map[string]any{"billing": map[string]any{"read": true}}, overrides)
}

func TestMergeOwnerWithEmptyOverridesIsUniversal(t *testing.T) {
	effective := Merge(DefaultPermissions(RoleOwner), map[string]any{})
	for _, module := range Modules() {
		for _, action := range ActionsFor(module) {
			if !effective.Allows(module, action) {
				t.Fatalf("owner effective set must allow %s.%s", module, action)
			}
		}
	}
}

func TestManagerDefaultDeniesTeamManageAllUsers(t *testing.T) {
	effective := Merge(DefaultPermissions(RoleManager), nil)
	if effective.Allows(ModuleTeam, ActionManageAllUsers) {
		t.Fatal("manager must not manage all users")
	}
}
