package authz

// Merge layers untrusted per-user overrides on top of a role's defaults and
// returns the effective permission set. Overrides come straight out of a
// JSONB column, so every shape is tolerated:
//
//   - a module key whose value is not a JSON object is ignored entirely
//   - inside a module object, override action keys win over the defaults and
//     defaults absent from the override survive
//   - only a strictly boolean true grants; any other override value denies
//
// Merge never mutates its inputs and is recomputed per request, so role and
// override changes take effect on the next check.
func Merge(defaults PermissionSet, overrides map[string]any) PermissionSet {
	merged := defaults.Clone()
	for rawModule, rawActions := range overrides {
		actions, ok := rawActions.(map[string]any)
		if !ok {
			continue
		}
		module := Module(rawModule)
		set, ok := merged[module]
		if !ok {
			set = make(ActionSet, len(actions))
			merged[module] = set
		}
		for rawAction, rawValue := range actions {
			granted, _ := rawValue.(bool)
			set[Action(rawAction)] = granted
		}
	}
	return merged
}
