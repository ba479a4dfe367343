package names

// manualOverrides maps ambiguous raw spellings straight to their canonical
// names. The clustering heuristics cannot tell two people sharing an initial
// apart, so the handful of known collisions is patched here. Keys are
// normalized spellings, values the canonical display strings.
var manualOverrides = map[string]string{
	"александр к.": "Александр Комса",
}

// overrideTargets is the set of canonical names produced by the override
// table, used as a display-selection tie-break.
var overrideTargets = func() map[string]struct{} {
	targets := make(map[string]struct{}, len(manualOverrides))
	for _, display := range manualOverrides {
		targets[display] = struct{}{}
	}
	return targets
}()
