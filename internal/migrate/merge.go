// Package migrate composes per-version state migration functions
// contributed by independently loaded modules.
package migrate

// State is a serializable record passed through migration functions
type State map[string]interface{}

// MigrateFunc transforms a state from one version's shape to the next
type MigrateFunc func(state State) State

// FunctionsObject maps a version key (e.g. "7.14.0") to its migration
type FunctionsObject map[string]MigrateFunc

// Merge combines two function maps into a new one. Keys defined on one
// side only keep their function; keys defined on both sides get
// a[k](b[k](state)), so b's function runs first. Neither input is modified.
func Merge(a, b FunctionsObject) FunctionsObject {
	out := make(FunctionsObject, len(a)+len(b))
	for version, fn := range a {
		out[version] = fn
	}

	for version, inner := range b {
		outer, ok := out[version]
		switch {
		case !ok || outer == nil:
			out[version] = inner
		case inner == nil:
			// keep a's function
		default:
			out[version] = compose(outer, inner)
		}
	}

	return out
}

func compose(outer, inner MigrateFunc) MigrateFunc {
	return func(state State) State {
		return outer(inner(state))
	}
}
