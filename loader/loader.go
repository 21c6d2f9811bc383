// Package loader resolves partial names to raw template text.
//
// A loader is any Func. The renderer calls it once per partial tag it
// meets; a false result means the partial does not exist and renders as
// nothing. Map, Dir and Chain cover the common sources.
package loader

// Func returns the raw text of the named partial, or false if there is none.
type Func func(name string) (string, bool)

// Map returns a Func serving partials from an in-memory table.
func Map(partials map[string]string) Func {
	return func(name string) (string, bool) {
		text, ok := partials[name]
		return text, ok
	}
}

// Chain returns a Func that asks each loader in turn and returns the first
// hit. Nil loaders are skipped.
func Chain(loaders ...Func) Func {
	return func(name string) (string, bool) {
		for _, l := range loaders {
			if l == nil {
				continue
			}
			if text, ok := l(name); ok {
				return text, true
			}
		}
		return "", false
	}
}

// None is a Func that never finds anything.
func None(string) (string, bool) { return "", false }
