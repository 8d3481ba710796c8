package query

import "github.com/Konsultn-Engineering/queryfn/errs"

// Named carries keyed arguments for statements written with :name
// parameters. Pass it as the only argument of Call.
type Named map[string]any

// Args is the argument set of one invocation: positional values or keyed
// values, never both.
type Args struct {
	Positional []any
	Keyed      Named
}

func (a Args) keyed() bool { return a.Keyed != nil }

// splitArgs separates a Call argument list into an Args value.
func splitArgs(name string, args []any) (Args, error) {
	var a Args
	for _, v := range args {
		n, ok := v.(Named)
		if !ok {
			a.Positional = append(a.Positional, v)
			continue
		}
		if a.Keyed != nil {
			return Args{}, &errs.ArgumentError{Query: name, Reason: "keyed arguments supplied more than once"}
		}
		if n == nil {
			n = Named{}
		}
		a.Keyed = n
	}
	return a, a.validate(name)
}

func (a Args) validate(name string) error {
	if a.keyed() && len(a.Positional) > 0 {
		return &errs.ArgumentError{Query: name, Reason: "cannot pass both positional and keyed arguments to a query"}
	}
	return nil
}
