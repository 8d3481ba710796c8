package query

import (
	"context"
	"fmt"

	"github.com/Konsultn-Engineering/queryfn/errs"
	"github.com/Konsultn-Engineering/queryfn/schema"
)

// Func is a query function with a static result type.
type Func[R any] func(ctx context.Context, args ...any) (R, error)

// Typed adapts q to return R. A nil result yields the zero R; any other
// result that is not an R fails with *errs.TransformError. That includes a
// Default of another type, e.g. an untyped 0 for Typed[int64]; BuildFunc
// converts the Default up front.
func Typed[R any](q *Query) Func[R] {
	return func(ctx context.Context, args ...any) (R, error) {
		var zero R
		res, err := q.Call(ctx, args...)
		if err != nil {
			return zero, err
		}
		if res == nil {
			return zero, nil
		}
		v, ok := res.(R)
		if !ok {
			return zero, &errs.TransformError{
				Query: q.Name(),
				Err:   fmt.Errorf("result is %T, want %T", res, zero),
			}
		}
		return v, nil
	}
}

// BuildFunc builds d with f and wraps it with Typed. A Default that is not
// already an R is converted to R here; one that cannot be fails with
// *errs.ConfigurationError.
func BuildFunc[R any](f *Factory, d Descriptor) (Func[R], error) {
	if d.Default != nil {
		if _, ok := d.Default.(R); !ok {
			def, err := schema.GetConverter[R]()(d.Default)
			if err != nil {
				return nil, errs.Configf("default", "%v", err)
			}
			d.Default = def
		}
	}
	q, err := f.Build(d)
	if err != nil {
		return nil, err
	}
	return Typed[R](q), nil
}

// ScalarOf returns a transform converting a Scalar result into T, so that
// int64 counts, float64 averages and []byte decimals all arrive as T. A nil
// result stays nil.
func ScalarOf[T any]() Transform {
	conv := schema.GetConverter[T]()
	return func(res any) (any, error) {
		if res == nil {
			return nil, nil
		}
		return conv(res)
	}
}
