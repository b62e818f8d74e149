package engine

import (
	"context"
	"fmt"
	"reflect"
)

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// invokeHandler calls a resolved callback with the client-supplied
// arguments. Handlers are plain functions; an optional leading
// context.Context parameter receives the session context, and an optional
// trailing error result is propagated. Surplus client arguments are
// dropped, missing ones arrive as zero values. A panic in the handler is
// contained and returned as an error.
func invokeHandler(ctx context.Context, handler any, args []any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	fn := reflect.ValueOf(handler)
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return fmt.Errorf("callback target is %T, not a function", handler)
	}
	t := fn.Type()
	if t.IsVariadic() {
		return fmt.Errorf("variadic handlers are not supported")
	}

	in := make([]reflect.Value, 0, t.NumIn())
	next := 0
	for i := 0; i < t.NumIn(); i++ {
		pt := t.In(i)
		if i == 0 && pt == ctxType {
			in = append(in, reflect.ValueOf(ctx))
			continue
		}
		if next >= len(args) || args[next] == nil {
			in = append(in, reflect.Zero(pt))
			next++
			continue
		}
		av := reflect.ValueOf(args[next])
		next++
		switch {
		case av.Type().AssignableTo(pt):
			in = append(in, av)
		case av.Type().ConvertibleTo(pt):
			in = append(in, av.Convert(pt))
		default:
			return fmt.Errorf("argument %d: cannot use %s as %s", next, av.Type(), pt)
		}
	}

	out := fn.Call(in)
	if n := t.NumOut(); n > 0 && t.Out(n-1) == errType {
		if e, ok := out[n-1].Interface().(error); ok && e != nil {
			return e
		}
	}
	return nil
}
