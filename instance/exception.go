// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instance

import (
	"fmt"

	"github.com/kos-lang/kos-sub002/internal/vmctx"
	"github.com/kos-lang/kos-sub002/object"
	"github.com/kos-lang/kos-sub002/value"
)

// Raise implements raise(value) (§6.2, §7): set ctx's pending
// exception directly to an already-constructed value.
func Raise(ctx *vmctx.Context, v value.Value) { ctx.Raise(v) }

// RaiseCString implements raise_cstring(msg) (§6.2): wraps a bare
// message string in the same frozen kind/message Object shape every
// other runtime-detected error raises (object.ToException), so script
// catch blocks see one consistent exception shape regardless of
// origin.
func RaiseCString(ctx *vmctx.Context, msg string) {
	ctx.Raise(object.ToException(&object.InvalidValueError{Msg: msg}))
}

// RaisePrintf implements raise_printf(fmt, ...) (§6.2): the formatted
// analogue of RaiseCString.
func RaisePrintf(ctx *vmctx.Context, format string, args ...interface{}) {
	RaiseCString(ctx, fmt.Sprintf(format, args...))
}

// Clear implements clear (§6.2, §7).
func Clear(ctx *vmctx.Context) { ctx.Clear() }

// IsPending implements is_pending (§6.2, §7).
func IsPending(ctx *vmctx.Context) bool { return ctx.IsPending() }

// Get implements get (§6.2, §7): the pending exception value, or
// object.Void if none is pending.
func Get(ctx *vmctx.Context) value.Value { return ctx.Exception() }

// FormatException implements format_exception (§6.2): a human-readable
// rendering of an exception value for diagnostics (the REPL, an
// uncaught-exception report at process exit). Exceptions raised via
// this runtime's own error paths are always a frozen kind/message
// Object (object.ToException); anything else prints with %v.
func FormatException(v value.Value) string {
	if o, ok := v.(*object.Object); ok {
		kind, kErr := o.Get("kind")
		msg, mErr := o.Get("message")
		if kErr == nil && mErr == nil {
			if ks, ok := kind.(*object.String); ok {
				if ms, ok := msg.(*object.String); ok {
					return ks.String() + ": " + ms.String()
				}
			}
		}
	}
	return fmt.Sprintf("%v", v)
}
