// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interp

import "errors"

// errYieldOutsideGenerator guards YIELD from ever running in a frame
// that isn't a generator body (not reachable from well-formed
// compiler output, but the interpreter must not panic on malformed
// bytecode).
var errYieldOutsideGenerator = errors.New("interp: YIELD outside generator")

// errBadBytecode flags a decode-time inconsistency (unknown opcode,
// operand referencing an out-of-range register/constant).
var errBadBytecode = errors.New("interp: malformed bytecode")
