// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"hash/fnv"
	"strconv"
)

// Stable graph identities are derived from content (module label, or
// label+qualname), not from parse order or file position: re-parsing an
// unchanged file must produce the same node IDs, so that Refresh() can
// diff the previous graph against the new one by ID rather than by
// value equality of the whole node.

// hashString is the 32-bit FNV-1a hash named by the identity rules,
// rendered as lowercase hex.
func hashString(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return strconv.FormatUint(uint64(h.Sum32()), 16)
}

// ModuleID returns the stable identity for a MODULE node. label is the
// workspace-root-relative module path (see builder.go's module-labeling
// rules).
func ModuleID(label string) string {
	return "mod_" + hashString(label)
}

// ClassID returns the stable identity for a CLASS node. label is the
// owning module's label; qualname is the class name qualified by any
// enclosing namespace (bare class name for Go/Python top-level types).
func ClassID(label, qualname string) string {
	return "cls_" + hashString(label+":"+qualname)
}

// FuncID returns the stable identity for a FUNC node. label is the
// owning module's label; qualname is "Receiver.Method" for a method,
// or the bare function name for a free function.
func FuncID(label, qualname string) string {
	return "fn_" + hashString(label+":"+qualname)
}
