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
	"strings"
	"testing"
)

func TestModuleID_StableAndPrefixed(t *testing.T) {
	id := ModuleID("pkg/a.go")
	if !strings.HasPrefix(id, "mod_") {
		t.Errorf("expected mod_ prefix, got %q", id)
	}
	if ModuleID("pkg/a.go") != id {
		t.Error("ModuleID should be deterministic for the same label")
	}
	if ModuleID("pkg/b.go") == id {
		t.Error("different labels should not collide under normal input")
	}
}

func TestClassAndFuncID_DistinctNamespaces(t *testing.T) {
	label := "pkg/a.go"
	classID := ClassID(label, "Store")
	funcID := FuncID(label, "Store")

	if classID == funcID {
		t.Error("ClassID and FuncID must not collide for the same qualname, since they hash distinct id prefixes")
	}
	if !strings.HasPrefix(classID, "cls_") {
		t.Errorf("expected cls_ prefix, got %q", classID)
	}
	if !strings.HasPrefix(funcID, "fn_") {
		t.Errorf("expected fn_ prefix, got %q", funcID)
	}
}

func TestFuncID_QualnameDisambiguatesMethods(t *testing.T) {
	label := "pkg/a.go"
	freeFunc := FuncID(label, "Save")
	method := FuncID(label, "Store.Save")

	if freeFunc == method {
		t.Error("a free function and a same-named method must get different ids")
	}
}
