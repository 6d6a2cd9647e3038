// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig() SnapshotConfig {
	return SnapshotConfig{Version: 1, UseLSP: true, LangSet: []string{"go", "python"}}
}

func TestComputeDigest_Deterministic(t *testing.T) {
	inputs := []ModuleLeafInput{
		{Label: "a.py", FSPath: "/p/a.py", ContentSHA256: "aa"},
		{Label: "b.py", FSPath: "/p/b.py", ContentSHA256: "bb"},
	}
	d1, err := ComputeDigest(inputs, testConfig(), nil)
	require.NoError(t, err)

	reversed := []ModuleLeafInput{inputs[1], inputs[0]}
	d2, err := ComputeDigest(reversed, testConfig(), nil)
	require.NoError(t, err)

	require.Equal(t, d1.Root, d2.Root, "digest must not depend on input enumeration order")
}

func TestComputeDigest_EmptyWorkspace(t *testing.T) {
	d, err := ComputeDigest(nil, testConfig(), nil)
	require.NoError(t, err)

	configLeafBytes, err := ConfigLeaf(testConfig())
	require.NoError(t, err)

	want := combine(emptyHash(), configLeafBytes)
	require.Equal(t, hexString(want), d.Root)
	require.Empty(t, d.Leaves)
}

func TestComputeDigest_ChangesWithContent(t *testing.T) {
	base := []ModuleLeafInput{{Label: "a.py", FSPath: "/p/a.py", ContentSHA256: "aa"}}
	changed := []ModuleLeafInput{{Label: "a.py", FSPath: "/p/a.py", ContentSHA256: "bb"}}

	d1, err := ComputeDigest(base, testConfig(), nil)
	require.NoError(t, err)
	d2, err := ComputeDigest(changed, testConfig(), nil)
	require.NoError(t, err)

	require.NotEqual(t, d1.Root, d2.Root)
}

func TestComputeDigest_OddLeafCountDuplicatesLast(t *testing.T) {
	inputs := []ModuleLeafInput{
		{Label: "a.py", FSPath: "/p/a.py", ContentSHA256: "aa"},
		{Label: "b.py", FSPath: "/p/b.py", ContentSHA256: "bb"},
		{Label: "c.py", FSPath: "/p/c.py", ContentSHA256: "cc"},
	}
	d, err := ComputeDigest(inputs, testConfig(), nil)
	require.NoError(t, err)
	require.Len(t, d.Leaves, 3)

	la, _ := fileLeaf("a.py", "aa")
	lb, _ := fileLeaf("b.py", "bb")
	lc, _ := fileLeaf("c.py", "cc")
	level1 := combine(la, lb)
	level2 := combine(lc, lc)
	moduleRoot := combine(level1, level2)
	configLeafBytes, _ := ConfigLeaf(testConfig())
	want := combine(moduleRoot, configLeafBytes)

	require.Equal(t, hexString(want), d.Root)
}

func hexString(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hextable[v>>4]
		out[i*2+1] = hextable[v&0x0f]
	}
	return string(out)
}
