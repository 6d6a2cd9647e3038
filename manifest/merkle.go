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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// domain-separation prefixes for the Merkle leaf/node hash inputs. Each is
// followed by a NUL byte in the hashed bytes so that a label boundary can
// never be confused with a hash boundary.
var (
	prefixFile   = []byte("file\x00")
	prefixConfig = []byte("config\x00")
	prefixNode   = []byte("node\x00")
)

// ModuleLeafInput describes one MODULE node's contribution to the snapshot
// digest.
type ModuleLeafInput struct {
	// Label is the module's workspace-relative, separator-normalized path.
	Label string

	// FSPath is the absolute filesystem path backing the module.
	FSPath string

	// MtimeNs and Size are the file's signature at scan time.
	MtimeNs int64
	Size    int64

	// ContentSHA256 is the hex-encoded SHA256 of the file's bytes. Callers
	// populate this from a prior snapshot's recorded value when
	// (FSPath, MtimeNs, Size) match; otherwise leave it empty and Compute
	// recomputes it from disk via hasher.
	ContentSHA256 string
}

// ModuleLeaf is a computed leaf together with the inputs that produced it,
// suitable for serialization into graph_meta's merkle.leaves map.
type ModuleLeaf struct {
	Label         string
	FSPath        string
	MtimeNs       int64
	Size          int64
	ContentSHA256 string
	Leaf          string // hex
	Missing       bool
}

// SnapshotConfig is the configuration surface folded into the config leaf.
// Field order matches the canonical JSON shape in graph_meta (§6).
type SnapshotConfig struct {
	Version          int      `json:"version"`
	UseLSP           bool     `json:"lsp"`
	LangSet          []string `json:"lang_set"`
	LabelStripPrefix *string  `json:"label_strip_prefix"`
}

// fileLeaf computes sha256(prefix || label || 0x00 || payload).
func fileLeaf(label string, contentSHA256Hex string) ([]byte, error) {
	payload, err := hex.DecodeString(contentSHA256Hex)
	if err != nil {
		return nil, err
	}
	h := sha256.New()
	h.Write(prefixFile)
	h.Write([]byte(label))
	h.Write([]byte{0x00})
	h.Write(payload)
	return h.Sum(nil), nil
}

// ConfigLeaf computes the config leaf: sha256("config\0" || canonical_json(cfg)).
//
// json.Marshal on a struct with fixed field order is used as the canonical
// encoding: Go's encoder walks struct fields in declaration order and never
// reorders map keys for struct-typed values, so the same SnapshotConfig
// value always serializes to the same bytes.
func ConfigLeaf(cfg SnapshotConfig) ([]byte, error) {
	canonical, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	h := sha256.New()
	h.Write(prefixConfig)
	h.Write(canonical)
	return h.Sum(nil), nil
}

// combine computes sha256("node\0" || left || right).
func combine(left, right []byte) []byte {
	h := sha256.New()
	h.Write(prefixNode)
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// emptyHash is sha256(b"empty"), the digest of a level with zero leaves.
func emptyHash() []byte {
	h := sha256.Sum256([]byte("empty"))
	return h[:]
}

// reduceBottomUp combines a list of leaf hashes pairwise, bottom-up,
// duplicating the last element of an odd-length level, until one hash
// remains. An empty input yields emptyHash().
func reduceBottomUp(level [][]byte) []byte {
	if len(level) == 0 {
		return emptyHash()
	}
	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, combine(left, right))
		}
		level = next
	}
	return level[0]
}

// Digest is the computed Merkle snapshot identity plus the per-module
// leaves that produced it, ready for serialization into graph_meta.
type Digest struct {
	Root       string // hex
	ConfigLeaf string // hex
	Leaves     []ModuleLeaf
}

// ContentHasher computes (or reuses) a module file's content SHA256.
type ContentHasher interface {
	HashFileAtomic(path string, maxRetries int) (FileEntry, error)
}

// ComputeDigest builds the snapshot digest D from a set of module leaf
// inputs and a snapshot configuration, per spec §3:
//
//  1. Leaves are computed per module (content hash reused from a prior
//     snapshot when the caller has already populated ContentSHA256;
//     otherwise recomputed via hasher).
//  2. Leaves are ordered by module label and reduced bottom-up into a
//     module root (sha256(b"empty") when there are zero modules).
//  3. The module root is combined with the config leaf to yield D.
//
// The ordering of the two operands in the final combine (module root,
// then config leaf) is fixed so that repeated computation over the same
// inputs always yields the same D.
func ComputeDigest(inputs []ModuleLeafInput, cfg SnapshotConfig, hasher ContentHasher) (Digest, error) {
	sorted := make([]ModuleLeafInput, len(inputs))
	copy(sorted, inputs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Label < sorted[j].Label })

	leaves := make([]ModuleLeaf, 0, len(sorted))
	hashes := make([][]byte, 0, len(sorted))

	for _, in := range sorted {
		contentHex := in.ContentSHA256
		missing := false
		if contentHex == "" {
			if hasher == nil {
				return Digest{}, ErrFileUnstable
			}
			entry, err := hasher.HashFileAtomic(in.FSPath, DefaultMaxRetries)
			if err != nil {
				missing = true
			} else {
				contentHex = entry.Hash
				in.MtimeNs = entry.Mtime
				in.Size = entry.Size
			}
		}

		var leafHash []byte
		if missing {
			leafHash = emptyHash()
		} else {
			var err error
			leafHash, err = fileLeaf(in.Label, contentHex)
			if err != nil {
				return Digest{}, err
			}
		}

		leaves = append(leaves, ModuleLeaf{
			Label:         in.Label,
			FSPath:        in.FSPath,
			MtimeNs:       in.MtimeNs,
			Size:          in.Size,
			ContentSHA256: contentHex,
			Leaf:          hex.EncodeToString(leafHash),
			Missing:       missing,
		})
		hashes = append(hashes, leafHash)
	}

	moduleRoot := reduceBottomUp(hashes)

	configLeafBytes, err := ConfigLeaf(cfg)
	if err != nil {
		return Digest{}, err
	}

	root := combine(moduleRoot, configLeafBytes)

	return Digest{
		Root:       hex.EncodeToString(root),
		ConfigLeaf: hex.EncodeToString(configLeafBytes),
		Leaves:     leaves,
	}, nil
}
