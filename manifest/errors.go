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

import "errors"

// Sentinel errors for manifest and hashing operations.
var (
	// ErrFileTooLarge is returned when a file exceeds the configured size cap.
	ErrFileTooLarge = errors.New("file exceeds maximum size limit")

	// ErrFileUnstable is returned when a file keeps changing while being hashed.
	ErrFileUnstable = errors.New("file changed during hashing")

	// ErrInvalidHash is returned when a FileEntry carries a malformed hash.
	ErrInvalidHash = errors.New("invalid hash format")
)
