// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package backlight

import "strings"

// Quote returns s unchanged when it only contains characters that are
// safe in a POSIX shell word, and single-quoted otherwise.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, unsafeRune) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func unsafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("/._-+:@%=,", r)
}
