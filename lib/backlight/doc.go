// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Package backlight locates the writable backlight control file.
//
// Discovery works only through text commands run by a
// rootshell.Runner: it lists the backlight class directory, tests each
// entry for a brightness file with a shell existence test, and takes
// the first entry that has one. Listing order is the only preference;
// several backlight-capable devices are not disambiguated.
package backlight
