// Package sanitizer normalizes untrusted string input before validation.
//
// Transforms are plain func(string) string values chained with Apply or
// Compose:
//
//	name := sanitizer.Apply(req.Name, sanitizer.RemoveControlChars, sanitizer.SingleLine)
//
// Secrets such as passwords must never pass through these helpers: they are
// compared byte for byte.
package sanitizer
