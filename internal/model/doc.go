// Package model provides the value types shared by every kitty package.
//
// This package contains value types and encoders only. All other internal
// packages import model; model imports nothing internal.
//
// Key design constraints:
//   - NO float types for money - Money is int64 minor units (cents)
//   - Percentages are int64 basis points (1% = 100 bp)
//   - Enumerations are string-typed so they round-trip through JSON and SQL
//   - Content-addressed IDs use canonical JSON and SHA-256 with domain separation
package model
