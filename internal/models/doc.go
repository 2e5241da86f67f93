// Package models defines the core domain types for ETaPprover.
//
// # Models
//
//   - PersonName: a "Lastname, Firstname" pair as delivered by the thesis
//     repository
//   - Submission: one pending thesis deposition
//
// # Design Principles
//
// 1. **Parsing never fails**: a name that cannot be split still produces a
// usable PersonName (the whole string as lastname)
// 2. **No behavior**: username derivation lives in internal/username,
// resolution in internal/resolve; models stay plain data
// 3. **Record order preserved**: supervisor order matters downstream for
// deterministic notification previews
package models
