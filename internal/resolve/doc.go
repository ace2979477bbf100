// Package resolve enforces conflict and dependency rules on a feature
// selection. It rejects mutually exclusive combinations, both within one
// selection and against features a project already has, and injects required
// companions (Husky pulls in Biome). Injection is additive only: deselecting a
// feature never removes the companion it once brought in.
package resolve
