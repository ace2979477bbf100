// Package compat holds the compatibility rule table for every feature and the
// resolver that answers which features a frontend stack can host.
//
// The table is the single source of truth for frontend support, mutual
// exclusion and required companions. Build-system exclusivity (Turborepo
// versus Moonrepo) is an ordinary conflict entry, not a special case.
package compat
