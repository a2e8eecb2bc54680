// Package listing parses the flat "name==version" listing produced by a
// package manager's freeze command into ordered dependency records.
//
// The listing contract is strict:
//   - One record per line, in the form <name>==<version>
//   - Empty lines are skipped
//   - A line is split on the first "==" only; the version keeps any later "=="
//   - Any malformed line fails the whole listing; no partial result is returned
//
// Record order follows the listing. Seq is a 1-based display number and has
// no meaning to the store.
package listing
