// Package models defines the core domain models for weekledger.
//
// # Models
//
//   - Record: one expense, bought by a single person and shared among split members
//   - SplitMember: a participant's share of a record together with its paid flag
//   - User: an operator account allowed to call the API when auth is enabled
//
// Participants are identified by name strings only. There is no member
// registry: whatever names a client puts on a record are the members of it.
//
// # Lifecycle
//
// A record is created unarchived. While unarchived, the paid flag of each of
// its members may be toggled. Once every member of every record in a week is
// paid, the whole week may be archived. Archiving is one-way: an archived
// record is never mutated again and is eventually deleted by the retention
// sweep.
package models
