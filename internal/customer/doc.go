// Package customer manages customer records scoped to a location.
//
// Every customer carries two identifiers: the internal cus- ID used in
// URLs and foreign keys, and a human-facing UID (CUS-000001) numbered
// per organization from a transactional counter table. Customers are
// archived, never deleted, so job history stays attached.
package customer
