// Package domain models charging-site reconciliation between the internal
// site database and an external map provider.
//
// # Data Source
//
// One sheet row describes one charging site as seen by both systems. The
// sheet is produced by a matching job upstream; this package only reads it.
// Every cell arrives as text, whatever the sheet tool displayed.
//
// # Sheet Conventions
//
// Identifiers:
//
//	external_reference  internal database id
//	placeId             map provider place id
//	"", "NULL" and "N/A" mean the site is unknown to that system. Comparison
//	trims whitespace and ignores case; "0" is a real identifier.
//
// Booleans (connector_match, power_match, correctness check columns):
//
//	"TRUE"/"true" is true. "FALSE", blank and anything else is false.
//	Non-boolean text is kept as false but reported as a FieldIssue.
//
// Missing connectors (missing_in_google, missing_in_db):
//
//	A serialized mapping literal keyed by connector type, e.g.
//	{'Type 2': 2, 'CCS': 1}. Parsed by [ParseMappingLiteral], never evaluated.
//	A malformed literal becomes an empty mapping plus a FieldIssue.
//
// Geometry (geometry_db, geometry_google):
//
//	"POINT (<lon> <lat>)", longitude first. The database geometry wins; the
//	provider geometry is the fallback. Records with neither are flagged
//	invalid_geometry and left off the map but stay in every table.
//
// # Classification
//
// Every record gets exactly one [Category], first matching rule wins:
//
//	missing_in_map_provider  no placeId
//	missing_in_database      no external_reference
//	fully_correct            connector_match and power_match
//	discrepant               everything else
//
// The summary chart, map colors and detail tables all read the category
// produced by [Classify]; no view re-derives it.
package domain
