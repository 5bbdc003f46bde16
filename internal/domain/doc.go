// Package domain models charging-station records reported by independent
// public data sources and the canonical stations consolidated from them.
//
// # Data Sources
//
// Three connectors feed the service, each emitting normalized records:
//
//	BNA  Bundesnetzagentur Ladesäulenregister (national regulator registry)
//	OCM  Open Charge Map (crowdsourced charging map)
//	OSM  OpenStreetMap amenity=charging_station (general crowdsourced map)
//
// The default precedence for conflicting text fields is BNA > OCM > OSM: the
// registry is curated, OCM is charging-specific, OSM is the most sparse.
//
// # Natural Keys
//
// A record enters the system under (source_id, external_id). External ids
// are unique within a source and never compared across sources; there is no
// shared identifier linking the same station in two sources. See [NaturalKey].
//
// # Coordinates
//
// Latitude and longitude are WGS-84 decimal degrees. Connectors omit them
// (null in JSON) rather than sending 0,0 when a station is not geocoded, so
// [Record] keeps them as pointers. Distances are great-circle distances on a
// spherical Earth (haversine, [DistanceMeters]); at the tens-of-metres radii
// used for station matching the error against an ellipsoid is well under a
// metre.
//
// # Text Comparison
//
// Names, operators and addresses differ in case, accents, punctuation and
// legal-form suffixes across sources:
//
//	"Ladesäule Nord"           -> "ladesaule nord"
//	"EnBW Energie Baden-Württemberg AG" -> "enbw energie baden wurttemberg"
//
// [NormalizeText] and [NormalizeOperator] produce the comparable form and
// [Similarity] scores two normalized values in [0, 1].
//
// # Errors
//
// [InvalidRecordError] drops a single record, [DuplicateNaturalKeyError] and
// [ConfigurationError] abort a run. Each matches a sentinel via errors.Is.
package domain
