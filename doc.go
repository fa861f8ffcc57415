/*
Package prefetch bolts eager loading onto gorm queries.

gorm loads relationships on demand, one query per navigation per record set.
Prefetch instead forces the backing set of a relationship to load up front,
before the source query runs. All loading goes through a shared tracking
Context that deduplicates entities by primary key, so once a related set is
materialized, navigation from entities loaded by any later query against the
same Context resolves in memory without further round trips.

Wrap a gorm connection with NewContext and start a pending query with
Context.Query. Call One for single valued relationships or Many for
collections, or their Scoped variants to narrow the related set first. Each
helper materializes the related set as a side effect and returns the source
query untouched, so calls chain. Running the query with Find connects every
relationship that can be satisfied from tracked entities.
*/
package prefetch
