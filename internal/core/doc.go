// Package core reconstructs a flat e-commerce transaction export into a
// line-level sales fact table and computes dashboard aggregates over it.
//
// This package holds all domain logic independent of any transport. It can
// be used by the web server, the CLI, or tests without modification.
//
// # Pipeline
//
// A load runs these stages once per source path:
//
//  1. [LoadRaw] reads the delimited file through BOM stripping and UTF-8 sanitizing readers
//  2. [Extract] projects one column subset per entity and drops exact duplicates
//  3. Sanitize applies the entity's [FieldSpec] policy table
//  4. [JoinFacts] joins orders⟗customers, then ⋈ sale lines, then ⋈ products
//  5. [DeriveFeatures] adds line totals, net sales, and calendar buckets
//
// [Pipeline.Load] runs the stages uncached. [Cache] memoizes the result per
// path with at most one load in flight.
//
// # Entity Registry
//
// Entities are registered at init time using [Register]. Each
// [EntityDefinition] lists its source columns and how each one is coerced:
//
//	core.Register(core.EntityDefinition{
//	    Entity: core.EntityProducts,
//	    Fields: []core.FieldSpec{
//	        {Name: "item_id", Source: "item_id", Type: core.FieldInt, OnFailure: core.DropRow},
//	        {Name: "price", Source: "price", Type: core.FieldNumber, OnFailure: core.DropRow,
//	            Checks: []core.Check{core.NonNegative}},
//	    },
//	})
//
// Field-level failures are never returned as errors. They resolve to null,
// a fallback, or a dropped row, and drops are counted in [SanitizeStats].
//
// # Filtering
//
// [ApplyFilter] produces a [View] for one date range and category selection.
// An empty category selection yields an empty view. A date range without
// both endpoints leaves dates unfiltered.
//
// # Error Handling
//
// Only the raw load fails. Errors wrap one of [ErrSourceUnavailable],
// [ErrSourceMalformed], or [ErrSourceTooLarge] in a [SourceError]. Use
// [MapError] for a user-facing message with a support code.
package core
