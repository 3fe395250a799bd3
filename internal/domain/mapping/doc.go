// Package mapping contains the Data Mapping bounded context.
// This context describes source/target payload shapes and the declarative
// rules translating one into the other.
//
// Key concepts:
//   - Schema: Value object describing an ordered list of typed fields
//   - DataMapping: Aggregate owning the field-mapping rule list for one
//     integration
//   - Transformer: Pure application of a DataMapping to a concrete payload,
//     producing a transformed payload plus per-field statistics and errors
//
// Transformation is a pure function of (mapping, sourceData): no network,
// no clock. Identical inputs always yield identical outputs, which keeps
// retries reproducible.
package mapping
