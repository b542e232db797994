// Package codec converts typed property values to and from the JSON strings
// held by the value store. Every conversion is driven by the property's
// Shape: lists decode to []any, sets to map[any]struct{}, and maps to
// map[any]any with keys decoded through the map's key shape
package codec
