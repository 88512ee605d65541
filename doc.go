// Package kago provides a deterministic execution sandbox for untrusted
// guest code: class references are rewritten into an isolated namespace
// during preparation, values are converted between host and sandbox
// representations at the boundary, and guest modules run under a pinned
// clock and seeded entropy so identical inputs produce bit-identical
// outputs.
//
// # Overview
//
// kago intercepts class preparation and redirects every class, method and
// field reference from the host namespace into a parallel sandbox
// namespace. Runtime behaviors that would leak host nondeterminism
// (identity hash codes, enum resolution caches, wall clocks) are replaced
// with sandbox-controlled equivalents.
//
// # Basic Usage
//
//	sb := sandbox.NewContext()
//
//	prepared, _ := sb.Prepare(prepare.Class{
//	    Name:      "com/example/Color",
//	    Super:     "java/lang/Enum",
//	    Flags:     typeinfo.FlagEnum,
//	    Constants: []string{"RED", "GREEN", "BLUE"},
//	})
//
//	universe, _ := sb.Enums().Universe(prepared.Name)
//
// # Boundary Conversion
//
// Whenever a value crosses between host and sandbox code, convert it:
//
//	sv, _ := sb.Converter().ToSandbox(hv)
//	hv2, _ := sb.Converter().ToHost(sv)
//
// Enum constants convert by ordinal only, never by host object identity,
// so conversion round-trips survive sandbox reloads.
//
// See the [namespace], [remap], [value], [enums], [prepare], and [sandbox]
// packages for detailed API documentation.
package kago
