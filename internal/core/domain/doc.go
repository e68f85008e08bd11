// Package domain defines the core business entities for invoicedb.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - User: An account that owns products and invoices
//   - Product: A sellable item with small/medium/large price tiers
//   - Invoice: A completed sale, numbered per user
//   - Row: A normalised result row from the generic access facade
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
