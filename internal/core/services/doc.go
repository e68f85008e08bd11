// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services only see the generic store through driven.Store; table
// and column names of the application schema are the contract.
package services
