// Package domain holds the model types, collaborator contracts, and
// sentinel errors shared across the application. It has no dependencies
// on other internal packages.
package domain
