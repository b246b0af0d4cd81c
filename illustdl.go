// Package illustdl provides a resumable crawler for ranked illustration listings.
// It walks listing pages in order, resolves each artwork's detail page and
// downloads every page of the artwork's image set, skipping artworks that a
// persistent ledger records as already complete.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/, viper/).
package illustdl
