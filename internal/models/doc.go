// Package models defines domain entities and persistence interfaces for the setlist service.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): values produced by the tracklist extractor
//   - [Song] : one "Artist - Title" entry discovered on a page
//   - [Result] : the outcome of one extraction, either songs or an error message
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [Scrape] : a recorded extraction, with its songs serialized as JSON
//   - [Build] : a YouTube playlist created from scraped songs
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
