// Package storage defines the typed backend contracts the retrieval
// subsystem fans out to: a relational facts store, a vector
// conversation store, a time-series quality metrics store, and a
// character background store, together with their default
// implementations (gorm/Postgres for the relational backends, an
// in-process cosine index for the vector backend).
//
// Each interface documents its capability contract. Callers hold these
// as optional dependencies and check presence explicitly; a nil store
// means the backend is not configured, which handlers surface as
// BACKEND_UNAVAILABLE rather than a panic.
package storage
