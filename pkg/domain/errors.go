package domain

import "errors"

// ErrNotFound is returned when an operation references a node, plug or connection
// that does not exist in the model.
var ErrNotFound = errors.New("not found")

// ErrDuplicateID is returned when an entity is inserted with an id that is already taken.
var ErrDuplicateID = errors.New("duplicate id")

// ErrMalformedStream is returned when a token stream is truncated, carries an unknown
// format tag, or a token fails to parse as its expected type.
var ErrMalformedStream = errors.New("malformed stream")

// ErrDanglingReference is returned when a decoded entity references a node or plug
// that is not present once the whole stream has been read.
var ErrDanglingReference = errors.New("dangling reference")

// ErrMultipleStartNodes is returned when more than one dialogue entry is flagged as start.
var ErrMultipleStartNodes = errors.New("multiple start nodes")

// ErrAssetNotFound is returned when an asset id cannot be found in the store.
var ErrAssetNotFound = errors.New("asset not found")

// ErrInvalidAssetID is returned when a store cannot hold an asset under the given id.
var ErrInvalidAssetID = errors.New("invalid asset id")

// ErrReadOnly is returned when a write reaches an asset source that cannot be written.
var ErrReadOnly = errors.New("asset source is read-only")
