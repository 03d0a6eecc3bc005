// Package folio provides the document model and synchronization engine of a
// rich-text editor: slot content with grapheme-safe indexing, change tracking,
// an origin-aware render scheduler, path-addressed selection, undo history and
// keyboard dispatch.
package folio

import "errors"

// Startup errors
var (
	// ErrNoRenderer indicates that no Renderer was supplied in Options.
	ErrNoRenderer = errors.New("no renderer configured")

	// ErrNoSelectionBridge indicates that no SelectionBridge was supplied in Options.
	ErrNoSelectionBridge = errors.New("no selection bridge configured")

	// ErrAlreadyMounted indicates that Mount was called twice.
	ErrAlreadyMounted = errors.New("editor already mounted")

	// ErrNotMounted indicates that an operation needs a mounted root component.
	ErrNotMounted = errors.New("editor not mounted")

	// ErrEditorDestroyed indicates that the editor has been torn down.
	ErrEditorDestroyed = errors.New("editor destroyed")
)

// Component errors
var (
	// ErrInvalidKind indicates that a component's slots do not fit its kind.
	ErrInvalidKind = errors.New("slot count does not match component kind")

	// ErrUnknownComponent indicates that a component name is not registered.
	ErrUnknownComponent = errors.New("unknown component")

	// ErrDuplicateComponent indicates that a component name is registered twice.
	ErrDuplicateComponent = errors.New("component already registered")

	// ErrAttached indicates that a component or slot already has a parent.
	ErrAttached = errors.New("already attached to a parent")
)

// Content errors
var (
	// ErrSchemaMismatch indicates that a slot does not accept the content type.
	ErrSchemaMismatch = errors.New("content type not accepted by slot schema")

	// ErrReadOnly indicates that the editor refuses mutations.
	ErrReadOnly = errors.New("editor is read-only")
)

// Path errors
var (
	// ErrPathNotFound indicates that a path no longer resolves against the tree.
	ErrPathNotFound = errors.New("path not found")

	// ErrConflict indicates that two concurrent operations touched the same range.
	ErrConflict = errors.New("operations conflict")
)

// Serialization errors
var (
	// ErrInvalidDocument indicates that a document literal failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidAction indicates an unknown or malformed action literal.
	ErrInvalidAction = errors.New("invalid action")
)
