package recordmgr

import "errors"

// Error kinds a caller of the library surface can expect, per the
// engine's error handling design: FileError/InvalidOffset/EndOfFile
// surface as whatever the recordio/btreepage layers returned (they are
// already typed there); the sentinels below cover the outcomes that are
// specific to RecordManager and BTreeHandle.
var (
	// ErrAlreadyManaged is returned by AddTree when name is already in
	// use by another managed tree.
	ErrAlreadyManaged = errors.New("recordmgr: btree already managed")

	// ErrNotManaged is returned when a caller names a tree that has
	// never been registered via AddTree/Load.
	ErrNotManaged = errors.New("recordmgr: btree not managed")

	// ErrDatabaseLocked is returned by Open when another process already
	// holds the advisory exclusive lock on the file.
	ErrDatabaseLocked = errors.New("recordmgr: database file is locked by another process")

	// ErrNoTransaction is returned by Commit/Rollback called without a
	// matching Begin.
	ErrNoTransaction = errors.New("recordmgr: commit/rollback without a matching begin")

	// ErrRevisionNotFound is the structured success-signal for a lookup
	// against a revision this tree never committed.
	ErrRevisionNotFound = errors.New("recordmgr: revision not found")

	// ErrRevisionNotRetained is returned by DropRevision when the named
	// (tree, revision) pair has no CopiedPagesBtree entry: either
	// keepRevisions was off when that revision was superseded, it is the
	// tree's current revision, or it was already dropped.
	ErrRevisionNotRetained = errors.New("recordmgr: revision has no retained pages to drop")

	// ErrCorruptHeader is returned by Open when the global header's
	// recorded page size is below the minimum the format allows. An
	// unreadable internal-tree header (after the previous-offsets
	// fallback) surfaces as the underlying read error instead.
	ErrCorruptHeader = errors.New("recordmgr: global header is corrupt")
)
