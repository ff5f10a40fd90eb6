package store

import "errors"

// Sentinel errors returned by repositories and local stores to signal
// well-known failure conditions. Callers should use [errors.Is] to match
// against these values.
var (
	// ErrKeyNotFound is returned by [KV.Get] when no blob is stored under the
	// requested key.
	ErrKeyNotFound = errors.New("key not found")

	// ErrUnsupportedDSN is returned by [NewKV] for a DSN scheme it cannot open.
	ErrUnsupportedDSN = errors.New("unsupported local storage DSN")

	// ErrConversationNotFound is returned when an update or delete targets a
	// conversation (identified by id and user_id) that does not exist.
	ErrConversationNotFound = errors.New("conversation was not found")

	// ErrConversationAlreadyExists is returned when a create collides with an
	// existing (user_id, id) pair.
	ErrConversationAlreadyExists = errors.New("conversation already exists")

	// ErrConversationBusy is returned by [Replica.Replace] when a send is in
	// flight for the conversation.
	ErrConversationBusy = errors.New("conversation has an in-flight send")

	// ErrReplicaNotLoaded is returned when the replica or journal is used
	// before Load.
	ErrReplicaNotLoaded = errors.New("local state is not loaded")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan conversation row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan conversation rows")

	// ErrStorageUnavailable marks a failure the database reported as
	// transient: a dropped connection, a deadlock or a server restart.
	ErrStorageUnavailable = errors.New("storage temporarily unavailable")

	// ErrBeginningTransaction is returned when a local transaction cannot be
	// started, typically because another process holds the write lock.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommittingTransaction is returned when a local transaction fails to
	// commit.
	ErrCommittingTransaction = errors.New("failed to commit transaction")

	// ErrEncoding is returned when a value cannot be converted to or from its
	// stored JSON form.
	ErrEncoding = errors.New("failed to encode stored value")
)
