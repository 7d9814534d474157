package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so logs can be
// aggregated and queried by field.
const (
	// ========================================================================
	// Request & Operation
	// ========================================================================
	KeyRequestID = "request_id" // Request correlation id
	KeyOperation = "operation"  // Operation: resolve, descendants, sign, suggest, ...
	KeyUser      = "user"       // Requesting username
	KeyUserID    = "user_id"    // Requesting user id
	KeyClientIP  = "client_ip"  // Client IP address (without port)

	// ========================================================================
	// Filesystem
	// ========================================================================
	KeyPath      = "path"       // Absolute slash-delimited path
	KeyEntryUID  = "entry_uid"  // Entry public UUID
	KeyEntryID   = "entry_id"   // Entry internal numeric id
	KeyParentUID = "parent_uid" // Parent UUID
	KeyDepth     = "depth"      // Remaining traversal depth
	KeyPattern   = "pattern"    // Glob pattern
	KeyCount     = "count"      // Result count

	// ========================================================================
	// Access Control
	// ========================================================================
	KeyAction  = "action"  // read, write, metadata
	KeyAllowed = "allowed" // Permission decision
	KeyExpires = "expires" // Signed grant expiry (unix seconds)

	// ========================================================================
	// Cache
	// ========================================================================
	KeyCacheKey  = "cache_key"  // Fully-qualified cache key
	KeyCacheHit  = "cache_hit"  // Cache hit indicator
	KeyNamespace = "namespace"  // Cache namespace (full / icon-light)
	KeyBatchSize = "batch_size" // Specifiers in a batched lookup

	// ========================================================================
	// Errors & Performance
	// ========================================================================
	KeyError      = "error"       // Error message
	KeyDurationMS = "duration_ms" // Operation duration in milliseconds
)

// ============================================================================
// Field constructors for type safety
// These functions provide type-safe construction of slog.Attr values.
// ============================================================================

// RequestID returns a slog.Attr for the request correlation id.
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Operation returns a slog.Attr for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Username returns a slog.Attr for the requesting username.
func Username(name string) slog.Attr {
	return slog.String(KeyUser, name)
}

// UserID returns a slog.Attr for the requesting user id.
func UserID(id uint64) slog.Attr {
	return slog.Uint64(KeyUserID, id)
}

// Path returns a slog.Attr for a filesystem path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// EntryUID returns a slog.Attr for an entry UUID.
func EntryUID(uid string) slog.Attr {
	return slog.String(KeyEntryUID, uid)
}

// EntryID returns a slog.Attr for an entry's internal numeric id.
func EntryID(id uint64) slog.Attr {
	return slog.Uint64(KeyEntryID, id)
}

// Depth returns a slog.Attr for remaining traversal depth.
func Depth(d int) slog.Attr {
	return slog.Int(KeyDepth, d)
}

// Pattern returns a slog.Attr for a glob pattern.
func Pattern(p string) slog.Attr {
	return slog.String(KeyPattern, p)
}

// Count returns a slog.Attr for a result count.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Action returns a slog.Attr for an access action.
func Action(a string) slog.Attr {
	return slog.String(KeyAction, a)
}

// Allowed returns a slog.Attr for a permission decision.
func Allowed(ok bool) slog.Attr {
	return slog.Bool(KeyAllowed, ok)
}

// CacheKey returns a slog.Attr for a fully-qualified cache key.
func CacheKey(k string) slog.Attr {
	return slog.String(KeyCacheKey, k)
}

// CacheHit returns a slog.Attr for a cache hit indicator.
func CacheHit(hit bool) slog.Attr {
	return slog.Bool(KeyCacheHit, hit)
}

// BatchSize returns a slog.Attr for the number of specifiers in a batch.
func BatchSize(n int) slog.Attr {
	return slog.Int(KeyBatchSize, n)
}

// DurationMs returns a slog.Attr for operation duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMS, ms)
}

// Err returns a slog.Attr for an error, handling nil gracefully.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "<nil>")
	}
	return slog.String(KeyError, err.Error())
}
