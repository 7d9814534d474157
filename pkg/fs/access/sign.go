package access

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mime"
	"net/url"
	gopath "path"
	"strconv"
	"time"

	"github.com/loftfs/loft/pkg/fs/models"
)

// DefaultGrantTTLSeconds makes grants effectively non-expiring: clients embed
// grant URLs in long-lived UI state, and the only revocation mechanism is
// secret rotation anyway.
const DefaultGrantTTLSeconds int64 = 9999999999999

// Reason classifies signature verification failures.
type Reason string

const (
	// ReasonMissingParam means uid, expires, or signature was absent.
	ReasonMissingParam Reason = "missing_param"
	// ReasonUIDMismatch means the URL's uid differs from the expected one.
	ReasonUIDMismatch Reason = "uid_mismatch"
	// ReasonExpired means the grant's expiry has passed.
	ReasonExpired Reason = "expired"
	// ReasonInvalid means the signature matched neither the write grant nor
	// the requested action's grant.
	ReasonInvalid Reason = "invalid"
)

// SignatureAuthError is returned when a signed URL fails verification. The
// reason distinguishes missing parameters, uid mismatch, expiry, and invalid
// signatures.
type SignatureAuthError struct {
	Reason  Reason
	Message string
}

func (e *SignatureAuthError) Error() string {
	return e.Message
}

func authErr(reason Reason, format string, args ...any) *SignatureAuthError {
	return &SignatureAuthError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// SignedGrant is a stateless capability authorizing one action on one entry
// until expiry, with pre-built URLs for the common operations.
type SignedGrant struct {
	UID       string `json:"uid"`
	Expires   int64  `json:"expires"`
	Signature string `json:"signature"`

	URL         string `json:"url"`
	ReadURL     string `json:"read_url"`
	WriteURL    string `json:"write_url"`
	MetadataURL string `json:"metadata_url"`

	EntryName     string    `json:"fsentry_name"`
	EntryIsDir    bool      `json:"fsentry_is_dir"`
	EntrySize     int64     `json:"fsentry_size"`
	EntryType     string    `json:"fsentry_type,omitempty"`
	EntryAccessed time.Time `json:"fsentry_accessed"`
	EntryModified time.Time `json:"fsentry_modified"`
	EntryCreated  time.Time `json:"fsentry_created"`
}

// Signer issues and verifies HMAC-backed access grants.
type Signer struct {
	secret     string
	apiBaseURL string
	ttlSeconds int64
	now        func() time.Time
}

// SignerOption customizes a Signer.
type SignerOption func(*Signer)

// WithGrantTTL overrides the grant lifetime in seconds.
func WithGrantTTL(seconds int64) SignerOption {
	return func(s *Signer) { s.ttlSeconds = seconds }
}

// WithClock overrides the time source. Used by expiry tests.
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) { s.now = now }
}

// NewSigner creates a Signer for the given shared secret and API base URL.
func NewSigner(secret, apiBaseURL string, opts ...SignerOption) *Signer {
	s := &Signer{
		secret:     secret,
		apiBaseURL: apiBaseURL,
		ttlSeconds: DefaultGrantTTLSeconds,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// signature computes the hex HMAC-SHA256 digest over
// "{uid}/{action}/{secret}/{expires}".
func (s *Signer) signature(uid string, action Action, expires int64) string {
	mac := hmac.New(sha256.New, []byte(s.secret))
	fmt.Fprintf(mac, "%s/%s/%s/%d", uid, action, s.secret, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

// Sign issues a grant for the given action on the entry. The same signature
// backs every pre-built URL; verification decides what it authorizes.
func (s *Signer) Sign(entry *models.FSEntry, action Action) (*SignedGrant, error) {
	if entry == nil {
		return nil, fmt.Errorf("no entry found with this uid")
	}

	uid := entry.UUID
	expires := s.now().Unix() + s.ttlSeconds
	sig := s.signature(uid, action, expires)
	query := fmt.Sprintf("uid=%s&expires=%d&signature=%s", url.QueryEscape(uid), expires, sig)

	return &SignedGrant{
		UID:       uid,
		Expires:   expires,
		Signature: sig,

		URL:         s.apiBaseURL + "/file?" + query,
		ReadURL:     s.apiBaseURL + "/file?" + query,
		WriteURL:    s.apiBaseURL + "/writeFile?" + query,
		MetadataURL: s.apiBaseURL + "/itemMetadata?" + query,

		EntryName:     entry.Name,
		EntryIsDir:    entry.IsDir,
		EntrySize:     entry.Size,
		EntryType:     mime.TypeByExtension(gopath.Ext(entry.Name)),
		EntryAccessed: entry.Accessed,
		EntryModified: entry.Modified,
		EntryCreated:  entry.Created,
	}, nil
}

// VerifyOptions constrains verification beyond the action.
type VerifyOptions struct {
	// UID, when set, requires the URL's uid to match exactly.
	UID string
}

// Verify checks a signed URL for the given action.
//
// It is a pure function over the URL and the clock: no I/O beyond hashing,
// safe to call on every request. A signature issued for write authorizes any
// action; otherwise the signature must match the requested action exactly.
func (s *Signer) Verify(rawURL string, action Action, opts *VerifyOptions) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return authErr(ReasonInvalid, "authentication failed: malformed url")
	}
	query := parsed.Query()

	uid := query.Get("uid")
	expiresStr := query.Get("expires")
	sig := query.Get("signature")

	switch {
	case uid == "":
		return authErr(ReasonMissingParam, "`uid` is required for signature-based authentication")
	case action == "":
		return authErr(ReasonMissingParam, "`action` is required for signature-based authentication")
	case expiresStr == "":
		return authErr(ReasonMissingParam, "`expires` is required for signature-based authentication")
	case sig == "":
		return authErr(ReasonMissingParam, "`signature` is required for signature-based authentication")
	}

	if opts != nil && opts.UID != "" && uid != opts.UID {
		return authErr(ReasonUIDMismatch, "authentication failed: `uid` does not match")
	}

	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return authErr(ReasonInvalid, "authentication failed: malformed `expires`")
	}
	if expires < s.now().Unix() {
		return authErr(ReasonExpired, "authentication failed: signature expired")
	}

	// A write signature authorizes every action; fall back to the specific
	// action's signature.
	if hmac.Equal([]byte(sig), []byte(s.signature(uid, ActionWrite, expires))) {
		return nil
	}
	if hmac.Equal([]byte(sig), []byte(s.signature(uid, action, expires))) {
		return nil
	}

	return authErr(ReasonInvalid, "authentication failed")
}
