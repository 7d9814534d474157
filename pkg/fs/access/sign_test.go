package access

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loftfs/loft/pkg/fs/models"
)

func testSigner(opts ...SignerOption) *Signer {
	return NewSigner("test-secret", "http://localhost:4100", opts...)
}

func testEntry() *models.FSEntry {
	return &models.FSEntry{
		UUID: "11111111-2222-3333-4444-555555555555",
		Name: "report.pdf",
		Size: 1024,
	}
}

func reasonOf(t *testing.T, err error) Reason {
	t.Helper()
	var authErr *SignatureAuthError
	require.ErrorAs(t, err, &authErr)
	return authErr.Reason
}

func TestSign(t *testing.T) {
	signer := testSigner()
	entry := testEntry()

	grant, err := signer.Sign(entry, ActionWrite)
	require.NoError(t, err)

	assert.Equal(t, entry.UUID, grant.UID)
	assert.NotEmpty(t, grant.Signature)
	assert.Contains(t, grant.URL, "/file?uid=")
	assert.Contains(t, grant.WriteURL, "/writeFile?")
	assert.Contains(t, grant.MetadataURL, "/itemMetadata?")
	assert.Equal(t, "report.pdf", grant.EntryName)
	assert.Equal(t, int64(1024), grant.EntrySize)
	assert.Equal(t, "application/pdf", grant.EntryType)

	t.Run("nil entry rejected", func(t *testing.T) {
		_, err := signer.Sign(nil, ActionRead)
		assert.Error(t, err)
	})
}

func TestVerify(t *testing.T) {
	signer := testSigner()
	entry := testEntry()

	t.Run("valid grant for same action", func(t *testing.T) {
		grant, err := signer.Sign(entry, ActionRead)
		require.NoError(t, err)
		assert.NoError(t, signer.Verify(grant.URL, ActionRead, nil))
	})

	t.Run("write grant authorizes every action", func(t *testing.T) {
		grant, err := signer.Sign(entry, ActionWrite)
		require.NoError(t, err)
		for _, action := range []Action{ActionRead, ActionWrite, ActionMetadata} {
			assert.NoError(t, signer.Verify(grant.URL, action, nil), string(action))
		}
	})

	t.Run("read grant does not authorize write", func(t *testing.T) {
		grant, err := signer.Sign(entry, ActionRead)
		require.NoError(t, err)
		err = signer.Verify(grant.URL, ActionWrite, nil)
		assert.Equal(t, ReasonInvalid, reasonOf(t, err))
	})

	t.Run("missing parameters are distinguished", func(t *testing.T) {
		err := signer.Verify("http://localhost:4100/file?expires=99&signature=x", ActionRead, nil)
		assert.Equal(t, ReasonMissingParam, reasonOf(t, err))

		err = signer.Verify("http://localhost:4100/file?uid=u&signature=x", ActionRead, nil)
		assert.Equal(t, ReasonMissingParam, reasonOf(t, err))

		err = signer.Verify("http://localhost:4100/file?uid=u&expires=99", ActionRead, nil)
		assert.Equal(t, ReasonMissingParam, reasonOf(t, err))

		err = signer.Verify("http://localhost:4100/file?uid=u&expires=99&signature=x", "", nil)
		assert.Equal(t, ReasonMissingParam, reasonOf(t, err))
	})

	t.Run("uid constraint enforced", func(t *testing.T) {
		grant, err := signer.Sign(entry, ActionRead)
		require.NoError(t, err)

		assert.NoError(t, signer.Verify(grant.URL, ActionRead, &VerifyOptions{UID: entry.UUID}))

		err = signer.Verify(grant.URL, ActionRead, &VerifyOptions{UID: "some-other-uid"})
		assert.Equal(t, ReasonUIDMismatch, reasonOf(t, err))
	})

	t.Run("expired grant rejected", func(t *testing.T) {
		now := time.Now()
		past := testSigner(WithGrantTTL(60), WithClock(func() time.Time { return now }))
		grant, err := past.Sign(entry, ActionRead)
		require.NoError(t, err)

		later := testSigner(WithClock(func() time.Time { return now.Add(2 * time.Minute) }))
		err = later.Verify(grant.URL, ActionRead, nil)
		assert.Equal(t, ReasonExpired, reasonOf(t, err))
	})

	t.Run("tampered signature rejected", func(t *testing.T) {
		grant, err := signer.Sign(entry, ActionRead)
		require.NoError(t, err)

		other := NewSigner("wrong-secret", "http://localhost:4100")
		err = other.Verify(grant.URL, ActionRead, nil)
		assert.Equal(t, ReasonInvalid, reasonOf(t, err))
	})

	t.Run("malformed url rejected", func(t *testing.T) {
		err := signer.Verify("http://[::1]:bad/file", ActionRead, nil)
		var authErr *SignatureAuthError
		assert.True(t, errors.As(err, &authErr))
	})
}
