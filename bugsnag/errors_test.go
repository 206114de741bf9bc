package bugsnag

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	wrapped := fmt.Errorf("load order: %w", Abort(http.StatusNotFound, "Not Found"))

	cases := []struct {
		name string
		err  error
		want Classification
	}{
		{
			name: "abort",
			err:  Abort(http.StatusConflict, "Duplicate"),
			want: Classification{Structured: true, Reason: "Duplicate", Status: http.StatusConflict, Description: "abort 409: Duplicate"},
		},
		{
			name: "wrapped abort",
			err:  wrapped,
			want: Classification{Structured: true, Reason: "Not Found", Status: http.StatusNotFound, Description: wrapped.Error()},
		},
		{
			name: "generic",
			err:  errors.New("disk full"),
			want: Classification{Status: DefaultStatus, Description: "disk full"},
		},
		{
			name: "nil",
			err:  nil,
			want: Classification{Status: DefaultStatus},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestAbort_EmptyReasonUsesStatusText(t *testing.T) {
	var abort AbortError
	require.True(t, errors.As(Abort(http.StatusTeapot, ""), &abort))
	assert.Equal(t, "I'm a teapot", abort.Reason())
	assert.Equal(t, http.StatusTeapot, abort.Status())
}

func TestParseSeverity(t *testing.T) {
	for _, s := range []string{"error", "warning", "info"} {
		sev, err := ParseSeverity(s)
		require.NoError(t, err)
		assert.Equal(t, s, sev.String())
	}

	_, err := ParseSeverity("fatal")
	assert.ErrorIs(t, err, ErrInvalidSeverity)
}
