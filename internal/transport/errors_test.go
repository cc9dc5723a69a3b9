package transport

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		credential bool
		tokenBad   bool
		validation bool
		network    bool
	}{
		{
			name:       "credential",
			err:        NewError(KindCredential, "invalid username or password", nil),
			credential: true,
		},
		{
			name:     "token invalid",
			err:      NewError(KindTokenInvalid, "invalid refresh token", nil),
			tokenBad: true,
		},
		{
			name:       "validation",
			err:        NewError(KindValidation, "username is required", nil),
			validation: true,
		},
		{
			name:    "network",
			err:     NewError(KindNetwork, "", errors.New("connection refused")),
			network: true,
		},
		{
			name:    "unclassified counts as network",
			err:     errors.New("something broke"),
			network: true,
		},
		{
			name:       "wrapped keeps its kind",
			err:        errors.Wrap(NewError(KindCredential, "bad password", nil), "sign-in"),
			credential: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.credential, IsCredential(tt.err))
			require.Equal(t, tt.tokenBad, IsTokenInvalid(tt.err))
			require.Equal(t, tt.validation, IsValidation(tt.err))
			require.Equal(t, tt.network, IsNetwork(tt.err))
		})
	}
}

func TestIsNetworkNil(t *testing.T) {
	require.False(t, IsNetwork(nil))
}

func TestErrorMessage(t *testing.T) {
	require.Equal(t, "server said no", NewError(KindValidation, "server said no", nil).Error())
	require.Equal(t, "dial failed", NewError(KindNetwork, "", errors.New("dial failed")).Error())
	require.Equal(t, "network error", NewError(KindNetwork, "", nil).Error())
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("dial failed")
	err := NewError(KindNetwork, "", cause)
	require.ErrorIs(t, err, cause)
}
