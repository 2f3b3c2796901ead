package endpoints

import (
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Resolve(t *testing.T) {
	registry := Default()

	tests := []struct {
		name     string
		endpoint string
		params   map[string]string
		expected string
	}{
		{
			name:     "token",
			endpoint: Token,
			expected: "https://x/token",
		},
		{
			name:     "user",
			endpoint: User,
			params:   map[string]string{"email": "a@b.com"},
			expected: "https://x/user/a@b.com",
		},
		{
			name:     "participante",
			endpoint: Participant,
			params: map[string]string{
				"origem_unidade":           "SIAPE",
				"cod_unidade_autorizadora": "1",
				"cod_unidade_lotacao":      "2",
				"matricula_siape":          "123",
				"unused":                   "ignored",
			},
			expected: "https://x/organizacao/SIAPE/1/2/participante/123",
		},
		{
			name:     "plano de entregas",
			endpoint: DeliveryPlan,
			params: map[string]string{
				"origem_unidade":           "SIORG",
				"cod_unidade_autorizadora": "10",
				"id_plano_entregas":        "555",
			},
			expected: "https://x/organizacao/SIORG/10/plano_entregas/555",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := registry.Resolve("https://x", tt.endpoint, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)

			again, err := registry.Resolve("https://x", tt.endpoint, tt.params)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestResolve_Malformed(t *testing.T) {
	_, err := Default().Resolve("https://x", User, map[string]string{"mail": "a@b.com"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
	assert.False(t, errors.Is(err, ErrNotDefined))
}

func TestResolve_NotDefined(t *testing.T) {
	for _, name := range []string{"unknown", ""} {
		_, err := Default().Resolve("https://x", name, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotDefined), name)
	}
}

func TestNewRegistry(t *testing.T) {
	_, err := NewRegistry(Descriptor{Path: "/x"})
	assert.Error(t, err)

	_, err = NewRegistry(Descriptor{Name: "a", Path: "/a"}, Descriptor{Name: "a", Path: "/b"})
	assert.Error(t, err)

	methods := []string{http.MethodGet}
	r, err := NewRegistry(Descriptor{Name: "a", Path: "/a", Methods: methods})
	require.NoError(t, err)
	methods[0] = http.MethodDelete

	d, err := r.Lookup("a")
	require.NoError(t, err)
	assert.True(t, d.Allows(http.MethodGet))
	assert.False(t, d.Allows(http.MethodDelete))
}

func TestDefault_Methods(t *testing.T) {
	registry := Default()

	token, err := registry.Lookup(Token)
	require.NoError(t, err)
	assert.True(t, token.Allows(http.MethodPost))
	assert.False(t, token.Allows(http.MethodGet))

	assert.Equal(t,
		[]string{Participant, DeliveryPlan, WorkPlan, Token, User, Users},
		registry.Names(),
	)
}
