package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeTarget struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		limit   int64
		wantErr error
		want    decodeTarget
	}{
		{
			name: "valid json",
			body: `{"name": "test", "age": 30}`,
			want: decodeTarget{Name: "test", Age: 30},
		},
		{
			name:    "invalid json",
			body:    `{"name": "test", "age": 30,}`, // trailing comma
			wantErr: ErrInvalidBody,
		},
		{
			name:    "empty body",
			body:    "",
			wantErr: ErrInvalidBody,
		},
		{
			name:    "wrong type",
			body:    `{"age": "thirty"}`,
			wantErr: ErrInvalidBody,
		},
		{
			name:    "over the limit",
			body:    `{"name": "` + strings.Repeat("x", 64) + `"}`,
			limit:   16,
			wantErr: ErrBodyTooLarge,
		},
		{
			name:  "within the limit",
			body:  `{"name": "short"}`,
			limit: 64,
			want:  decodeTarget{Name: "short"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tc.body))
			if tc.limit > 0 {
				LimitBody(httptest.NewRecorder(), req, tc.limit)
			}

			var got decodeTarget
			err := DecodeJSON(req, &got)

			if tc.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// errorReader fails every read.
type errorReader struct{}

func (errorReader) Read([]byte) (int, error) { return 0, errors.New("read error") }

func TestDecodeJSONReadError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", errorReader{})

	err := DecodeJSON(req, &decodeTarget{})

	assert.ErrorIs(t, err, ErrInvalidBody)
}

func TestLimitBodyDefault(t *testing.T) {
	body := `{"name": "` + strings.Repeat("x", int(DefaultBodyLimit)) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	LimitBody(httptest.NewRecorder(), req, 0)

	err := DecodeJSON(req, &decodeTarget{})

	assert.ErrorIs(t, err, ErrBodyTooLarge)
}
