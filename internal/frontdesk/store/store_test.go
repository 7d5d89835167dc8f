package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
)

func TestContainsPattern(t *testing.T) {
	cases := []struct{ in, want string }{
		{"ada", "%ada%"},
		{"100%", `%100\%%`},
		{"a_b", `%a\_b%`},
		{`c:\dir`, `%c:\\dir%`},
		{`50%_\`, `%50\%\_\\%`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, store.ContainsPattern(tc.in), tc.in)
	}
}
