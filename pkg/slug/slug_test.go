package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tradecardhq/tradecard/pkg/slug"
)

func TestMake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		opts []slug.Option
		want string
	}{
		{name: "simple title", in: "Handmade Leather Wallet", want: "handmade-leather-wallet"},
		{name: "accents folded", in: "Café Déco Lámpara", want: "cafe-deco-lampara"},
		{name: "punctuation collapsed", in: "50% off!! (today)", want: "50-off-today"},
		{name: "leading and trailing junk", in: "  ~Vintage~  ", want: "vintage"},
		{name: "empty input", in: "", want: ""},
		{
			name: "max length truncates on boundary",
			in:   "a very long product title here",
			opts: []slug.Option{slug.MaxLength(12)},
			want: "a-very-long",
		},
		{
			name: "custom separator",
			in:   "blue ceramic mug",
			opts: []slug.Option{slug.Separator("_")},
			want: "blue_ceramic_mug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, slug.Make(tt.in, tt.opts...))
		})
	}
}
