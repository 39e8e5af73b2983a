package backend

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeQuery(t *testing.T) {
	cases := []struct {
		name  string
		query any
		want  string
	}{
		{"nil", nil, ""},
		{"empty", Params{}, ""},
		{"scalar", Params{"populate": "*"}, "populate=%2A"},
		{
			"nested filter",
			Params{"filters": Params{"slug": Params{"$eq": "salsa"}}},
			"filters%5Bslug%5D%5B%24eq%5D=salsa",
		},
		{
			"array",
			Params{"sort": []string{"createdAt:desc", "titulo:asc"}},
			"sort%5B0%5D=createdAt%3Adesc&sort%5B1%5D=titulo%3Aasc",
		},
		{
			"sorted keys and numbers",
			Params{"b": 2, "a": true, "c": 1.5},
			"a=true&b=2&c=1.5",
		},
		{
			"nil values skipped",
			Params{"a": nil, "b": []string(nil), "c": "x"},
			"c=x",
		},
		{
			"spaces and unicode",
			Params{"q": "bachata sensual ñ"},
			"q=bachata%20sensual%20%C3%B1",
		},
		{
			"url values pass through",
			url.Values{"x": []string{"1"}},
			"x=1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, EncodeQuery(tc.query))
		})
	}
}

func TestEncodeQueryRoundTripsThroughParse(t *testing.T) {
	encoded := EncodeQuery(Params{
		"populate": Params{"purchased_clases": Params{"populate": []string{"thumbnail"}}},
	})

	values, err := url.ParseQuery(encoded)
	require.NoError(t, err)
	require.Equal(t, "thumbnail", values.Get("populate[purchased_clases][populate][0]"))
}

func TestClientURL(t *testing.T) {
	client := New("http://cms.local/", "api/", 0)
	require.Equal(t, "http://cms.local/api/clases", client.URL("/clases", nil))

	bare := New("http://cms.local", "", 0)
	require.Equal(t, "http://cms.local/clases?populate=%2A", bare.URL("clases", Params{"populate": "*"}))
}
