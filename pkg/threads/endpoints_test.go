package threads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "threadscli/pkg/errors"
)

func TestShortcodeToID(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"C8H5FiCtESk", "3388928313420694692"},
		{"DAbc-_12xyZ", "3466491812650884249"},
		{"B", "1"},
		{"C8H5FiCtESkXYZ", "3388928313420694692"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := ShortcodeToID(tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ShortcodeToID("abc!")
	assert.Error(t, err)
	_, err = ShortcodeToID("")
	assert.Error(t, err)
}

func TestIDToShortcode(t *testing.T) {
	code, err := IDToShortcode("3388928313420694692")
	require.NoError(t, err)
	assert.Equal(t, "C8H5FiCtESk", code)

	code, err = IDToShortcode("0")
	require.NoError(t, err)
	assert.Equal(t, "A", code)

	_, err = IDToShortcode("12a")
	assert.Error(t, err)
}

func TestParsePostRef(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want PostRef
	}{
		{"numeric id", "3388928313420694692", PostRef{ID: "3388928313420694692"}},
		{"short code", "C8H5FiCtESk", PostRef{ID: "3388928313420694692", Code: "C8H5FiCtESk"}},
		{"post url", "https://www.threads.net/@zuck/post/C8H5FiCtESk", PostRef{ID: "3388928313420694692", Code: "C8H5FiCtESk"}},
		{"url with query", "https://www.threads.com/@zuck/post/C8H5FiCtESk/?xmt=abc", PostRef{ID: "3388928313420694692", Code: "C8H5FiCtESk"}},
		{"short url", "threads.com/t/C8H5FiCtESk", PostRef{ID: "3388928313420694692", Code: "C8H5FiCtESk"}},
		{"padded", "  3388928313420694692 ", PostRef{ID: "3388928313420694692"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePostRef(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "https://www.threads.com/@zuck", "not a code!"} {
		_, err := ParsePostRef(bad)
		assert.True(t, errs.Is(err, errs.KindConfig), bad)
	}
}

func TestSanitizeUsername(t *testing.T) {
	assert.Equal(t, "zuck", SanitizeUsername("@zuck"))
	assert.Equal(t, "zuck", SanitizeUsername("https://www.threads.com/@zuck"))
	assert.Equal(t, "zuck", SanitizeUsername("https://www.threads.net/@zuck/replies?x=1"))
	assert.Equal(t, "zuck", SanitizeUsername(" zuck/ "))
	assert.Equal(t, "", SanitizeUsername(""))
}

func TestIsValidUsername(t *testing.T) {
	assert.True(t, IsValidUsername("mark.zuck_1"))
	assert.False(t, IsValidUsername(""))
	assert.False(t, IsValidUsername("has space"))
	assert.False(t, IsValidUsername("toolong_toolong_toolong_toolong"))
}

func TestURLs(t *testing.T) {
	assert.Equal(t, "https://www.threads.com/@zuck/post/C8H5FiCtESk", PostURL("zuck", "C8H5FiCtESk"))
	assert.Equal(t, "https://www.threads.com/t/C8H5FiCtESk", PostURL("", "C8H5FiCtESk"))
	assert.Empty(t, PostURL("zuck", ""))
	assert.Equal(t, "https://www.threads.com/@zuck", ProfileURL("zuck"))
}

func TestClampPageSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, clampPageSize(0))
	assert.Equal(t, MaxPageSize, clampPageSize(500))
	assert.Equal(t, 10, clampPageSize(10))
}
