package device

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestParseLocale(t *testing.T) {
	cases := map[string]struct {
		raw      string
		expected string
	}{
		"posix with charset": {raw: "en_US.UTF-8", expected: "en"},
		"with modifier":      {raw: "de_DE@euro", expected: "de"},
		"bcp47":              {raw: "pt-BR", expected: "pt"},
		"language only":      {raw: "fr", expected: "fr"},
		"c locale":           {raw: "C.UTF-8", expected: ""},
		"posix":              {raw: "POSIX", expected: ""},
		"empty":              {raw: "", expected: ""},
		"garbage":            {raw: "not a locale!", expected: ""},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expected, ParseLocale(tc.raw))
		})
	}
}

func TestLocale_Precedence(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "es_ES.UTF-8")
	t.Setenv("LANG", "en_US.UTF-8")
	require.Equal(t, "es", Locale())

	t.Setenv("LC_ALL", "ja_JP.UTF-8")
	require.Equal(t, "ja", Locale())
}

func TestDetect(t *testing.T) {
	t.Setenv("LC_ALL", "en_GB.UTF-8")

	ctx := Detect(App{Version: "1.4.0", BuildNumber: "42", Debug: true}).DeviceContext()
	require.True(t, ctx.IsDebug)
	require.Equal(t, "en", ctx.Locale)
	require.Equal(t, osName(runtime.GOOS), ctx.OSName)
	require.Equal(t, "1.4.0", ctx.AppVersion)
	require.Equal(t, "42", ctx.AppBuildNumber)
	require.NotEmpty(t, ctx.DeviceModel)
}

func TestLoadOrCreateID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", idFileName)

	first, err := LoadOrCreateID(path)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, first)

	second, err := LoadOrCreateID(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestLoadOrCreateID_ReplacesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), idFileName)
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	id, err := LoadOrCreateID(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, id.String()+"\n", string(data))
}
