package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	clibase "github.com/shouni/go-cli-base"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-storyboard-kit/pkg/gemini"
	"github.com/shouni/go-storyboard-kit/pkg/storyboard"
)

func TestReadScript(t *testing.T) {
	got, err := readScript(strings.NewReader("  INT. ROOM - DAY\n"), "-")
	require.NoError(t, err)
	assert.Equal(t, "INT. ROOM - DAY", got)

	_, err = readScript(strings.NewReader(" \n "), "")
	assert.ErrorIs(t, err, storyboard.ErrEmptyScript)

	_, err = readScript(nil, "/no/such/script.txt")
	assert.Error(t, err)
}

func TestReadScenes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenes.md")
	require.NoError(t, os.WriteFile(path, []byte("## Scene 1\n- description: Dawn\n- camera: Pan\n"), 0o644))

	script, err := readScenes(path)
	require.NoError(t, err)
	require.Len(t, script.Scenes, 1)
	assert.Equal(t, "Dawn", script.Scenes[0].Description)

	_, err = readScenes(filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}

func TestPreRunRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	err := preRunAppE(rootCmd, nil)
	assert.ErrorIs(t, err, gemini.ErrMissingAPIKey)

	t.Setenv("GEMINI_API_KEY", "key")
	assert.NoError(t, preRunAppE(rootCmd, nil))
}

func TestCommandTree(t *testing.T) {
	names := func(parent string) []string {
		for _, c := range rootCmd.Commands() {
			if c.Name() == parent {
				var out []string
				for _, sub := range c.Commands() {
					out = append(out, sub.Name())
				}
				return out
			}
		}
		return nil
	}
	assert.ElementsMatch(t, []string{"restore", "angle", "group", "clone", "me", "product", "brand-mockup", "logo", "cgi"}, names("image"))
	assert.ElementsMatch(t, []string{"extract-prompt", "brand-identity", "cinematic", "novel", "polish", "swot", "marketing"}, names("text"))

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--help"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "storyboard")
	assert.Contains(t, buf.String(), "serve")
}

func TestRootFlags(t *testing.T) {
	t.Run("verbose は clibase の共通フラグを使う", func(t *testing.T) {
		f := rootCmd.PersistentFlags().Lookup("verbose")
		require.NotNil(t, f)
		assert.Equal(t, "V", f.Shorthand)

		require.NoError(t, rootCmd.PersistentFlags().Set("verbose", "true"))
		t.Cleanup(func() { clibase.Flags.Verbose = false })
		assert.True(t, clibase.Flags.Verbose)
	})

	t.Run("アプリ固有のフラグが載っている", func(t *testing.T) {
		for _, name := range []string{"output-dir", "model", "image-model", "http-timeout"} {
			assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
		}
	})

	t.Run("使わない --config は隠す", func(t *testing.T) {
		f := rootCmd.PersistentFlags().Lookup("config")
		require.NotNil(t, f)
		assert.True(t, f.Hidden)
	})

	t.Run("使い方の表示を抑止する", func(t *testing.T) {
		assert.True(t, rootCmd.SilenceUsage)
		assert.Equal(t, appName, rootCmd.Name())
	})
}

func TestOutputBaseName(t *testing.T) {
	a, b := outputBaseName("logo"), outputBaseName("logo")
	assert.True(t, strings.HasPrefix(a, "logo_"))
	assert.Len(t, a, len("logo_")+8)
	assert.NotEqual(t, a, b)
}
