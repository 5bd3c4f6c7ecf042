package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/quillbox/quillbox/internal/version"
)

func runVersionCmd(t *testing.T, args ...string) string {
	t.Helper()
	cmd := &cobra.Command{Use: "quillbox"}
	cmd.AddCommand(newVersionCmd())

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"version"}, args...))

	require.NoError(t, cmd.Execute())
	return strings.TrimSpace(out.String())
}

func TestVersionCommand_PrintsDetailedVersion(t *testing.T) {
	require.Equal(t, version.Detailed(), runVersionCmd(t))
}

func TestVersionCommand_ShortFlag(t *testing.T) {
	require.Equal(t, version.Short(), runVersionCmd(t, "--short"))
}
