package version

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestFull(t *testing.T) {
	t.Parallel()

	full := Full("house-ctl")

	require.Contains(t, full, "house-ctl "+Short())
	require.Contains(t, full, "commit "+Commit)
}

// TestVersionCommand prints the build of the root program.
func TestVersionCommand(t *testing.T) {
	t.Parallel()

	root := &cobra.Command{Use: "house-server"}
	AttachCobraVersionCommand(root)

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	require.Equal(t, Full("house-server")+"\n", out.String())
}
