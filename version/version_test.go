package version_test

import (
	"bytes"
	"encoding/json"
	"runtime"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/eth2near/relayer/version"
)

func runVersion(t *testing.T, args ...string) string {
	root := &cobra.Command{Use: "relayd"}
	version.AddVersionCommand(root, "relayd")

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(append([]string{"version"}, args...))
	require.NoError(t, root.Execute())

	return out.String()
}

func TestCommandVersion(t *testing.T) {
	t.Parallel()

	out := runVersion(t)
	require.Contains(t, out, "relayd "+version.Version())
	require.Contains(t, out, runtime.Version())
	require.Contains(t, version.String(), version.Version())
}

func TestCommandVersionJSON(t *testing.T) {
	t.Parallel()

	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(runVersion(t, "--json")), &info))
	require.Equal(t, version.BuildInfo(), info)
	require.NotEmpty(t, info.Commit)
}
