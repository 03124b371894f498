package buildinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrintBuildInfo_DefaultsAndSet(t *testing.T) {
	ov, od, oc := BuildVersion, BuildDate, BuildCommit
	t.Cleanup(func() { BuildVersion, BuildDate, BuildCommit = ov, od, oc })

	var buf bytes.Buffer
	BuildVersion, BuildDate, BuildCommit = "", "", ""
	PrintBuildInfo(&buf)
	require.Equal(t, "Build version: N/A\nBuild date: N/A\nBuild commit: N/A\n", buf.String())
	require.Equal(t, "gitlab-exporter/dev", UserAgent())

	buf.Reset()
	BuildVersion, BuildDate, BuildCommit = "v1", "2025-09-06", "deadbeef"
	PrintBuildInfo(&buf)
	require.Contains(t, buf.String(), "Build version: v1\n")
	require.Contains(t, buf.String(), "Build commit: deadbeef\n")
	require.Equal(t, "gitlab-exporter/v1", UserAgent())
}
