package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/edgebreaker/pkg/mesh/meshtest"
	"github.com/Faultbox/edgebreaker/pkg/obj"
)

func writeTorus(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "torus.obj")
	require.NoError(t, obj.WriteFile(path, meshtest.Torus(7, 5)))
	return path
}

func runOK(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, run(args, &out), "meshtool %s", strings.Join(args, " "))
	return out.String()
}

func TestEncodeDecodeVerify(t *testing.T) {
	for _, method := range []string{"standard", "predictive", "valence"} {
		t.Run(method, func(t *testing.T) {
			dir := t.TempDir()
			in := writeTorus(t, dir)
			drc := filepath.Join(dir, "torus.drc")
			out := filepath.Join(dir, "out.obj")

			report := runOK(t, "encode", "-method", method, in, drc)
			assert.Contains(t, report, "Traversal:  "+method)

			report = runOK(t, "decode", "-verify", in, drc, out)
			assert.Contains(t, report, "Verified against")

			back, err := obj.ReadFile(out)
			require.NoError(t, err)
			assert.Equal(t, 70, back.NumFaces())
		})
	}
}

func TestEncodeXZ(t *testing.T) {
	dir := t.TempDir()
	in := writeTorus(t, dir)
	drc := filepath.Join(dir, "torus.drc.xz")
	runOK(t, "encode", "-xz", "-speed", "0", in, drc)

	data, err := os.ReadFile(drc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, xzMagic))

	report := runOK(t, "info", drc)
	assert.Contains(t, report, "Traversal:  valence")
	assert.Contains(t, report, "Faces:      70")

	runOK(t, "decode", "-verify", in, drc, filepath.Join(dir, "out.obj"))
}

func TestDecodeVerifyMismatch(t *testing.T) {
	dir := t.TempDir()
	in := writeTorus(t, dir)
	other := filepath.Join(dir, "grid.obj")
	require.NoError(t, obj.WriteFile(other, meshtest.Grid(2, 2)))
	drc := filepath.Join(dir, "torus.drc")
	runOK(t, "encode", in, drc)

	err := run([]string{"decode", "-verify", other, drc, filepath.Join(dir, "out.obj")}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestStoreCommands(t *testing.T) {
	dir := t.TempDir()
	in := writeTorus(t, dir)
	db := filepath.Join(dir, "archive")

	report := runOK(t, "store", "put", "-store", db, "torus", in)
	assert.Contains(t, report, "Stored torus: 70 faces")

	report = runOK(t, "store", "list", "-store", db)
	assert.Contains(t, report, "torus")
	assert.Contains(t, report, "1 meshes")

	out := filepath.Join(dir, "restored.obj")
	runOK(t, "store", "get", "-store", db, "torus", out)
	back, err := obj.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 70, back.NumFaces())

	runOK(t, "store", "rm", "-store", db, "torus")
	report = runOK(t, "store", "list", "-store", db)
	assert.Contains(t, report, "0 meshes")
}

func TestUsageErrors(t *testing.T) {
	tests := [][]string{
		nil,
		{"bogus"},
		{"encode"},
		{"decode", "only-one.drc"},
		{"info"},
		{"store"},
	}
	for _, args := range tests {
		var out bytes.Buffer
		err := run(args, &out)
		var usage errUsage
		assert.ErrorAs(t, err, &usage, "args %v", args)
	}
}

func TestInfoRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.drc")
	require.NoError(t, os.WriteFile(path, []byte("definitely not draco"), 0644))
	assert.Error(t, run([]string{"info", path}, &bytes.Buffer{}))
}
