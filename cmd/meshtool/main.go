// meshtool is a CLI utility for compressing triangle meshes with the
// edgebreaker codec.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// errUsage is returned after the usage text has been printed.
type errUsage string

func (e errUsage) Error() string { return string(e) }

func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		printUsage(stdout)
		return errUsage("missing command")
	}

	command, rest := args[0], args[1:]
	switch command {
	case "encode", "enc":
		return cmdEncode(rest, stdout)
	case "decode", "dec":
		return cmdDecode(rest, stdout)
	case "info":
		return cmdInfo(rest, stdout)
	case "store":
		return cmdStore(rest, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stdout)
		return errUsage("unknown command: " + command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `meshtool - edgebreaker mesh compression utility

Usage:
  meshtool <command> [options]

Commands:
  encode [flags] <in.obj> <out.drc>            Compress an OBJ mesh
  decode [flags] <in.drc> <out.obj>            Decompress to OBJ
  info <file.drc>                              Show stream header and counts
  store put [flags] <name> <in.obj|in.drc>     Archive a mesh
  store get [flags] <name> <out.obj|out.drc>   Restore an archived mesh
  store list [flags]                           List archived meshes
  store rm [flags] <name>                      Remove an archived mesh

Flags:
  -config <file>   YAML config (default ./meshtool.yaml)
  -method <name>   auto, standard, predictive or valence
  -speed <0..10>   smaller is slower and tighter
  -single          share one connectivity between attributes
  -xz              wrap encoded output in xz
  -store <dir>     mesh archive location
  -verify <obj>    (decode) compare the result with a reference mesh
  -debug           verbose logging

Examples:
  meshtool encode -speed 0 bunny.obj bunny.drc
  meshtool decode -verify bunny.obj bunny.drc out.obj
  meshtool store put bunny bunny.obj`)
}
