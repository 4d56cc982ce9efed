package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/edgebreaker/internal/config"
	"github.com/Faultbox/edgebreaker/internal/logger"
	"github.com/Faultbox/edgebreaker/internal/store"
	"github.com/Faultbox/edgebreaker/pkg/edgebreaker"
	"github.com/Faultbox/edgebreaker/pkg/mesh"
	"github.com/Faultbox/edgebreaker/pkg/obj"
)

// setup parses the shared flags, loads the config and installs the logger.
func setup(name string, args []string, extra func(fs *flag.FlagSet)) (*config.Config, *flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	flags := config.BindFlags(fs)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(flags)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, nil, err
	}
	return cfg, fs, nil
}

func readOBJ(path string, cfg *config.Config) (*mesh.Mesh, error) {
	m, err := obj.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if cfg.Encoder.Deduplicate {
		m.DeduplicatePointIDs()
	}
	return m, nil
}

func encodeMesh(m *mesh.Mesh, cfg *config.Config) ([]byte, edgebreaker.Stats, error) {
	opts, err := cfg.EncoderOptions(logger.Named("encoder"))
	if err != nil {
		return nil, edgebreaker.Stats{}, err
	}
	enc := edgebreaker.NewEncoder(opts)
	data, err := enc.Encode(m)
	if err != nil {
		return nil, edgebreaker.Stats{}, err
	}
	return data, enc.Stats(), nil
}

func decodeMesh(data []byte) (*mesh.Mesh, error) {
	raw, err := unwrap(data)
	if err != nil {
		return nil, err
	}
	return edgebreaker.NewDecoder(logger.Named("decoder")).Decode(raw)
}

func cmdEncode(args []string, stdout io.Writer) error {
	cfg, fs, err := setup("encode", args, nil)
	if err != nil {
		return err
	}
	defer logger.Sync()
	if fs.NArg() < 2 {
		return errUsage("usage: meshtool encode [flags] <in.obj> <out.drc>")
	}

	m, err := readOBJ(fs.Arg(0), cfg)
	if err != nil {
		return err
	}
	data, stats, err := encodeMesh(m, cfg)
	if err != nil {
		return err
	}
	out := data
	if cfg.Output.XZ {
		if out, err = wrapXZ(data); err != nil {
			return err
		}
	}
	if err := os.WriteFile(fs.Arg(1), out, 0644); err != nil {
		return errors.Wrap(err, "writing output")
	}

	logger.Log.Info("encoded", zap.String("input", fs.Arg(0)), zap.Int("bytes", len(out)))
	fmt.Fprintf(stdout, "Mesh:       %s\n", obj.Summary(m))
	if g, ok := obj.Measure(m); ok {
		fmt.Fprintf(stdout, "Bounds:     %v .. %v, area %.4g\n", g.Min, g.Max, g.Area)
	}
	fmt.Fprintf(stdout, "Traversal:  %v\n", stats.Traversal)
	fmt.Fprintf(stdout, "Symbols:    %d (%d split)\n", len(stats.Symbols), stats.NumSplitSymbols)
	fmt.Fprintf(stdout, "Components: %d, holes: %d\n", stats.NumComponents, stats.NumHoles)
	fmt.Fprintf(stdout, "Size:       %d bytes", len(out))
	if cfg.Output.XZ {
		fmt.Fprintf(stdout, " (%d before xz)", len(data))
	}
	fmt.Fprintln(stdout)
	return nil
}

func cmdDecode(args []string, stdout io.Writer) error {
	var verify string
	cfg, fs, err := setup("decode", args, func(fs *flag.FlagSet) {
		fs.StringVar(&verify, "verify", "", "Reference OBJ to compare against")
	})
	if err != nil {
		return err
	}
	defer logger.Sync()
	if fs.NArg() < 2 {
		return errUsage("usage: meshtool decode [flags] <in.drc> <out.obj>")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return errors.Wrap(err, "reading input")
	}
	m, err := decodeMesh(data)
	if err != nil {
		return err
	}
	if err := obj.WriteFile(fs.Arg(1), m); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Mesh: %s\n", obj.Summary(m))

	if verify != "" {
		ref, err := readOBJ(verify, cfg)
		if err != nil {
			return err
		}
		if !mesh.Equivalent(ref, m) {
			return errors.Errorf("decoded mesh differs from %s", verify)
		}
		fmt.Fprintf(stdout, "Verified against %s\n", verify)
	}
	return nil
}

func cmdInfo(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return errUsage("usage: meshtool info <file.drc>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "reading input")
	}
	raw, err := unwrap(data)
	if err != nil {
		return err
	}
	info, err := edgebreaker.Inspect(raw)
	if err != nil {
		return err
	}
	printInfo(stdout, args[0], len(data), info)
	return nil
}

func printInfo(w io.Writer, name string, size int, info edgebreaker.Info) {
	fmt.Fprintf(w, "File:       %s\n", name)
	fmt.Fprintf(w, "Size:       %d bytes\n", size)
	fmt.Fprintf(w, "Version:    %v\n", info.Version)
	fmt.Fprintf(w, "Traversal:  %v\n", info.Traversal)
	fmt.Fprintf(w, "Faces:      %d\n", info.NumFaces)
	fmt.Fprintf(w, "Vertices:   %d\n", info.NumVertices)
	fmt.Fprintf(w, "Symbols:    %d (%d split)\n", info.NumSymbols, info.NumSplitSymbols)
	fmt.Fprintf(w, "Attr data:  %d\n", info.NumAttributeData)
}

func cmdStore(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return errUsage("usage: meshtool store <put|get|list|rm> ...")
	}
	sub := args[0]
	cfg, fs, err := setup("store "+sub, args[1:], nil)
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := store.Open(cfg.Store.Path, logger.Named("store"))
	if err != nil {
		return err
	}
	defer s.Close()

	switch sub {
	case "put":
		if fs.NArg() < 2 {
			return errUsage("usage: meshtool store put [flags] <name> <in.obj|in.drc>")
		}
		data, err := loadEncoded(fs.Arg(1), cfg)
		if err != nil {
			return err
		}
		entry, err := s.Put(fs.Arg(0), data)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Stored %s: %d faces, %d bytes\n", entry.Name, entry.Info.NumFaces, entry.Size)
	case "get":
		if fs.NArg() < 2 {
			return errUsage("usage: meshtool store get [flags] <name> <out.obj|out.drc>")
		}
		data, err := s.Get(fs.Arg(0))
		if err != nil {
			return err
		}
		if isOBJ(fs.Arg(1)) {
			m, err := edgebreaker.NewDecoder(logger.Named("decoder")).Decode(data)
			if err != nil {
				return err
			}
			return obj.WriteFile(fs.Arg(1), m)
		}
		if cfg.Output.XZ {
			if data, err = wrapXZ(data); err != nil {
				return err
			}
		}
		return os.WriteFile(fs.Arg(1), data, 0644)
	case "list", "ls":
		entries, err := s.List()
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(stdout, "%-24s %-10v %8d faces %10d bytes\n", e.Name, e.Info.Traversal, e.Info.NumFaces, e.Size)
		}
		fmt.Fprintf(stdout, "%d meshes\n", len(entries))
	case "rm", "delete":
		if fs.NArg() < 1 {
			return errUsage("usage: meshtool store rm [flags] <name>")
		}
		return s.Delete(fs.Arg(0))
	default:
		return errUsage("unknown store command: " + sub)
	}
	return nil
}

// loadEncoded returns the codec stream for path, encoding OBJ input first.
func loadEncoded(path string, cfg *config.Config) ([]byte, error) {
	if isOBJ(path) {
		m, err := readOBJ(path, cfg)
		if err != nil {
			return nil, err
		}
		data, _, err := encodeMesh(m, cfg)
		return data, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading input")
	}
	return unwrap(data)
}

func isOBJ(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".obj")
}
