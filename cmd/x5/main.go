// Command x5 is a command line front end to the X5 index.
//
//	x5 encode -lat 51.5 -lon -0.12
//	x5 decode e4ko2y
//	x5 name e4ko2y
//	x5 parse apple-quiet-river
//	x5 locate -lat 51.5 -lon -0.12
//	x5 distance [-sigma 1.5] e4ko2y e4ko2z
//	x5 export [-level 2 | -geojson] e4ko2y
//	x5 publish -n 1000 -lat 59.33 -lon 18.07
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/x5geo/x5-index/internal/core/config"
	"github.com/x5geo/x5-index/internal/export"
	"github.com/x5geo/x5-index/internal/vocab"
	"github.com/x5geo/x5-index/pkg/codec"
	"github.com/x5geo/x5-index/pkg/gpspack"
	"github.com/x5geo/x5-index/pkg/x5"
)

const usage = `usage: x5 <command> [flags] [args]

commands:
  encode    -lat LAT -lon LON      token (and name with -vocab) of a point
  decode    TOKEN                  center of a token's cell
  name      TOKEN                  three-word name of a token
  parse     NAME                   token of a three-word name
  locate    -lat LAT -lon LON      full address of a point as JSON
  distance  [-sigma M] TOKEN TOKEN meters between two cell centers
  export    [-level N|-geojson] TOKEN
                                   triangles of one level, or all regions as GeoJSON
  publish   [-n N -lat LAT -lon LON -spread DEG -rate R]
                                   send synthetic point events to the ingest topic
`

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type command func(build func(vocabFile string) (*x5.Index, error), args []string, stdout io.Writer) error

var commands = map[string]command{
	"encode":   cmdEncode,
	"decode":   cmdDecode,
	"name":     cmdName,
	"parse":    cmdParse,
	"locate":   cmdLocate,
	"distance": cmdDistance,
	"export":   cmdExport,
	"publish":  cmdPublish,
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "x5: unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	cfg := config.FromEnv()
	// only the grid matters here; x5.New validates it
	build := func(vocabFile string) (*x5.Index, error) {
		var words *codec.Vocabulary
		if vocabFile != "" {
			v, err := vocab.Load(vocabFile)
			if err != nil {
				return nil, err
			}
			words = v
		}
		return x5.New(cfg.Grid, words)
	}
	defaultVocab = cfg.VocabFile

	if err := cmd(build, args[1:], stdout); err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			fmt.Fprint(stderr, usage)
			return 2
		case errors.Is(err, errUsage):
			fmt.Fprintf(stderr, "x5 %s: %v\n", args[0], err)
			return 2
		}
		fmt.Fprintf(stderr, "x5 %s: %v\n", args[0], err)
		return 1
	}
	return 0
}

// defaultVocab seeds -vocab from VOCAB_FILE.
var defaultVocab string

func newFlags(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	vf := fs.String("vocab", defaultVocab, "word list file (.yaml or .txt)")
	return fs, vf
}

func parse(fs *flag.FlagSet, args []string, positional int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != positional {
		return nil, fmt.Errorf("%w: want %d argument(s), got %d", errUsage, positional, fs.NArg())
	}
	return fs.Args(), nil
}

func cmdEncode(build func(string) (*x5.Index, error), args []string, out io.Writer) error {
	fs, vf := newFlags("encode")
	lat := fs.Float64("lat", 0, "latitude in degrees")
	lon := fs.Float64("lon", 0, "longitude in degrees")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}
	idx, err := build(*vf)
	if err != nil {
		return err
	}
	tok, err := idx.Encoder().Encode(*lat, *lon)
	if err != nil {
		return err
	}
	if !idx.HasVocabulary() {
		fmt.Fprintln(out, tok)
		return nil
	}
	c, _ := idx.Cell(*lat, *lon)
	name, err := idx.Name(c)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\t%s\n", tok, name)
	return nil
}

func cmdDecode(build func(string) (*x5.Index, error), args []string, out io.Writer) error {
	fs, _ := newFlags("decode")
	pos, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	idx, err := build("")
	if err != nil {
		return err
	}
	lat, lon, err := idx.Encoder().Decode(strings.ToLower(pos[0]))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%.6f\t%.6f\n", lat, lon)
	return nil
}

func cmdName(build func(string) (*x5.Index, error), args []string, out io.Writer) error {
	fs, vf := newFlags("name")
	pos, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	idx, err := build(*vf)
	if err != nil {
		return err
	}
	_, c, err := gpspack.ParseToken(strings.ToLower(pos[0]))
	if err != nil {
		return err
	}
	name, err := idx.Name(c)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, name)
	return nil
}

func cmdParse(build func(string) (*x5.Index, error), args []string, out io.Writer) error {
	fs, vf := newFlags("parse")
	pos, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	idx, err := build(*vf)
	if err != nil {
		return err
	}
	c, ok, err := idx.ParseName(pos[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no cell named %q", pos[0])
	}
	tok, err := gpspack.CellToken(c)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tok)
	return nil
}

func cmdLocate(build func(string) (*x5.Index, error), args []string, out io.Writer) error {
	fs, vf := newFlags("locate")
	lat := fs.Float64("lat", 0, "latitude in degrees")
	lon := fs.Float64("lon", 0, "longitude in degrees")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}
	idx, err := build(*vf)
	if err != nil {
		return err
	}
	addr, err := idx.Locate(*lat, *lon)
	if err != nil {
		return err
	}
	res := struct {
		x5.Address
		Level int    `json:"level"`
		Path  []int  `json:"path"`
		Name  string `json:"name,omitempty"`
	}{Address: addr, Level: addr.Region.Level(), Path: addr.Region.Path()}
	if idx.HasVocabulary() {
		if res.Name, err = idx.Name(addr.Cell); err != nil {
			return err
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func cmdDistance(build func(string) (*x5.Index, error), args []string, out io.Writer) error {
	fs, _ := newFlags("distance")
	sigma := fs.Float64("sigma", gpspack.DefaultSigma, "per-fix error in meters")
	pos, err := parse(fs, args, 2)
	if err != nil {
		return err
	}
	idx, err := build("")
	if err != nil {
		return err
	}
	a, b := strings.ToLower(pos[0]), strings.ToLower(pos[1])
	d, err := idx.Encoder().Distance(a, b)
	if err != nil {
		return err
	}
	same, err := idx.Encoder().WithinTolerance(a, b, *sigma)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%.3f\t%t\n", d, same)
	return nil
}

func cmdExport(build func(string) (*x5.Index, error), args []string, out io.Writer) error {
	fs, vf := newFlags("export")
	level := fs.Int("level", 3, "subdivision level 1..3")
	asGeoJSON := fs.Bool("geojson", false, "write every region as a GeoJSON FeatureCollection")
	pos, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	idx, err := build(*vf)
	if err != nil {
		return err
	}
	_, c, err := gpspack.ParseToken(strings.ToLower(pos[0]))
	if err != nil {
		return err
	}
	if !*asGeoJSON {
		return export.WriteTriangles(out, idx.HexOf(c), *level)
	}
	fc, err := export.RegionsFeatureCollection(idx, c)
	if err != nil {
		return err
	}
	raw, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", raw)
	return err
}
