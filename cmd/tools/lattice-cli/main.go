package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/annel0/quadcraft/internal/quadray"
	"github.com/annel0/quadcraft/internal/vec"
	"github.com/annel0/quadcraft/internal/world"
	"github.com/go-gl/mathgl/mgl32"
)

func main() {
	var (
		command   = flag.String("cmd", "verify", "Command: verify, to-lattice, to-euclid, neighbors")
		point     = flag.String("p", "", "Point: x,y,z for to-lattice; a,b,c,d otherwise")
		tolerance = flag.Float64("tolerance", 1e-4, "Tolerance for verify")
		asJSON    = flag.Bool("json", false, "Print JSON instead of text")
	)
	flag.Parse()

	var err error
	switch *command {
	case "verify":
		err = verify(float32(*tolerance), *asJSON)
	case "to-lattice":
		err = toLattice(*point, *asJSON)
	case "to-euclid":
		err = toEuclid(*point, *asJSON)
	case "neighbors":
		err = neighbors(*point, *asJSON)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", *command)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func verify(tolerance float32, asJSON bool) error {
	report := quadray.VerifyGeometricIdentities(tolerance)
	if asJSON {
		if err := printJSON(report); err != nil {
			return err
		}
	} else {
		fmt.Println(report.Summary())
	}
	if !report.AllPassed() {
		os.Exit(1)
	}
	return nil
}

func toLattice(raw string, asJSON bool) error {
	v, err := parsePoint(raw, 3)
	if err != nil {
		return err
	}
	q := quadray.FromEuclidean(mgl32.Vec3{v[0], v[1], v[2]})
	if asJSON {
		return printJSON(map[string]interface{}{"lattice": q, "key": q.Key().String()})
	}
	fmt.Printf("lattice: %s\nkey:     %s\nchunk:   %v\n", q, q.Key(), world.ChunkCoordsOf(q))
	return nil
}

func toEuclid(raw string, asJSON bool) error {
	v, err := parsePoint(raw, 4)
	if err != nil {
		return err
	}
	q := quadray.New(v[0], v[1], v[2], v[3])
	e := q.ToEuclidean()
	if asJSON {
		return printJSON(map[string]interface{}{"canonical": q.Normalize(), "euclidean": e})
	}
	fmt.Printf("canonical: %s\neuclidean: (%.4f, %.4f, %.4f)\n", q.Normalize(), e[0], e[1], e[2])
	return nil
}

func neighbors(raw string, asJSON bool) error {
	v, err := parsePoint(raw, 4)
	if err != nil {
		return err
	}
	q := quadray.New(v[0], v[1], v[2], v[3]).Normalize()
	faces := world.NewChunk(vec.Vec3{}).Neighbors(q)
	kissing := quadray.KissingNeighbors(q)

	if asJSON {
		return printJSON(map[string]interface{}{"point": q, "faces": faces, "kissing": kissing})
	}
	fmt.Printf("point: %s\n\nface neighbors:\n", q)
	for i, n := range faces {
		fmt.Printf("  face %d -> %s\n", i, n)
	}
	fmt.Println("\nkissing neighbors (IVM):")
	for i, n := range kissing {
		fmt.Printf("  %2d -> %s  d=%.4f\n", i, n, quadray.Distance(q, n))
	}
	return nil
}

func parsePoint(raw string, n int) ([]float32, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated values, got %q", n, raw)
	}
	out := make([]float32, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", p, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
