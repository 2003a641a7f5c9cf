// Command convert rewrites a COLMAP reconstruction into the
// transforms.json format used by Nerfstudio.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/bambi-eco/RARF/internal/nerfstudio"
	"github.com/bambi-eco/RARF/internal/version"
)

func main() {
	imagesRoot := flag.String("images", "./images", "Directory containing the reconstruction's images")
	outputDir := flag.String("out", "output", "Output directory for transforms.json")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("convert %s (%s)\n", version.Version, version.GitSHA)
		return
	}

	if flag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "usage: convert [flags] cameras.(txt|bin) images.(txt|bin)\n\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("convert: %v", err)
	}
	if err := nerfstudio.Convert(flag.Arg(0), flag.Arg(1), *outputDir, *imagesRoot); err != nil {
		log.Fatalf("convert: %v", err)
	}
	fmt.Printf("result written to %s\n", filepath.Join(*outputDir, "transforms.json"))
}
