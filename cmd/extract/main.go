// Command extract turns a drone flight (videos plus AirData log) into a
// COLMAP-style reconstruction seed: extracted frame images and an
// images.txt with one georeferenced pose per frame.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/bambi-eco/RARF/internal/pipeline"
	"github.com/bambi-eco/RARF/internal/version"
)

func main() {
	airdataFile := flag.String("airdata", "", "Path to the AirData CSV flight log (required)")
	demConfig := flag.String("dem", "", "Path to the DEM config JSON file")
	outputDir := flag.String("out", "output", "Output directory")
	framesRoot := flag.String("frames", "", "Directory containing pre-extracted frames, one subdirectory per video (required)")
	sampling := flag.Int("sampling", 3, "Frame step when extracting; 1 extracts every frame")
	imageExt := flag.String("ext", "png", "Extension of the extracted frame images")
	zone := flag.String("tz", "", "Time zone of the drone clock (IANA name, default local)")
	archive := flag.String("archive", "", "Path to the flight archive database; empty disables archiving")
	reports := flag.Bool("reports", false, "Write ground-track and flight-profile reports")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("extract %s (%s)\n", version.Version, version.GitSHA)
		return
	}

	videos := flag.Args()
	if len(videos) == 0 || *airdataFile == "" || *framesRoot == "" {
		fmt.Fprintf(os.Stderr, "usage: extract [flags] video.mp4 [video2.mp4 ...]\n\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	loc := time.Local
	if *zone != "" {
		var err error
		loc, err = time.LoadLocation(*zone)
		if err != nil {
			log.Fatalf("invalid time zone %q: %v", *zone, err)
		}
	}

	result, err := pipeline.Run(&pipeline.DirectoryExtractor{Root: *framesRoot}, pipeline.Options{
		VideoFiles:    videos,
		AirdataFile:   *airdataFile,
		DEMConfigFile: *demConfig,
		OutputDir:     *outputDir,
		SamplingRate:  *sampling,
		ImageExt:      strings.TrimPrefix(*imageExt, "."),
		Location:      loc,
		ArchivePath:   *archive,
		WriteReports:  *reports,
	})
	if err != nil {
		log.Fatalf("extract: %v", err)
	}

	fmt.Printf("extracted %d frames (clock offset %.3fs)\n", result.ImageCount, result.ClockOffset)
	if result.SessionID != "" {
		fmt.Printf("archived as session %s\n", result.SessionID)
	}
}
