package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tigredonorte/bingo-sub002/internal/detect"
	"github.com/tigredonorte/bingo-sub002/internal/grid"
	"github.com/tigredonorte/bingo-sub002/internal/ocr"
	"github.com/tigredonorte/bingo-sub002/internal/parser"
	"github.com/tigredonorte/bingo-sub002/internal/preprocess"
	"github.com/tigredonorte/bingo-sub002/internal/scanner"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("bingo-scan %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("bingo-scan - scan printed bingo cards from a photograph")
			fmt.Println()
			fmt.Println("Usage: bingo-scan -image photo.png [options]")
			fmt.Println()
			fmt.Println("Scans one photograph, recognizes each card's grid numbers with")
			fmt.Println("Tesseract OCR, and prints the structured result as JSON on stdout.")
			fmt.Println("Diagnostics go to stderr.")
			fmt.Println()
			flag.PrintDefaults()
			return
		}
	}

	imagePath := flag.String("image", "", "path to the card photograph (PNG, JPEG, or GIF)")
	multi := flag.Bool("multi", false, "detect and scan multiple cards in the photograph")
	cardRows := flag.Int("card-rows", 0, "explicit card layout: rows of cards (requires -card-cols)")
	cardCols := flag.Int("card-cols", 0, "explicit card layout: columns of cards (requires -card-rows)")
	cards := flag.Int("cards", 0, "expected number of cards in the photograph")
	gridRows := flag.Int("grid-rows", 5, "cell rows per card")
	gridCols := flag.Int("grid-cols", 5, "cell columns per card")
	freeSpace := flag.Bool("free-space", true, "treat the center cell as a free space")
	lang := flag.String("lang", "eng", "Tesseract language tag")
	minConfidence := flag.Float64("min-confidence", 0, "reject numbers below this OCR confidence (0-100, 0 disables)")
	flag.Parse()

	// Results go to stdout; keep logging on stderr.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if *imagePath == "" {
		log.Fatal("missing required -image flag (see bingo-scan --help)")
	}

	data, err := os.ReadFile(*imagePath)
	if err != nil {
		log.Fatalf("Failed to read image: %v", err)
	}
	img, err := preprocess.Decode(data)
	if err != nil {
		log.Fatalf("Failed to decode image: %v", err)
	}

	opts := parser.DefaultScanOptions()
	opts.Language = *lang
	opts.ConfidenceThreshold = *minConfidence
	opts.GridSize = grid.Size{Rows: *gridRows, Cols: *gridCols}
	opts.HasFreeSpace = *freeSpace

	sc := scanner.New(ocr.NewTesseract(), opts)
	ctx := context.Background()

	var result interface{}
	if *multi || *cards > 0 || (*cardRows > 0 && *cardCols > 0) {
		detectOpts := detect.DefaultOptions()
		if *cardRows > 0 && *cardCols > 0 {
			detectOpts.CardLayout = &grid.Size{Rows: *cardRows, Cols: *cardCols}
		} else if *cards > 0 {
			detectOpts.ExpectedCards = *cards
		}
		result, err = sc.ScanMultipleFromImage(ctx, img, detectOpts)
	} else {
		result, err = sc.Scan(ctx, img)
	}
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
}
