// Command diagnose prints the frame statistics and per-class scores the
// detector computes for image files, to help tune thresholds offline.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"hazard-monitor/internal/camera"
	"hazard-monitor/internal/vision"
)

type frameReport struct {
	File     string             `json:"file"`
	Features vision.FeatureSet  `json:"features"`
	Scores   map[string]float64 `json:"scores"`
	Error    string             `json:"error,omitempty"`
}

type report struct {
	Frames []frameReport      `json:"frames"`
	Batch  vision.BatchResult `json:"batch"`
}

func main() {
	configPath := flag.String("config", "", "classifier tuning file (JSON)")
	threshold := flag.Float64("threshold", vision.DefaultDetectionThreshold, "detection threshold")
	width := flag.Int("width", 640, "analysis width in pixels, 0 keeps the original size")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	writeConfig := flag.String("write-config", "", "write the default tuning to this path and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <image or directory>...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *writeConfig != "" {
		if err := vision.WriteClassifierConfig(*writeConfig, vision.DefaultClassifierConfig()); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		log.Printf("Default classifier tuning written to %s", *writeConfig)
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := vision.LoadClassifierConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load classifier config: %v", err)
	}
	agg := vision.NewAggregator(cfg, *threshold)

	files, err := collect(flag.Args())
	if err != nil {
		log.Fatalf("Failed to list images: %v", err)
	}
	if len(files) == 0 {
		log.Fatal("No images found")
	}

	var out report
	var frames []vision.PixelBuffer
	for _, file := range files {
		img, err := camera.LoadImage(file)
		if err != nil {
			out.Frames = append(out.Frames, frameReport{File: file, Error: err.Error()})
			continue
		}

		buf := camera.ToBuffer(img, *width)
		frames = append(frames, buf)

		scores := agg.Score(buf)
		fr := frameReport{File: file, Features: scores.Features, Scores: map[string]float64{}}
		if scores.Err != nil {
			fr.Error = scores.Err.Error()
		}
		for _, c := range vision.Classes {
			fr.Scores[c.String()] = scores.Outcomes[c].Probability
		}
		out.Frames = append(out.Frames, fr)
	}
	out.Batch = agg.Analyze(frames)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatalf("Failed to encode report: %v", err)
		}
		return
	}
	printReport(out, agg.Threshold())
}

// collect expands directories into their image files, sorted by name
func collect(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && camera.IsImageFile(e.Name()) {
				names = append(names, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(names)
		files = append(files, names...)
	}
	return files, nil
}

func printReport(r report, threshold float64) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tBRIGHT\tCONTRAST\tSAT\tEDGES\tTEXTURE\tFOG\tSMOKE\tVAPOR\tSMOG")
	for _, f := range r.Frames {
		if f.Error != "" && f.Scores == nil {
			fmt.Fprintf(w, "%s\terror: %s\n", filepath.Base(f.File), f.Error)
			continue
		}
		fs := f.Features
		fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%.1f\t%.3f\t%.1f\t%.3f\t%.3f\t%.3f\t%.3f\n",
			filepath.Base(f.File),
			fs.BrightnessMean, fs.Contrast, fs.SaturationMean, fs.EdgeDensity, fs.TextureMean,
			f.Scores["fog"], f.Scores["smoke"], f.Scores["vapor"], f.Scores["smog"])
	}
	w.Flush()

	b := r.Batch
	fmt.Printf("\nBatch: %d frames analyzed, %d failed, threshold %.2f\n", b.FramesAnalyzed, b.FramesFailed, threshold)
	for _, c := range vision.Classes {
		cr := b.Class(c)
		mark := ""
		if cr.Detected {
			mark = "  DETECTED"
		}
		fmt.Printf("  %-6s mean %.3f  range %.3f-%.3f%s\n", c, cr.Probability, cr.Min, cr.Max, mark)
	}
}
